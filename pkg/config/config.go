package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Upstream       UpstreamConfig       `mapstructure:"upstream"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Session        SessionConfig        `mapstructure:"session"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CORS           CORSConfig           `mapstructure:"cors"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Region         RegionConfig         `mapstructure:"region"`
	Marketplace    MarketplaceConfig    `mapstructure:"marketplace"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

// UpstreamConfig points at the external marketplace REST API that owns
// all listings, transactions and accounts.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	TTL          time.Duration `mapstructure:"ttl"`
	// Store selects the backend: "memory" or "redis".
	Store string `mapstructure:"store"`
}

type VaultConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

type CacheConfig struct {
	ListingsTTL  time.Duration `mapstructure:"listings_ttl"`
	DashboardTTL time.Duration `mapstructure:"dashboard_ttl"`
}

type RegionConfig struct {
	Timezone       string `mapstructure:"timezone"`
	Locale         string `mapstructure:"locale"`
	CurrencyPrefix string `mapstructure:"currency_prefix"`
}

type MarketplaceConfig struct {
	// DefaultPurchaseKWh seeds the purchase modal amount, capped by the
	// listing's available quantity.
	DefaultPurchaseKWh float64 `mapstructure:"default_purchase_kwh"`
	ListingsLimit      int     `mapstructure:"listings_limit"`
}
