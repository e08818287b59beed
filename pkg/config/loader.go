package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	viper.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	viper.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL", "APP_UPSTREAM_BASE_URL")
	viper.BindEnv("upstream.api_key", "UPSTREAM_API_KEY", "APP_UPSTREAM_API_KEY")
	viper.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	viper.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	viper.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine: env vars plus defaults carry a deploy.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream.base_url is required")
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("app.name", "sokowatt-web")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("upstream.timeout", 30*time.Second)
	viper.SetDefault("session.cookie_name", "sokowatt_sid")
	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("session.store", "memory")
	viper.SetDefault("prometheus.path", "/metrics")
	viper.SetDefault("cache.listings_ttl", time.Minute)
	viper.SetDefault("cache.dashboard_ttl", 5*time.Minute)
	viper.SetDefault("region.currency_prefix", "Kes.")
	viper.SetDefault("region.timezone", "Africa/Nairobi")
	viper.SetDefault("marketplace.default_purchase_kwh", 10)
	viper.SetDefault("marketplace.listings_limit", 100)
}
