package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/adapter/cache"
	"github.com/sokowatt/sokowatt-web/internal/adapter/http/fiber/handlers"
	"github.com/sokowatt/sokowatt-web/internal/adapter/http/fiber/middleware"
	"github.com/sokowatt/sokowatt-web/internal/adapter/vault"
	wsAdapter "github.com/sokowatt/sokowatt-web/internal/adapter/websocket"
	"github.com/sokowatt/sokowatt-web/internal/infrastructure/circuitbreaker"
	"github.com/sokowatt/sokowatt-web/internal/observability/telemetry"
	"github.com/sokowatt/sokowatt-web/internal/ports"
	"github.com/sokowatt/sokowatt-web/internal/service/marketplace"
	"github.com/sokowatt/sokowatt-web/internal/service/purchase"
	"github.com/sokowatt/sokowatt-web/internal/service/toast"
	"github.com/sokowatt/sokowatt-web/internal/session"
	"github.com/sokowatt/sokowatt-web/internal/upstream"
	"github.com/sokowatt/sokowatt-web/pkg/config"
	"github.com/sokowatt/sokowatt-web/web"
)

const (
	serviceName    = "sokowatt-web"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting SokoWatt web frontend",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Optional Vault overrides for deploy secrets
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
		if err != nil {
			logger.Fatal("Failed to connect to Vault", zap.Error(err))
		}
		if key, err := secrets.GetUpstreamAPIKey(); err == nil {
			cfg.Upstream.APIKey = key
		} else {
			logger.Warn("Upstream API key not found in Vault", zap.Error(err))
		}
		if url, err := secrets.GetRedisURL(); err == nil {
			cfg.Redis.URL = url
		}
	}

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, serviceVersion, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Initialize Cache (Redis with local fallback)
	var pageCache ports.Cache
	if cfg.Redis.URL != "" {
		pageCache, err = cache.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, using local cache", zap.Error(err))
			pageCache = cache.NewLocalCache(time.Minute, logger)
		}
	} else {
		pageCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer pageCache.Close()

	// 5. Initialize Session Store
	var sessionStore ports.SessionStore
	if cfg.Session.Store == "redis" && cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to create redis session client", zap.Error(err))
		}
		defer client.Close()
		sessionStore = session.NewRedisStore(client)
	} else {
		sessionStore = session.NewMemoryStore()
	}
	sessions := session.NewManager(sessionStore, cfg.Session.TTL, logger)

	// 6. Initialize Upstream Marketplace API Client
	breakerSettings := circuitbreaker.DefaultSettings("marketplace-api")
	breakerSettings.Timeout = cfg.Upstream.Timeout
	if cfg.CircuitBreaker.Enabled {
		breakerSettings.MaxRequests = cfg.CircuitBreaker.MaxRequests
		breakerSettings.Interval = cfg.CircuitBreaker.Interval
		breakerSettings.BreakerTimeout = cfg.CircuitBreaker.Timeout
		breakerSettings.FailureThreshold = cfg.CircuitBreaker.FailureThreshold
	}
	httpClient := circuitbreaker.NewHTTPClient(breakerSettings, logger)
	marketAPI := upstream.NewClient(cfg.Upstream, httpClient, logger,
		upstream.WithCache(pageCache, cfg.Cache),
	)

	// 7. Initialize Services
	toasts := toast.NewQueue(logger)
	marketSvc := marketplace.NewService(marketAPI, cfg.Marketplace.ListingsLimit, logger)
	flows := purchase.NewRegistry(marketAPI, toasts, cfg.Marketplace.DefaultPurchaseKWh, cfg.Region.CurrencyPrefix, logger)

	// 8. Initialize WebSocket Hub (toast + session push)
	hub := wsAdapter.NewHub(logger)
	go hub.Run()

	toastEvents, cancelToasts := toasts.Subscribe()
	defer cancelToasts()
	sessionEvents, cancelSessions := sessions.Subscribe()
	defer cancelSessions()
	go hub.Feed(toastEvents, sessionEvents)

	// 9. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		Views:                 web.NewEngine(cfg.Region.CurrencyPrefix),
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.HTTP.AllowedOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept",
			AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		}))
	}
	app.Use(middleware.RequestMetrics())
	app.Use(middleware.SessionLoader(sessions, cfg.Session.CookieName, cfg.Session.CookieSecure))

	// Health Check Endpoints
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := pageCache.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})

	// Metrics endpoint for Prometheus
	app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	// Static assets
	app.Use("/static", filesystem.New(filesystem.Config{
		Root: web.StaticFS(),
	}))

	// Pages
	pageHandler := handlers.NewPageHandler(marketAPI, toasts, logger)
	app.Get("/", pageHandler.Home)
	app.Get("/dashboard", pageHandler.Dashboard)

	marketplaceHandler := handlers.NewMarketplaceHandler(marketSvc, toasts, logger)
	app.Get("/marketplace", marketplaceHandler.Browse)

	// Auth
	authHandler := handlers.NewAuthHandler(marketAPI, sessions, flows, toasts, logger)
	app.Get("/login", authHandler.LoginForm)
	app.Post("/login", authHandler.Login)
	app.Get("/register", authHandler.RegisterForm)
	app.Post("/register", authHandler.Register)
	app.Post("/logout", authHandler.Logout)

	// Toast dismissal (modal-less JSON endpoint)
	purchaseHandler := handlers.NewPurchaseHandler(flows, marketSvc, sessions, toasts, logger)
	app.Post("/toasts/:id/dismiss", purchaseHandler.DismissToast)

	// Purchase modal endpoints; Select answers 401 itself so the
	// browser can redirect to login.
	app.Post("/purchase/select", purchaseHandler.Select)
	app.Post("/purchase/cancel", purchaseHandler.Cancel)

	protected := app.Group("", middleware.LoginRequired())
	protected.Post("/purchase", purchaseHandler.Submit)

	listingHandler := handlers.NewListingHandler(marketAPI, marketSvc, sessions, toasts, logger)
	protected.Get("/listings/new", listingHandler.NewForm)
	protected.Post("/listings", listingHandler.Create)
	protected.Get("/listings/:id/edit", listingHandler.EditForm)
	protected.Post("/listings/:id", listingHandler.Update)
	protected.Post("/listings/:id/delete", listingHandler.Delete)

	profileHandler := handlers.NewProfileHandler(marketAPI, toasts, logger)
	protected.Get("/profile", profileHandler.Show)

	// WebSocket updates
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/updates", websocket.New(func(c *websocket.Conn) {
		sid, _ := c.Locals(middleware.LocalsSID).(string)
		hub.AddClient(c, sid)
	}))

	// 10. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
}
