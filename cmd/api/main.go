package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pouchworks/quote-service/internal/api/handlers"
	"github.com/pouchworks/quote-service/internal/application"
	"github.com/pouchworks/quote-service/internal/domain"
	"github.com/pouchworks/quote-service/internal/infrastructure/refdata"
	"github.com/pouchworks/quote-service/pkg/cache"
	"github.com/pouchworks/quote-service/pkg/logging"
	"github.com/pouchworks/quote-service/pkg/metrics"
	"github.com/pouchworks/quote-service/pkg/middleware"
	"github.com/pouchworks/quote-service/pkg/ratelimit"
	"github.com/pouchworks/quote-service/pkg/resilience"
	"github.com/pouchworks/quote-service/pkg/tracing"
)

const serviceName = "quote-service"

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var loadReferenceData = refdata.Default

var loadOptionCatalog = domain.DefaultOptionCatalog

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Setup logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting quote-service API")

	config, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		return err
	}

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.ServiceVersion = getEnv("SERVICE_VERSION", tracingConfig.ServiceVersion)
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "false") == "true"

	tracerProvider, err := initTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint, "enabled", tracingConfig.Enabled)
	}

	// Initialize Prometheus metrics
	m := newMetrics(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// Reference data and option catalog are embedded; a broken file fails startup
	referenceData, err := loadReferenceData()
	if err != nil {
		logger.WithError(err).Error("Failed to load reference data")
		return err
	}
	optionCatalog, err := loadOptionCatalog()
	if err != nil {
		logger.WithError(err).Error("Failed to load processing option catalog")
		return err
	}
	logger.Info("Catalogs loaded",
		"processingOptions", len(optionCatalog.All()),
		"bagTypes", len(referenceData.BagTypeIDs()),
	)

	resolver := refdata.NewBreakerResolver(
		referenceData,
		resilience.DefaultCircuitBreakerConfig(refdata.BreakerName),
		m,
		logger.Logger,
	)

	calculator := domain.NewPriceCalculator(domain.CalculatorConfig{
		Rates:                 domain.DefaultRateTable(),
		TaxRate:               config.TaxRate,
		MinimumQuantityPolicy: config.MinimumQuantityPolicy,
	})

	// Initialize application service
	quoteService := application.NewQuoteService(
		optionCatalog,
		resolver,
		calculator,
		config.Quote,
		logger,
		m,
	)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runCacheJanitor(janitorCtx, quoteService, config.Quote.Cache.TTL, logger)

	// Initialize handlers
	quoteHandler := handlers.NewQuoteHandler(quoteService, logger)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middlewareConfig.AllowedOrigins = config.AllowedOrigins
	middlewareConfig.MaxBodyBytes = config.MaxBodyBytes
	middlewareConfig.TrustedProxies = config.TrustedProxies
	if err := middleware.Setup(router, middlewareConfig); err != nil {
		logger.WithError(err).Error("Invalid middleware configuration")
		return err
	}

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, quoteService.Ready))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	// API v1 routes
	limiter := ratelimit.New(config.RateLimit)
	quoteHandler.RegisterRoutes(router.Group("/api/v1"), middleware.RateLimit(limiter, m, logger.Logger))

	// Start server
	srv := &http.Server{
		Addr:              config.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      config.Quote.CalculationTimeout + 10*time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	// Wait for interrupt signal
	<-signalCh
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	stats := quoteService.CacheStats()
	logger.Info("Server stopped",
		"cacheHits", stats.Hits,
		"cacheMisses", stats.Misses,
		"cacheCoalesced", stats.Coalesced,
	)
	return nil
}

// runCacheJanitor purges expired comparison results every interval until ctx is done
func runCacheJanitor(ctx context.Context, svc *application.QuoteService, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.PurgeCache(); n > 0 {
				logger.Debug("Purged expired comparisons", "entries", n)
			}
		}
	}
}

// Config holds application configuration
type Config struct {
	ServerAddr            string
	AllowedOrigins        []string
	TrustedProxies        []string
	MaxBodyBytes          int64
	TaxRate               float64
	MinimumQuantityPolicy domain.MinimumQuantityPolicy
	RateLimit             ratelimit.Config
	Quote                 application.Config
}

func loadConfig() (*Config, error) {
	defaults := application.DefaultConfig()
	quote := application.Config{
		Currency:           getEnv("QUOTE_CURRENCY", defaults.Currency),
		CalculationTimeout: getEnvDuration("QUOTE_CALCULATION_TIMEOUT", defaults.CalculationTimeout),
		Workers:            getEnvInt("QUOTE_WORKERS", defaults.Workers),
		MaxInflightLines:   int64(getEnvInt("QUOTE_MAX_INFLIGHT_LINES", int(defaults.MaxInflightLines))),
		Validity:           getEnvDuration("QUOTE_VALIDITY", defaults.Validity),
		Limits: application.Limits{
			MinQuantity:   getEnvInt("QUOTE_MIN_QUANTITY", defaults.Limits.MinQuantity),
			MaxQuantity:   getEnvInt("QUOTE_MAX_QUANTITY", defaults.Limits.MaxQuantity),
			MaxQuantities: getEnvInt("QUOTE_MAX_QUANTITIES", defaults.Limits.MaxQuantities),
		},
		Comparison: defaults.Comparison,
		Cache: cache.Config{
			TTL:        getEnvDuration("QUOTE_CACHE_TTL", defaults.Cache.TTL),
			MaxEntries: getEnvInt("QUOTE_CACHE_MAX_ENTRIES", defaults.Cache.MaxEntries),
		},
	}
	if quote.Limits.MinQuantity < 1 || quote.Limits.MaxQuantity < quote.Limits.MinQuantity {
		return nil, errors.New("QUOTE_MIN_QUANTITY must be positive and not above QUOTE_MAX_QUANTITY")
	}

	taxRate := getEnvFloat("QUOTE_TAX_RATE", domain.DefaultCalculatorConfig().TaxRate)
	if taxRate < 0 || taxRate >= 1 {
		return nil, errors.New("QUOTE_TAX_RATE must be in [0, 1)")
	}

	return &Config{
		ServerAddr:            getEnv("SERVER_ADDR", ":8080"),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		TrustedProxies:        splitList(getEnv("TRUSTED_PROXIES", "")),
		MaxBodyBytes:          int64(getEnvInt("MAX_BODY_BYTES", int(middleware.DefaultMaxBodyBytes))),
		TaxRate:               taxRate,
		MinimumQuantityPolicy: domain.ParseMinimumQuantityPolicy(getEnv("QUOTE_MIN_QUANTITY_POLICY", "warn")),
		RateLimit: ratelimit.Config{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", ratelimit.DefaultConfig().Requests),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", ratelimit.DefaultConfig().Window),
		},
		Quote: quote,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
