package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/AkshathTaduri/booktownsolutions/internal/config"
	"github.com/AkshathTaduri/booktownsolutions/internal/event"
	"github.com/AkshathTaduri/booktownsolutions/internal/gateway"
	handler "github.com/AkshathTaduri/booktownsolutions/internal/handler/http"
	pgrepo "github.com/AkshathTaduri/booktownsolutions/internal/repository/postgres"
	redisrepo "github.com/AkshathTaduri/booktownsolutions/internal/repository/redis"
	"github.com/AkshathTaduri/booktownsolutions/internal/service"
	"github.com/AkshathTaduri/booktownsolutions/migrations"
	"github.com/AkshathTaduri/booktownsolutions/pkg/database"
	"github.com/AkshathTaduri/booktownsolutions/pkg/health"
	"github.com/AkshathTaduri/booktownsolutions/pkg/httpclient"
	pkgkafka "github.com/AkshathTaduri/booktownsolutions/pkg/kafka"
	"github.com/AkshathTaduri/booktownsolutions/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Storage layer. The order repository shares its transaction with the
	// stock ledger so order insert and stock decrement commit together.
	stockRepo := pgrepo.NewStockRepository(pool)
	productRepo := pgrepo.NewProductRepository(pool)
	cartRepo := pgrepo.NewCartRepository(pool)
	orderRepo := pgrepo.NewOrderRepository(pool, stockRepo)
	guestCartRepo := redisrepo.NewGuestCartRepository(redisClient, cfg.GuestCartTTL())

	eventProducer := event.NewProducer(producer, logger)

	paymentGateway, err := buildGateway(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	verifier := gateway.NewSignatureVerifier(cfg.StripeWebhookSecret, cfg.WebhookTolerance())

	cartService := service.NewCartService(cartRepo, guestCartRepo, productRepo, eventProducer, logger)
	checkoutService := service.NewCheckoutService(cartRepo, productRepo, paymentGateway, eventProducer, logger)
	webhookService := service.NewWebhookService(verifier, orderRepo, productRepo, cartRepo, eventProducer, logger)
	catalogService := service.NewCatalogService(productRepo, stockRepo, logger)
	orderService := service.NewOrderService(orderRepo)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	router := handler.NewRouter(handler.RouterConfig{
		Carts:              cartService,
		Checkout:           checkoutService,
		Webhooks:           webhookService,
		Catalog:            catalogService,
		Orders:             orderService,
		Health:             healthHandler,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:        cfg.Environment,
		WebhookMaxBytes:    cfg.WebhookMaxPayloadBytes,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// buildGateway selects the payment gateway implementation. The mock gateway
// keeps the whole checkout flow runnable without a provider account.
func buildGateway(cfg *config.Config, logger *slog.Logger) (gateway.PaymentGateway, error) {
	if cfg.PaymentGateway == "mock" {
		logger.Warn("using mock payment gateway; sessions will not reach a real provider")
		return gateway.NewMockGateway(), nil
	}

	baseClient := httpclient.New(httpclient.Config{
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, httpclient.CircuitBreakerConfig{
		Name:         "payment-gateway",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}, logger)

	return gateway.NewStripeGateway(gateway.StripeConfig{
		BaseURL:    cfg.StripeBaseURL,
		APIKey:     cfg.StripeAPIKey,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
		Currency:   cfg.StripeCurrency,
	}, cbClient, logger), nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain HTTP, flush spans, close
// the Kafka producer, then drop the Redis and PostgreSQL connections.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
