package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MikkosUSN/levelup-merch/pkg/database"
	"github.com/MikkosUSN/levelup-merch/pkg/health"
	pkgkafka "github.com/MikkosUSN/levelup-merch/pkg/kafka"
	"github.com/MikkosUSN/levelup-merch/pkg/tracing"

	"github.com/MikkosUSN/levelup-merch/internal/app/migrations"
	"github.com/MikkosUSN/levelup-merch/internal/auth"
	"github.com/MikkosUSN/levelup-merch/internal/config"
	"github.com/MikkosUSN/levelup-merch/internal/event"
	handler "github.com/MikkosUSN/levelup-merch/internal/handler/http"
	"github.com/MikkosUSN/levelup-merch/internal/repository"
	"github.com/MikkosUSN/levelup-merch/internal/repository/memory"
	"github.com/MikkosUSN/levelup-merch/internal/repository/postgres"
	redisrepo "github.com/MikkosUSN/levelup-merch/internal/repository/redis"
	"github.com/MikkosUSN/levelup-merch/internal/service"
)

const serviceName = "levelup-merch"

// App wires together all dependencies and runs the service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	traceStop  func(context.Context) error
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	traceStop, err := tracing.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	// PostgreSQL pool and schema.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.DBHost),
		slog.String("database", cfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	prometheus.MustRegister(database.NewPoolStatsCollector(pool, serviceName))

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	// Cart storage. Redis in production, in-memory for local single-node runs.
	var (
		rdb       *redis.Client
		cartStore repository.CartStore
	)
	switch cfg.CartBackend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		cartStore = redisrepo.NewCartStore(rdb, cfg.CartTTL(), cfg.CheckoutLockTTL())
		healthHandler.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	default:
		logger.Warn("using in-memory cart store, carts will not survive restarts")
		cartStore = memory.NewCartStore()
	}

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	orderRepo := postgres.NewOrderRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewResetTokenRepository(pool)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessExpiry(), cfg.RefreshExpiry())
	eventProducer := event.NewProducer(producer, logger)

	cartService := service.NewCartService(cartStore, productRepo, eventProducer, logger)
	checkoutService := service.NewCheckoutService(cartStore, orderRepo, eventProducer, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	productService := service.NewProductService(productRepo, logger)
	userService := service.NewUserService(userRepo, tokenRepo, jwtManager, logger)

	router := handler.NewRouter(handler.RouterDeps{
		CartService:     cartService,
		CheckoutService: checkoutService,
		OrderService:    orderService,
		ProductService:  productService,
		UserService:     userService,
		JWT:             jwtManager,
		Health:          healthHandler,
		Logger:          logger,
		PprofCIDRs:      cfg.PprofCIDRs,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		rdb:        rdb,
		producer:   producer,
		traceStop:  traceStop,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.pool.Close()

	if err := a.traceStop(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
