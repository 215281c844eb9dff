package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/avelane/cartwish/internal/catalog"
	"github.com/avelane/cartwish/internal/config"
	"github.com/avelane/cartwish/internal/event"
	handler "github.com/avelane/cartwish/internal/handler/http"
	"github.com/avelane/cartwish/internal/kvstore"
	memorystore "github.com/avelane/cartwish/internal/kvstore/memory"
	postgresstore "github.com/avelane/cartwish/internal/kvstore/postgres"
	redisstore "github.com/avelane/cartwish/internal/kvstore/redis"
	"github.com/avelane/cartwish/internal/notify"
	"github.com/avelane/cartwish/internal/store"
	"github.com/avelane/cartwish/pkg/health"
	"github.com/avelane/cartwish/pkg/httpclient"
	pkgkafka "github.com/avelane/cartwish/pkg/kafka"
)

// App wires together all dependencies and runs the cartwish service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	healthHandler := health.NewHandler()

	backing, err := a.initBacking(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Kafka is optional; without it mutations stay local to the service.
	var events store.EventPublisher
	if cfg.KafkaEnabled {
		kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
		a.producer = pkgkafka.NewProducer(kafkaCfg, logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return a.producer.Ping(ctx)
		})
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Notifications go to the log and, when a request is in flight, back
	// to the caller in the response envelope.
	notifier := notify.Fanout{
		notify.NewLogNotifier(logger),
		notify.ContextNotifier{},
	}

	stores := store.NewManager(backing, notifier, events, logger)

	cbCfg := httpclient.DefaultCircuitBreakerConfig("catalog")
	cat := catalog.NewClient(
		httpclient.NewCircuitBreakerClient(httpclient.New(httpclient.DefaultConfig()), cbCfg, logger),
		cfg.CatalogURL,
	)

	router := handler.NewRouter(stores, cat, healthHandler, logger, cfg.AllowedOrigin)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// initBacking builds the durable key-value backend selected by config and
// registers its health check.
func (a *App) initBacking(ctx context.Context, h *health.Handler) (kvstore.Store, error) {
	switch a.cfg.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		h.Register("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		a.logger.Info("connected to Redis",
			slog.String("addr", a.cfg.RedisAddr),
			slog.Int("db", a.cfg.RedisDB),
		)
		return redisstore.NewStore(rdb, a.cfg.SessionTTL), nil

	case "postgres":
		pool, err := pgxpool.New(ctx, a.cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		a.pool = pool
		h.Register("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})

		st := postgresstore.NewStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.logger.Info("connected to Postgres")
		return st, nil

	case "memory":
		a.logger.Warn("using in-memory backend; state is lost on restart")
		return memorystore.New(), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
	}
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("application shutdown complete")
	return nil
}
