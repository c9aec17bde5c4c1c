package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ecomgo/reviews/internal/auth"
	"github.com/ecomgo/reviews/internal/config"
	"github.com/ecomgo/reviews/internal/event"
	gql "github.com/ecomgo/reviews/internal/graphql"
	handler "github.com/ecomgo/reviews/internal/handler/http"
	"github.com/ecomgo/reviews/internal/media"
	"github.com/ecomgo/reviews/internal/oembed"
	"github.com/ecomgo/reviews/internal/repository/postgres"
	"github.com/ecomgo/reviews/internal/service"
	"github.com/ecomgo/reviews/internal/storage"
	"github.com/ecomgo/reviews/internal/storage/local"
	"github.com/ecomgo/reviews/internal/storage/memory"
	"github.com/ecomgo/reviews/internal/storage/s3"
	"github.com/ecomgo/reviews/migrations"
	"github.com/ecomgo/reviews/pkg/database"
	"github.com/ecomgo/reviews/pkg/health"
	"github.com/ecomgo/reviews/pkg/httpclient"
	pkgkafka "github.com/ecomgo/reviews/pkg/kafka"
	"github.com/ecomgo/reviews/pkg/tracing"
)

const serviceName = "review-service"

// App wires together all dependencies and runs the review service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown tracing.ShutdownFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a.tracerShutdown, err = tracing.InitTracer(initCtx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a.pool, err = database.NewPostgresPool(initCtx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryLogMS)*time.Millisecond, logger)
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, "review"); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}

	if err := database.RunMigrations(initCtx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})

	files, mediaHandler, err := a.newStorage(initCtx, healthHandler)
	if err != nil {
		return nil, err
	}

	notifier := a.newNotifier(healthHandler)

	// Remote image downloads must not follow redirects or retry.
	fetchCfg := httpclient.DefaultConfig()
	fetchCfg.Timeout = cfg.MediaFetchTimeout
	fetchCfg.MaxRetries = 0
	fetchCfg.FollowRedirects = false
	fetcher := media.NewFetcher(httpclient.New(fetchCfg), cfg.MediaMaxFileSize, logger)

	oembedCfg := httpclient.DefaultConfig()
	oembedCfg.Timeout = cfg.MediaFetchTimeout
	oembedClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(oembedCfg),
		httpclient.DefaultCircuitBreakerConfig("oembed"),
		logger,
	)
	var oembedOpts []oembed.Option
	if redisCfg, ok := cfg.Redis(); ok {
		a.redis, err = database.NewRedisClient(initCtx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		oembedOpts = append(oembedOpts, oembed.WithCache(oembed.NewRedisCache(a.redis), cfg.OEmbedCacheTTL))
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
		logger.Info("oembed cache enabled", slog.String("addr", redisCfg.Addr()))
	}
	resolver := oembed.NewResolver(oembedClient, logger, oembedOpts...)

	reviewRepo := postgres.NewReviewRepository(a.pool)
	mediaRepo := postgres.NewMediaRepository(a.pool)
	catalogRepo := postgres.NewCatalogRepository(a.pool)

	reviewService := service.NewReviewService(reviewRepo, mediaRepo, catalogRepo, files, notifier, logger)
	mediaService := service.NewMediaService(reviewRepo, mediaRepo, files, fetcher, resolver, notifier, cfg.MediaMaxFileSize, logger)

	schema, err := gql.NewSchema(gql.NewResolver(reviewService, mediaService, logger), gql.SchemaConfig{
		MaxDepth:       cfg.GraphQLMaxDepth,
		MaxParallelism: cfg.GraphQLParallel,
	}, logger)
	if err != nil {
		return nil, err
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry)
	router := handler.NewRouter(handler.RouterConfig{
		GraphQL:      handler.NewGraphQLHandler(schema, cfg.GraphQLMaxUpload, logger),
		Health:       healthHandler,
		Validator:    jwtManager.TokenValidator(),
		CORSOrigins:  cfg.CORSAllowedOrigins,
		PprofCIDRs:   cfg.PprofAllowedCIDRs,
		RateRPS:      cfg.RateLimitRPS,
		RateBurst:    cfg.RateLimitBurst,
		Media:        mediaHandler,
		MediaBaseURL: cfg.MediaBaseURL,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return a, nil
}

// newStorage builds the configured file backend. The returned handler is
// non-nil only when this process has to serve the files itself.
func (a *App) newStorage(ctx context.Context, hh *health.Handler) (storage.Storage, http.Handler, error) {
	cfg := a.cfg
	switch cfg.StorageBackend {
	case config.StorageS3:
		store, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    cfg.S3UsePathStyle,
			PublicBaseURL:   cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 storage: %w", err)
		}
		hh.RegisterNonCritical("s3", store.Ping)
		a.logger.Info("using s3 media storage", slog.String("bucket", cfg.S3Bucket))
		return store, nil, nil
	case config.StorageMemory:
		a.logger.Warn("using in-memory media storage; files are lost on restart")
		store := memory.New(cfg.MediaBaseURL)
		return store, store.Handler(), nil
	default:
		store, err := local.New(cfg.MediaRoot, cfg.MediaBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("init local storage: %w", err)
		}
		a.logger.Info("using local media storage", slog.String("root", cfg.MediaRoot))
		return store, store.Handler(), nil
	}
}

func (a *App) newNotifier(hh *health.Handler) event.Notifier {
	if !a.cfg.EventsEnabled {
		a.logger.Info("event publishing disabled")
		return event.NewLogNotifier(a.logger)
	}
	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	hh.RegisterNonCritical("kafka", a.producer.Ping)
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))
	return event.NewProducer(a.producer, a.logger)
}

// Run starts the HTTP server and blocks until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.close()
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
	a.close()

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases everything opened by NewApp. It tolerates a partially
// initialized App.
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
