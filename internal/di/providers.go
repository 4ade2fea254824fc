package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-service/internal/app"
	"github.com/sandeepkv93/product-catalog-service/internal/config"
	"github.com/sandeepkv93/product-catalog-service/internal/database"
	"github.com/sandeepkv93/product-catalog-service/internal/feed"
	"github.com/sandeepkv93/product-catalog-service/internal/health"
	"github.com/sandeepkv93/product-catalog-service/internal/http/handler"
	"github.com/sandeepkv93/product-catalog-service/internal/http/router"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/repository"
	"github.com/sandeepkv93/product-catalog-service/internal/resilience"
	"github.com/sandeepkv93/product-catalog-service/internal/service"
	"github.com/sandeepkv93/product-catalog-service/internal/worker"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideWorkerPool,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(repository.NewProductRepository)

var CacheSet = wire.NewSet(
	provideProductCacheStore,
	provideProductQueryCache,
)

var IngestionSet = wire.NewSet(
	provideFeedClient,
	provideResiliencePolicy,
	provideIngestionOptions,
	service.NewIngestionService,
	service.NewIngestionJob,
	wire.Bind(new(service.ProductFeed), new(*feed.Client)),
	wire.Bind(new(service.TaskRunner), new(*worker.Pool)),
	wire.Bind(new(service.ProductCacheInvalidator), new(*service.ProductQueryCache)),
	wire.Bind(new(service.IngestionRunner), new(*service.IngestionService)),
)

var ServiceSet = wire.NewSet(
	service.NewProductService,
	wire.Bind(new(service.ProductService), new(*service.ProductServiceImpl)),
	wire.Bind(new(service.IngestionStatusReader), new(*service.IngestionJob)),
)

var HTTPSet = wire.NewSet(
	handler.NewProductHandler,
	handler.NewIngestionHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// IngestionRuntime is the ingestion pipeline plus the resources the caller
// must release once it is done.
type IngestionRuntime struct {
	Config        *config.Config
	Logger        *slog.Logger
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Pool          *worker.Pool
	Feed          *feed.Client
	Ingestion     *service.IngestionService
}

// Close stops the pool and releases connections and exporters.
func (r *IngestionRuntime) Close(ctx context.Context) error {
	var errs []error
	if r.Pool != nil {
		if err := r.Pool.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown worker pool: %w", err))
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	}
	if err := r.Observability.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown observability: %w", err))
	}
	return errors.Join(errs...)
}

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	return database.Migrate(m.db)
}

// Plan lists pending schema changes without applying them.
func (m *MigrationRunner) Plan() ([]string, error) {
	return database.Plan(m.db)
}

func (m *MigrationRunner) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (m *MigrationRunner) ServiceName() string {
	return m.cfg.OTELServiceName
}

func (m *MigrationRunner) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.DBAutoMigrate {
		return db, nil
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideWorkerPool(cfg *config.Config, logger *slog.Logger) *worker.Pool {
	return worker.New(worker.Config{
		CoreWorkers:   cfg.WorkerCoreSize,
		MaxWorkers:    cfg.WorkerMaxSize,
		QueueCapacity: cfg.WorkerQueueCapacity,
	}, logger)
}

func provideProductCacheStore(cfg *config.Config, redisClient redis.UniversalClient) service.ProductCacheStore {
	switch cfg.CacheBackend {
	case "redis":
		if redisClient != nil {
			return service.NewRedisProductCacheStore(redisClient, "product_cache")
		}
		return service.NewInMemoryProductCacheStore()
	case "none":
		return service.NewNoopProductCacheStore()
	default:
		return service.NewInMemoryProductCacheStore()
	}
}

func provideProductQueryCache(cfg *config.Config, store service.ProductCacheStore, logger *slog.Logger) *service.ProductQueryCache {
	return service.NewProductQueryCache(store, cfg.CacheTTL, logger)
}

func provideFeedClient(cfg *config.Config, logger *slog.Logger) *feed.Client {
	return feed.NewClient(feed.Options{
		URL:          cfg.FeedURL,
		Timeout:      cfg.FeedTimeout,
		RateLimitRPS: cfg.FeedRateLimitRPS,
		MaxBodyBytes: cfg.FeedMaxBodyBytes,
	}, logger)
}

func provideResiliencePolicy(cfg *config.Config, logger *slog.Logger) *resilience.Policy {
	return resilience.NewPolicy(resilience.Config{
		Name:                 cfg.ResiliencePolicyName,
		MaxAttempts:          cfg.RetryMaxAttempts,
		InitialBackoff:       cfg.RetryInitialBackoff,
		MaxBackoff:           cfg.RetryMaxBackoff,
		Multiplier:           cfg.RetryMultiplier,
		Jitter:               0.2,
		FailureRateThreshold: cfg.BreakerFailureRate,
		MinimumCalls:         cfg.BreakerMinCalls,
		OpenTimeout:          cfg.BreakerOpenTimeout,
		HalfOpenMaxCalls:     cfg.BreakerHalfOpenCalls,
		Window:               cfg.BreakerWindow,
	}, service.NewIngestionFallback(logger), logger)
}

func provideIngestionOptions(cfg *config.Config) service.IngestionOptions {
	return service.IngestionOptions{
		BatchSize:    cfg.IngestBatchSize,
		ReingestMode: cfg.IngestReingestMode,
	}
}

func provideRouterDependencies(
	productHandler *handler.ProductHandler,
	ingestionHandler *handler.IngestionHandler,
	readiness *health.ProbeRunner,
	logger *slog.Logger,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		ProductHandler:   productHandler,
		IngestionHandler: ingestionHandler,
		Readiness:        readiness,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		BodyLimitBytes:   cfg.HTTPBodyLimit,
		Logger:           logger,
		EnableOTelHTTP:   cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	return health.NewProbeRunner(
		cfg.ReadinessProbeTimeout,
		cfg.ServerStartGracePeriod,
		health.NewDBChecker(db),
		health.NewRedisChecker(redisClient),
	)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	pool *worker.Pool,
	job *service.IngestionJob,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, pool, job)
}
