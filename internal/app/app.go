package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/product-catalog-service/internal/config"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/service"
	"github.com/sandeepkv93/product-catalog-service/internal/worker"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Pool          *worker.Pool
	Ingestion     *service.IngestionJob

	IngestOnStartup              bool
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	pool *worker.Pool,
	job *service.IngestionJob,
) *App {
	return &App{
		Config:                       cfg,
		Logger:                       logger,
		Server:                       server,
		Observability:                runtime,
		DB:                           db,
		Redis:                        redisClient,
		Pool:                         pool,
		Ingestion:                    job,
		IngestOnStartup:              cfg.IngestOnStartup,
		ShutdownTimeout:              cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout:     cfg.ShutdownHTTPDrainTimeout,
		ShutdownObservabilityTimeout: cfg.ShutdownObservabilityTimeout,
	}
}

// Run serves HTTP until ctx is cancelled or the server fails. The startup
// ingestion is launched once the listener is bound and runs under ctx, so a
// shutdown signal also cancels it.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Server.Addr, err)
	}
	a.Logger.Info("server starting", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if a.IngestOnStartup && a.Ingestion != nil {
		if err := a.Ingestion.Start(ctx); err != nil {
			a.Logger.Error("failed to start startup ingestion", "error", err)
		}
	}

	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	}
}

// Shutdown drains HTTP first, then the ingestion run and the worker pool,
// then flushes telemetry and closes connections. Each stage is bounded by
// its own timeout within ShutdownTimeout.
func (a *App) Shutdown(ctx context.Context) error {
	total := a.ShutdownTimeout
	if total <= 0 {
		total = 20 * time.Second
	}
	totalCtx, totalCancel := context.WithTimeout(ctx, total)
	defer totalCancel()

	var errs []error

	httpTimeout := a.ShutdownHTTPDrainTimeout
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	httpCtx, httpCancel := context.WithTimeout(totalCtx, httpTimeout)
	if err := a.Server.Shutdown(httpCtx); err != nil {
		a.Logger.Error("failed to shutdown http server", "error", err)
		errs = append(errs, err)
	}
	httpCancel()

	// A run still in flight was cancelled with Run's ctx; let it finish
	// before its batch tasks lose the pool.
	if a.Ingestion != nil {
		if _, err := a.Ingestion.Wait(totalCtx); err != nil {
			a.Logger.Error("ingestion did not stop before shutdown deadline", "error", err)
			errs = append(errs, err)
		}
	}

	if a.Pool != nil {
		if err := a.Pool.Shutdown(totalCtx); err != nil {
			a.Logger.Error("failed to drain worker pool", "error", err)
			errs = append(errs, err)
		}
	}

	if a.Observability != nil {
		obsTimeout := a.ShutdownObservabilityTimeout
		if obsTimeout <= 0 {
			obsTimeout = 8 * time.Second
		}
		obsCtx, obsCancel := context.WithTimeout(totalCtx, obsTimeout)
		if err := a.Observability.Shutdown(obsCtx); err != nil {
			a.Logger.Error("failed to shutdown observability", "error", err)
			errs = append(errs, err)
		}
		obsCancel()
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.Logger.Error("failed to close database connection", "error", err)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
