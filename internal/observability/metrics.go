package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/product-catalog-service/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

const meterName = "product-catalog-service"

type AppMetrics struct {
	productOperationCounter  metric.Int64Counter
	productOperationDuration metric.Float64Histogram
	repositoryOpsCounter     metric.Int64Counter
	cacheEventCounter        metric.Int64Counter
	ingestionRunCounter      metric.Int64Counter
	ingestionRunDuration     metric.Float64Histogram
	ingestionBatchCounter    metric.Int64Counter
	ingestionRecordsCounter  metric.Int64Counter
	feedFetchDuration        metric.Float64Histogram
	breakerTransitionCounter metric.Int64Counter
	retryAttemptCounter      metric.Int64Counter
	workerTaskCounter        metric.Int64Counter
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
	toolCommandRuns          metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

var latencyBoundaries = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	histogramView := func(name string) sdkmetric.View {
		return sdkmetric.NewView(
			sdkmetric.Instrument{Name: name},
			sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: latencyBoundaries}},
		)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(
			histogramView("product.operation.duration"),
			histogramView("ingestion.run.duration"),
			histogramView("feed.fetch.duration"),
		),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint, "interval", cfg.OTELMetricsExportInterval.String())
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var firstErr error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("create counter %s: %w", name, err)
		}
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithUnit("s"), metric.WithDescription(desc))
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("create histogram %s: %w", name, err)
		}
		return h
	}

	m := &AppMetrics{
		productOperationCounter:  counter("product.operation.events", "Product query operations by outcome"),
		productOperationDuration: seconds("product.operation.duration", "Duration of product query operations"),
		repositoryOpsCounter:     counter("repository.operations", "Repository operations by outcome"),
		cacheEventCounter:        counter("cache.events", "Query cache events"),
		ingestionRunCounter:      counter("ingestion.runs", "Feed ingestion runs by outcome"),
		ingestionRunDuration:     seconds("ingestion.run.duration", "Duration of feed ingestion runs"),
		ingestionBatchCounter:    counter("ingestion.batches", "Persisted ingestion batches by outcome"),
		ingestionRecordsCounter:  counter("ingestion.records", "Records persisted by ingestion"),
		feedFetchDuration:        seconds("feed.fetch.duration", "Duration of upstream feed fetches"),
		breakerTransitionCounter: counter("resilience.breaker.transitions", "Circuit breaker state transitions"),
		retryAttemptCounter:      counter("resilience.retry.attempts", "Retried attempts by policy"),
		workerTaskCounter:        counter("worker.tasks", "Worker pool task admissions"),
		healthCheckResultCounter: counter("health.check.results", "Health check results"),
		healthCheckDuration:      seconds("health.check.duration", "Health check duration"),
		toolCommandRuns:          counter("tool.command.runs", "CLI tool command runs"),
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return m, nil
}

func currentMetrics() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordProductOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.productOperationCounter.Add(ctx, 1, attrs)
	m.productOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

func RecordRepositoryOperation(ctx context.Context, repository, operation, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.repositoryOpsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

// RecordCacheEvent outcome is one of hit, miss, shared, set, error, invalidate.
func RecordCacheEvent(ctx context.Context, namespace, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.cacheEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("namespace", namespace),
		attribute.String("outcome", outcome),
	))
}

func RecordIngestionRun(ctx context.Context, outcome string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.ingestionRunCounter.Add(ctx, 1, attrs)
	m.ingestionRunDuration.Record(ctx, duration.Seconds(), attrs)
}

func RecordIngestionBatch(ctx context.Context, outcome string, records int) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.ingestionBatchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == "success" && records > 0 {
		m.ingestionRecordsCounter.Add(ctx, int64(records))
	}
}

func RecordFeedFetch(ctx context.Context, status string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.feedFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

func RecordBreakerTransition(ctx context.Context, policy, from, to string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.breakerTransitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("policy", policy),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func RecordRetryAttempt(ctx context.Context, policy string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.retryAttemptCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", policy)))
}

// RecordWorkerTask admission is one of queued, overflow, caller_runs, rejected.
func RecordWorkerTask(ctx context.Context, admission string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.workerTaskCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("admission", admission)))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("check", check)))
}

func RecordToolCommandRun(ctx context.Context, tool, command, outcome string) {
	m := currentMetrics()
	if m == nil {
		return
	}
	m.toolCommandRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}
