package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ReingestModeUpsert = "upsert"
	ReingestModeAppend = "append"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL        string
	DBDriver           string
	DBAutoMigrate      bool
	HTTPBodyLimit      int64
	CORSAllowedOrigins []string

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CacheBackend string
	CacheTTL     time.Duration

	FeedURL          string
	FeedTimeout      time.Duration
	FeedRateLimitRPS float64
	FeedMaxBodyBytes int64

	IngestOnStartup    bool
	IngestBatchSize    int
	IngestReingestMode string

	WorkerCoreSize      int
	WorkerMaxSize       int
	WorkerQueueCapacity int

	ResiliencePolicyName string
	RetryMaxAttempts     int
	RetryInitialBackoff  time.Duration
	RetryMaxBackoff      time.Duration
	RetryMultiplier      float64
	BreakerFailureRate   float64
	BreakerMinCalls      int
	BreakerOpenTimeout   time.Duration
	BreakerHalfOpenCalls int
	BreakerWindow        time.Duration

	ReadinessProbeTimeout        time.Duration
	ServerStartGracePeriod       time.Duration
	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:                env,
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBAutoMigrate:      getEnvBool("DB_AUTO_MIGRATE", true),
		HTTPBodyLimit:      int64(getEnvInt("HTTP_BODY_LIMIT_BYTES", 1<<20)),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheBackend:  strings.ToLower(getEnv("CACHE_BACKEND", "memory")),

		FeedURL:          getEnv("FEED_URL", "https://dummyjson.com/products?limit=0"),
		FeedRateLimitRPS: getEnvFloat("FEED_RATE_LIMIT_RPS", 2),
		FeedMaxBodyBytes: int64(getEnvInt("FEED_MAX_BODY_BYTES", 32<<20)),

		IngestOnStartup:    getEnvBool("INGEST_ON_STARTUP", true),
		IngestBatchSize:    getEnvInt("INGEST_BATCH_SIZE", 15),
		IngestReingestMode: strings.ToLower(getEnv("INGEST_REINGEST_MODE", ReingestModeUpsert)),

		WorkerCoreSize:      getEnvInt("WORKER_CORE_SIZE", 8),
		WorkerMaxSize:       getEnvInt("WORKER_MAX_SIZE", 15),
		WorkerQueueCapacity: getEnvInt("WORKER_QUEUE_CAPACITY", 50),

		ResiliencePolicyName: getEnv("RESILIENCE_POLICY_NAME", "productApi"),
		RetryMaxAttempts:     getEnvInt("RETRY_MAX_ATTEMPTS", 3),
		RetryMultiplier:      getEnvFloat("RETRY_MULTIPLIER", 2),
		BreakerFailureRate:   getEnvFloat("BREAKER_FAILURE_RATE", 0.5),
		BreakerMinCalls:      getEnvInt("BREAKER_MIN_CALLS", 5),
		BreakerHalfOpenCalls: getEnvInt("BREAKER_HALF_OPEN_CALLS", 1),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "product-catalog-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"CACHE_TTL", "5m", &cfg.CacheTTL},
		{"FEED_TIMEOUT", "30s", &cfg.FeedTimeout},
		{"RETRY_INITIAL_BACKOFF", "500ms", &cfg.RetryInitialBackoff},
		{"RETRY_MAX_BACKOFF", "5s", &cfg.RetryMaxBackoff},
		{"BREAKER_OPEN_TIMEOUT", "60s", &cfg.BreakerOpenTimeout},
		{"BREAKER_WINDOW", "60s", &cfg.BreakerWindow},
		{"READINESS_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "2s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.DBDriver != "postgres" && c.DBDriver != "sqlite" {
		errs = append(errs, "DB_DRIVER must be one of postgres, sqlite")
	}
	if c.DBDriver == "sqlite" && !isLocalLikeEnv(c.Env) {
		errs = append(errs, "DB_DRIVER=sqlite is only allowed in local-like environments")
	}
	switch c.CacheBackend {
	case "memory", "none":
	case "redis":
		if !c.RedisEnabled {
			errs = append(errs, "CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		errs = append(errs, "CACHE_BACKEND must be one of memory, redis, none")
	}
	if c.RedisEnabled && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when REDIS_ENABLED=true")
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, "CACHE_TTL must be > 0")
	}
	if c.FeedURL == "" {
		errs = append(errs, "FEED_URL is required")
	} else if !strings.HasPrefix(c.FeedURL, "http://") && !strings.HasPrefix(c.FeedURL, "https://") {
		errs = append(errs, "FEED_URL must be an http(s) URL")
	}
	if c.FeedTimeout <= 0 {
		errs = append(errs, "FEED_TIMEOUT must be > 0")
	}
	if c.FeedRateLimitRPS <= 0 {
		errs = append(errs, "FEED_RATE_LIMIT_RPS must be > 0")
	}
	if c.FeedMaxBodyBytes <= 0 {
		errs = append(errs, "FEED_MAX_BODY_BYTES must be > 0")
	}
	if c.IngestBatchSize <= 0 {
		errs = append(errs, "INGEST_BATCH_SIZE must be > 0")
	}
	if c.IngestReingestMode != ReingestModeUpsert && c.IngestReingestMode != ReingestModeAppend {
		errs = append(errs, "INGEST_REINGEST_MODE must be one of upsert, append")
	}
	if c.WorkerCoreSize <= 0 {
		errs = append(errs, "WORKER_CORE_SIZE must be > 0")
	}
	if c.WorkerMaxSize < c.WorkerCoreSize {
		errs = append(errs, "WORKER_MAX_SIZE must be >= WORKER_CORE_SIZE")
	}
	if c.WorkerQueueCapacity < 0 {
		errs = append(errs, "WORKER_QUEUE_CAPACITY must be >= 0")
	}
	if c.ResiliencePolicyName == "" {
		errs = append(errs, "RESILIENCE_POLICY_NAME is required")
	}
	if c.RetryMaxAttempts <= 0 {
		errs = append(errs, "RETRY_MAX_ATTEMPTS must be > 0")
	}
	if c.RetryInitialBackoff <= 0 || c.RetryMaxBackoff < c.RetryInitialBackoff {
		errs = append(errs, "RETRY_INITIAL_BACKOFF must be > 0 and <= RETRY_MAX_BACKOFF")
	}
	if c.RetryMultiplier < 1 {
		errs = append(errs, "RETRY_MULTIPLIER must be >= 1")
	}
	if c.BreakerFailureRate <= 0 || c.BreakerFailureRate > 1 {
		errs = append(errs, "BREAKER_FAILURE_RATE must be in (0, 1]")
	}
	if c.BreakerMinCalls <= 0 {
		errs = append(errs, "BREAKER_MIN_CALLS must be > 0")
	}
	if c.BreakerOpenTimeout <= 0 {
		errs = append(errs, "BREAKER_OPEN_TIMEOUT must be > 0")
	}
	if c.BreakerHalfOpenCalls <= 0 {
		errs = append(errs, "BREAKER_HALF_OPEN_CALLS must be > 0")
	}
	if c.BreakerWindow < 0 {
		errs = append(errs, "BREAKER_WINDOW must be >= 0")
	}
	if c.HTTPBodyLimit <= 0 {
		errs = append(errs, "HTTP_BODY_LIMIT_BYTES must be > 0")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_TIMEOUT must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.ShutdownHTTPDrainTimeout <= 0 || c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must be > 0 and <= SHUTDOWN_TIMEOUT")
	}
	if c.ShutdownObservabilityTimeout <= 0 || c.ShutdownObservabilityTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_OBSERVABILITY_TIMEOUT must be > 0 and <= SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func isLocalLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
