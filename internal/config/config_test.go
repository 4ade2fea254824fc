package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                          "development",
		HTTPPort:                     "8080",
		DatabaseURL:                  "postgres://x",
		DBDriver:                     "postgres",
		HTTPBodyLimit:                1 << 20,
		CacheBackend:                 "memory",
		CacheTTL:                     5 * time.Minute,
		FeedURL:                      "https://feed.example.com/products",
		FeedTimeout:                  30 * time.Second,
		FeedRateLimitRPS:             2,
		FeedMaxBodyBytes:             1 << 20,
		IngestBatchSize:              15,
		IngestReingestMode:           ReingestModeUpsert,
		WorkerCoreSize:               8,
		WorkerMaxSize:                15,
		WorkerQueueCapacity:          50,
		ResiliencePolicyName:         "productApi",
		RetryMaxAttempts:             3,
		RetryInitialBackoff:          500 * time.Millisecond,
		RetryMaxBackoff:              5 * time.Second,
		RetryMultiplier:              2,
		BreakerFailureRate:           0.5,
		BreakerMinCalls:              5,
		BreakerOpenTimeout:           time.Minute,
		BreakerHalfOpenCalls:         1,
		BreakerWindow:                time.Minute,
		ReadinessProbeTimeout:        time.Second,
		ShutdownTimeout:              20 * time.Second,
		ShutdownHTTPDrainTimeout:     10 * time.Second,
		ShutdownObservabilityTimeout: 8 * time.Second,
		OTELExporterOTLPEndpoint:     "localhost:4317",
		OTELTraceSamplingRatio:       1.0,
		OTELMetricsExportInterval:    10 * time.Second,
		OTELLogLevel:                 "info",
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.FeedURL = "ftp://feed"
	cfg.WorkerMaxSize = 4
	cfg.IngestReingestMode = "replace"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"FEED_URL", "WORKER_MAX_SIZE", "INGEST_REINGEST_MODE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidateRedisCacheRequiresRedis(t *testing.T) {
	cfg := validConfig()
	cfg.CacheBackend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected redis backend without redis to fail")
	}
	cfg.RedisEnabled = true
	cfg.RedisAddr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected redis backend to validate, got %v", err)
	}
}

func TestValidateSQLiteOnlyInLocalEnvironments(t *testing.T) {
	cfg := validConfig()
	cfg.DBDriver = "sqlite"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected sqlite in development to pass: %v", err)
	}
	cfg.Env = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected sqlite in production to fail")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("APP_ENV", "test")
	t.Setenv("INGEST_BATCH_SIZE", "20")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IngestBatchSize != 20 {
		t.Fatalf("expected batch size 20, got %d", cfg.IngestBatchSize)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Fatalf("expected cache ttl 90s, got %s", cfg.CacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.WorkerCoreSize != 8 || cfg.WorkerMaxSize != 15 || cfg.WorkerQueueCapacity != 50 {
		t.Fatalf("unexpected worker defaults %d/%d/%d", cfg.WorkerCoreSize, cfg.WorkerMaxSize, cfg.WorkerQueueCapacity)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("FEED_TIMEOUT", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "FEED_TIMEOUT") {
		t.Fatalf("expected FEED_TIMEOUT parse error, got %v", err)
	}
}
