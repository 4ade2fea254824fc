// Package resilience wraps calls to flaky dependencies in retry with
// exponential backoff and a failure-rate circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"github.com/sandeepkv93/product-catalog-service/internal/observability"
)

// ErrFallback marks an outcome where the operation never succeeded and the
// fallback ran in its place.
var ErrFallback = errors.New("resilience fallback invoked")

type Config struct {
	Name string

	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Jitter is the backoff randomization factor in [0, 1).
	Jitter float64

	FailureRateThreshold float64
	MinimumCalls         int
	OpenTimeout          time.Duration
	HalfOpenMaxCalls     int
	// Window resets closed-state counts periodically. Zero keeps counts
	// until the next state change.
	Window time.Duration
}

// FallbackFunc runs once the operation is abandoned.
type FallbackFunc func(ctx context.Context, cause error)

type Policy struct {
	cfg      Config
	breaker  *gobreaker.CircuitBreaker
	fallback FallbackFunc
	logger   *slog.Logger
}

func NewPolicy(cfg Config, fallback FallbackFunc, logger *slog.Logger) *Policy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.MinimumCalls <= 0 {
		cfg.MinimumCalls = 1
	}
	logger = observability.WithComponent(logger, "resilience").With("policy", cfg.Name)

	p := &Policy{cfg: cfg, fallback: fallback, logger: logger}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(max(cfg.HalfOpenMaxCalls, 1)),
		Interval:    cfg.Window,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.MinimumCalls) {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRateThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
			observability.RecordBreakerTransition(context.Background(), name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return p
}

// Execute runs op under the breaker, retrying failures with backoff. An open
// breaker or a Permanent error stops retrying. When op never succeeds the
// fallback runs and the returned error wraps both ErrFallback and the cause.
// Cancellation of ctx is returned as is without invoking the fallback.
func (p *Policy) Execute(ctx context.Context, op func(context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.InitialBackoff
	bo.MaxInterval = p.cfg.MaxBackoff
	bo.Multiplier = p.cfg.Multiplier
	bo.RandomizationFactor = p.cfg.Jitter

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		_, err := p.breaker.Execute(func() (interface{}, error) {
			return nil, op(ctx)
		})
		if err == nil {
			return struct{}{}, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(p.cfg.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			observability.RecordRetryAttempt(ctx, p.cfg.Name)
			p.logger.WarnContext(ctx, "attempt failed, retrying", "attempt", attempt, "backoff", next.String(), "error", err)
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}

	p.logger.ErrorContext(ctx, "operation abandoned, running fallback", "attempts", attempt, "error", err)
	if p.fallback != nil {
		p.fallback(ctx, err)
	}
	return fmt.Errorf("%w: %w", ErrFallback, err)
}

func (p *Policy) State() string {
	return p.breaker.State().String()
}

func (p *Policy) Name() string {
	return p.cfg.Name
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
