// Package feed fetches the upstream product feed.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/resilience"
)

var (
	ErrUpstreamStatus = errors.New("feed upstream returned non-success status")
	ErrBodyTooLarge   = errors.New("feed body exceeds size limit")
)

type Options struct {
	URL          string
	Timeout      time.Duration
	RateLimitRPS float64
	MaxBodyBytes int64
}

type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 32 << 20
	}
	limit := rate.Inf
	if opts.RateLimitRPS > 0 {
		limit = rate.Limit(opts.RateLimitRPS)
	}
	return &Client{
		opts: opts,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  observability.WithComponent(logger, "feed_client"),
	}
}

// Fetch performs one GET against the feed. An empty body, a missing products
// field and an empty list all yield (nil, nil). 4xx responses other than 408
// and 429 are marked permanent so retry policies give up on them.
func (c *Client) Fetch(ctx context.Context) (products []domain.ProductTransfer, err error) {
	ctx, span := observability.Tracer().Start(ctx, "feed.fetch", trace.WithAttributes(attribute.String("feed.url", c.opts.URL)))
	start := time.Now()
	status := "error"
	defer func() {
		observability.RecordFeedFetch(ctx, status, time.Since(start))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("feed.products", len(products)))
		}
		span.End()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for feed rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL, nil)
	if err != nil {
		return nil, resilience.Permanent(fmt.Errorf("build feed request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
		if isPermanentStatus(resp.StatusCode) {
			return nil, resilience.Permanent(statusErr)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	if int64(len(body)) > c.opts.MaxBodyBytes {
		return nil, resilience.Permanent(fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, c.opts.MaxBodyBytes))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.logger.WarnContext(ctx, "feed returned empty body")
		return nil, nil
	}

	var envelope domain.FeedEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, resilience.Permanent(fmt.Errorf("decode feed body: %w", err))
	}
	if len(envelope.Products) == 0 {
		c.logger.InfoContext(ctx, "feed returned no products")
		return nil, nil
	}
	c.logger.InfoContext(ctx, "feed fetched", "products", len(envelope.Products), "duration", time.Since(start).String())
	return envelope.Products, nil
}

func isPermanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}
