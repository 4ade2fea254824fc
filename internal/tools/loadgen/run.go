package loadgen

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	ProfileBrowse     = "browse"
	ProfileSearch     = "search"
	ProfileErrorHeavy = "error-heavy"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
}

type counters struct {
	total, failures, s2xx, s4xx, s5xx atomic.Int64
}

func (c *counters) observe(status int) {
	c.total.Add(1)
	switch {
	case status >= 500:
		c.s5xx.Add(1)
	case status >= 400:
		c.s4xx.Add(1)
	case status >= 200 && status < 300:
		c.s2xx.Add(1)
	}
}

func (c *counters) result() Result {
	return Result{
		TotalRequests: c.total.Load(),
		Failures:      c.failures.Load(),
		Status2xx:     c.s2xx.Load(),
		Status4xx:     c.s4xx.Load(),
		Status5xx:     c.s5xx.Load(),
	}
}

// Run sends GET requests drawn from the profile's endpoints at cfg.RPS until
// cfg.Duration elapses. Endpoint order is reproducible for a given seed.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	endpoints := endpointsForProfile(cfg.Profile)
	if len(endpoints) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	jobs := make(chan string, cfg.Concurrency*2)
	var c counters

	var g errgroup.Group
	for range cfg.Concurrency {
		g.Go(func() error {
			for path := range jobs {
				status, err := get(ctx, client, cfg.BaseURL+path)
				if err != nil {
					c.failures.Add(1)
					continue
				}
				c.observe(status)
			}
			return nil
		})
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), 0))
	for limiter.Wait(ctx) == nil {
		select {
		case jobs <- endpoints[rng.IntN(len(endpoints))]:
		case <-ctx.Done():
		}
	}
	close(jobs)
	_ = g.Wait()
	return c.result(), nil
}

func get(ctx context.Context, client *http.Client, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func endpointsForProfile(profile string) []string {
	switch strings.ToLower(profile) {
	case "", ProfileBrowse:
		return []string{
			"/api/v1/products",
			"/api/v1/products?category=beauty",
			"/api/v1/products?category=groceries",
			"/api/v1/products/categories",
			"/api/v1/products/sorted?direction=asc",
			"/api/v1/products/1",
		}
	case ProfileSearch:
		return []string{
			"/api/v1/products?searchTerm=mascara",
			"/api/v1/products?searchTerm=apple&sortOrder=desc",
			"/api/v1/products?category=fragrances&sortOrder=asc",
			"/api/v1/products?category=beauty&searchTerm=lip",
		}
	case ProfileErrorHeavy:
		return []string{
			"/api/v1/products/999999",
			"/api/v1/products/0",
			"/api/v1/products/sorted?direction=sideways",
			"/api/v1/products?category=",
			"/api/v1/products/sku/UNKNOWN-SKU",
		}
	default:
		return nil
	}
}
