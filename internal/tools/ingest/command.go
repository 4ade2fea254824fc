package ingest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-catalog-service/internal/config"
	"github.com/sandeepkv93/product-catalog-service/internal/di"
	"github.com/sandeepkv93/product-catalog-service/internal/domain"
	"github.com/sandeepkv93/product-catalog-service/internal/feed"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/service"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/ui"
)

type options struct {
	envFile string
	feedURL string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "ingest", Short: "Product feed ingestion tooling"}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().StringVar(&opts.feedURL, "feed-url", "", "override FEED_URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts), newFetchCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch the feed and persist it once",
		Long: `Fetch the feed and persist it once.

The run invalidates the query cache of this process only. A running API
server sees the new data at once when both use CACHE_BACKEND=redis; with
the memory backend it keeps serving cached lists until CACHE_TTL expires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "ingest run", func(ctx context.Context) ([]string, error) {
				rt, err := di.InitializeIngestion()
				if err != nil {
					return nil, err
				}
				defer func() { _ = rt.Close(context.Background()) }()

				result, err := rt.Ingestion.Run(ctx)
				details := summarizeResult(result)
				if notice := cacheNotice(rt.Config.CacheBackend, rt.Config.CacheTTL); notice != "" {
					rt.Logger.WarnContext(ctx, notice)
					details = append(details, "cache="+notice)
				}
				if err != nil {
					return details, err
				}
				if result.BatchesFailed > 0 {
					return details, fmt.Errorf("%d of %d batches failed", result.BatchesFailed, result.Batches)
				}
				return details, nil
			})
		},
	}
}

func newFetchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the feed and report it without persisting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "ingest fetch", func(ctx context.Context) ([]string, error) {
				cfg, err := config.Load()
				if err != nil {
					return nil, err
				}
				client := feed.NewClient(feed.Options{
					URL:          cfg.FeedURL,
					Timeout:      cfg.FeedTimeout,
					RateLimitRPS: cfg.FeedRateLimitRPS,
					MaxBodyBytes: cfg.FeedMaxBodyBytes,
				}, observability.NewBootstrapLogger(cfg))
				products, err := client.Fetch(ctx)
				if err != nil {
					return nil, err
				}
				return summarizeFeed(cfg.FeedURL, products, cfg.IngestBatchSize), nil
			})
		},
	}
}

func execute(opts *options, title string, fn func(context.Context) ([]string, error)) error {
	details, err := run(opts, title, func(ctx context.Context) ([]string, error) {
		if err := common.LoadEnvFile(opts.envFile); err != nil {
			return nil, err
		}
		if opts.feedURL != "" {
			if err := os.Setenv("FEED_URL", opts.feedURL); err != nil {
				return nil, err
			}
		}
		return fn(ctx)
	})
	observability.RecordToolCommandRun(context.Background(), "ingest", title, common.Outcome(err))
	if opts.ci {
		common.PrintCIResult(err == nil, title, details, err)
	}
	if err != nil {
		os.Exit(3)
	}
	return nil
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	if opts.ci {
		return fn(ctx)
	}
	return ui.Run(ctx, title, fn)
}

func summarizeResult(result service.IngestionResult) []string {
	return []string{
		"run_id=" + result.RunID,
		fmt.Sprintf("fetched=%d", result.Fetched),
		fmt.Sprintf("batches=%d", result.Batches),
		fmt.Sprintf("batches_succeeded=%d", result.BatchesSucceeded),
		fmt.Sprintf("batches_failed=%d", result.BatchesFailed),
		fmt.Sprintf("records_persisted=%d", result.RecordsPersisted),
		"duration=" + result.Duration.Round(time.Millisecond).String(),
	}
}

// cacheNotice explains when an API server's cache will not see this run.
func cacheNotice(backend string, ttl time.Duration) string {
	switch backend {
	case "redis", "none":
		return ""
	default:
		return fmt.Sprintf("%s backend is per process; running API servers refresh after CACHE_TTL=%s", backend, ttl)
	}
}

func summarizeFeed(url string, products []domain.ProductTransfer, batchSize int) []string {
	if batchSize <= 0 {
		batchSize = service.DefaultIngestBatchSize
	}
	categories := map[string]int{}
	skus := map[string]struct{}{}
	duplicates := 0
	for _, p := range products {
		categories[p.Category]++
		if _, seen := skus[p.SKU]; seen {
			duplicates++
			continue
		}
		skus[p.SKU] = struct{}{}
	}
	details := []string{
		"feed=" + url,
		fmt.Sprintf("products=%d", len(products)),
		fmt.Sprintf("batches=%d", (len(products)+batchSize-1)/batchSize),
		fmt.Sprintf("duplicate_skus=%d", duplicates),
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		details = append(details, fmt.Sprintf("category %s=%d", name, categories[name]))
	}
	return details
}
