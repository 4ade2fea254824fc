package loadgen

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/ui"
)

type options struct {
	Config
	readyTimeout time.Duration
	max5xxRatio  float64
	ci           bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "loadgen", Short: "Replay catalog read traffic against a running service"}
	f := cmd.PersistentFlags()
	f.StringVar(&opts.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	f.StringVar(&opts.Profile, "profile", ProfileBrowse, "traffic profile: browse|search|error-heavy")
	f.DurationVar(&opts.Duration, "duration", 15*time.Second, "traffic duration")
	f.IntVar(&opts.RPS, "rps", 20, "requests per second")
	f.IntVar(&opts.Concurrency, "concurrency", 6, "concurrent workers")
	f.Int64Var(&opts.Seed, "seed", 42, "random seed for endpoint selection")
	f.DurationVar(&opts.readyTimeout, "ready-timeout", 0, "wait up to this long for /health/ready before sending traffic; 0 skips the wait")
	f.Float64Var(&opts.max5xxRatio, "max-5xx-ratio", 1, "fail when the share of 5xx responses exceeds this ratio")
	f.BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run load generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			const title = "loadgen run"
			ctx, cancel := context.WithTimeout(context.Background(), opts.readyTimeout+opts.Duration+15*time.Second)
			defer cancel()

			action := func(ctx context.Context) ([]string, error) {
				if opts.readyTimeout > 0 {
					if err := waitReady(ctx, opts.BaseURL, opts.readyTimeout); err != nil {
						return nil, err
					}
				}
				res, err := Run(ctx, opts.Config)
				if err != nil {
					return nil, err
				}
				return summarize(res), checkThresholds(res, opts.max5xxRatio)
			}

			var (
				details []string
				err     error
			)
			if opts.ci {
				details, err = action(ctx)
			} else {
				details, err = ui.Run(ctx, title, action)
			}
			observability.RecordToolCommandRun(context.Background(), "loadgen", title, common.Outcome(err))
			if opts.ci {
				common.PrintCIResult(err == nil, title, details, err)
			}
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
}

func summarize(res Result) []string {
	return []string{
		fmt.Sprintf("total_requests=%d", res.TotalRequests),
		fmt.Sprintf("failures=%d", res.Failures),
		fmt.Sprintf("status_2xx=%d", res.Status2xx),
		fmt.Sprintf("status_4xx=%d", res.Status4xx),
		fmt.Sprintf("status_5xx=%d", res.Status5xx),
	}
}

// checkThresholds fails a run that produced no responses or whose 5xx share
// exceeds maxRatio.
func checkThresholds(res Result, maxRatio float64) error {
	if res.TotalRequests == 0 {
		return fmt.Errorf("no responses received (%d transport failures)", res.Failures)
	}
	ratio := float64(res.Status5xx) / float64(res.TotalRequests)
	if ratio > maxRatio {
		return fmt.Errorf("5xx ratio %.3f exceeds %.3f", ratio, maxRatio)
	}
	return nil
}

// waitReady polls the readiness endpoint until it answers 200 or timeout
// elapses. The startup ingestion makes the catalog empty until it finishes.
func waitReady(ctx context.Context, baseURL string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health/ready", nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service at %s not ready after %s", baseURL, timeout)
		case <-ticker.C:
		}
	}
}
