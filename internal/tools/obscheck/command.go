package obscheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/loadgen"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/ui"
)

// exemplarMetric is the Prometheus name of the product.operation.duration
// histogram, which carries trace exemplars for catalog reads.
const exemplarMetric = "product_operation_duration_seconds_bucket"

// catalogSeries must have samples for the service once it has ingested the
// feed and served cached reads.
var catalogSeries = []string{"ingestion_runs_total", "cache_events_total"}

type datasources struct {
	prometheus int
	loki       int
	tempo      int
}

type options struct {
	grafanaURL      string
	grafanaUser     string
	grafanaPassword string
	serviceName     string
	window          time.Duration
	settle          time.Duration
	ds              datasources
	baseURL         string
	ci              bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "obscheck", Short: "Verify catalog metrics, traces and log correlation in Grafana"}
	f := cmd.PersistentFlags()
	f.StringVar(&opts.grafanaURL, "grafana-url", "http://localhost:3000", "Grafana base URL")
	f.StringVar(&opts.grafanaUser, "grafana-user", "admin", "Grafana username")
	f.StringVar(&opts.grafanaPassword, "grafana-password", "admin", "Grafana password")
	f.StringVar(&opts.serviceName, "service-name", "product-catalog-service", "OTel service name")
	f.DurationVar(&opts.window, "window", 20*time.Minute, "query lookback window")
	f.DurationVar(&opts.settle, "settle", 8*time.Second, "wait after traffic for exporters to flush")
	f.IntVar(&opts.ds.prometheus, "prometheus-datasource", 1, "Grafana datasource id for Prometheus")
	f.IntVar(&opts.ds.loki, "loki-datasource", 2, "Grafana datasource id for Loki")
	f.IntVar(&opts.ds.tempo, "tempo-datasource", 3, "Grafana datasource id for Tempo")
	f.StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL for traffic")
	f.BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate catalog traffic, then follow an exemplar to its trace and logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			const title = "obscheck run"
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
			defer cancel()

			var (
				details []string
				err     error
			)
			if opts.ci {
				details, err = check(ctx, *opts)
			} else {
				details, err = ui.Run(ctx, title, func(ctx context.Context) ([]string, error) { return check(ctx, *opts) })
			}
			observability.RecordToolCommandRun(context.Background(), "obscheck", title, common.Outcome(err))
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

func check(ctx context.Context, opts options) ([]string, error) {
	res, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:     opts.baseURL,
		Profile:     loadgen.ProfileBrowse,
		Duration:    6 * time.Second,
		RPS:         20,
		Concurrency: 6,
		Seed:        42,
	})
	if err != nil {
		return nil, err
	}
	details := []string{fmt.Sprintf("traffic total=%d failures=%d", res.TotalRequests, res.Failures)}

	select {
	case <-ctx.Done():
		return details, ctx.Err()
	case <-time.After(opts.settle):
	}

	for _, series := range catalogSeries {
		if err := verifySeries(ctx, opts, series); err != nil {
			return details, err
		}
		details = append(details, "series "+series+": ok")
	}

	traceID, err := fetchTraceIDFromExemplar(ctx, opts)
	if err != nil {
		return details, err
	}
	details = append(details, "exemplar trace_id="+traceID)

	if err := verifyTempoTrace(ctx, opts, traceID); err != nil {
		return details, err
	}
	details = append(details, "tempo trace lookup: ok")

	if err := verifyLokiTraceLogs(ctx, opts, traceID); err != nil {
		return details, err
	}
	details = append(details, "loki trace correlation: ok")
	return details, nil
}

func grafanaGET(ctx context.Context, opts options, path string) ([]byte, error) {
	u, err := url.Parse(opts.grafanaURL)
	if err != nil {
		return nil, err
	}
	rel, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u.Path = strings.TrimRight(u.Path, "/") + rel.Path
	u.RawQuery = rel.RawQuery
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(opts.grafanaUser, opts.grafanaPassword)
	resp, err := (&http.Client{Timeout: 20 * time.Second}).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("grafana %s: %s", rel.Path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func proxyPath(id int, path string) string {
	return fmt.Sprintf("/api/datasources/proxy/%d%s", id, path)
}

// verifySeries runs an instant Prometheus query for the metric scoped to the
// service and fails when it returns no samples.
func verifySeries(ctx context.Context, opts options, metric string) error {
	q := url.QueryEscape(fmt.Sprintf("%s{service_name=%q}", metric, opts.serviceName))
	body, err := grafanaGET(ctx, opts, proxyPath(opts.ds.prometheus, "/api/v1/query?query="+q))
	if err != nil {
		return err
	}
	var payload struct {
		Data struct {
			Result []json.RawMessage `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	if len(payload.Data.Result) == 0 {
		return fmt.Errorf("no samples for %s on service %s", metric, opts.serviceName)
	}
	return nil
}

func fetchTraceIDFromExemplar(ctx context.Context, opts options) (string, error) {
	end := time.Now()
	path := fmt.Sprintf("/api/v1/query_exemplars?query=%s&start=%d&end=%d", exemplarMetric, end.Add(-opts.window).Unix(), end.Unix())
	body, err := grafanaGET(ctx, opts, proxyPath(opts.ds.prometheus, path))
	if err != nil {
		return "", err
	}
	return traceIDFromExemplars(body)
}

func traceIDFromExemplars(body []byte) (string, error) {
	var payload struct {
		Data []struct {
			Exemplars []struct {
				Labels map[string]string `json:"labels"`
			} `json:"exemplars"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	for _, series := range payload.Data {
		for _, e := range series.Exemplars {
			if tid := e.Labels["trace_id"]; len(tid) == 32 {
				return tid, nil
			}
		}
	}
	return "", fmt.Errorf("no trace_id exemplar found for %s", exemplarMetric)
}

func verifyTempoTrace(ctx context.Context, opts options, traceID string) error {
	body, err := grafanaGET(ctx, opts, proxyPath(opts.ds.tempo, "/api/traces/"+traceID))
	if err != nil {
		return err
	}
	var payload struct {
		Batches []json.RawMessage `json:"batches"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	if len(payload.Batches) == 0 {
		return fmt.Errorf("tempo trace %s has no batches", traceID)
	}
	return nil
}

func verifyLokiTraceLogs(ctx context.Context, opts options, traceID string) error {
	end := time.Now()
	q := url.QueryEscape(fmt.Sprintf("{service_name=%q} |= \"trace_id=%s\"", opts.serviceName, traceID))
	path := fmt.Sprintf("/loki/api/v1/query_range?query=%s&start=%d&end=%d&limit=1&direction=backward",
		q, end.Add(-opts.window).UnixNano(), end.UnixNano())
	body, err := grafanaGET(ctx, opts, proxyPath(opts.ds.loki, path))
	if err != nil {
		return err
	}
	var payload struct {
		Data struct {
			Result []json.RawMessage `json:"result"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	if len(payload.Data.Result) == 0 {
		return fmt.Errorf("no correlated loki logs found for trace_id %s", traceID)
	}
	return nil
}
