package migrate

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/product-catalog-service/internal/di"
	"github.com/sandeepkv93/product-catalog-service/internal/observability"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/common"
	"github.com/sandeepkv93/product-catalog-service/internal/tools/ui"
)

type options struct {
	envFile string
	timeout time.Duration
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tooling",
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")

	cmd.AddCommand(
		newUpCommand(opts),
		newStatusCommand(opts),
		newPlanCommand(opts),
	)
	return cmd
}

func newUpCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "migrate up", func(ctx context.Context, runner *di.MigrationRunner) ([]string, error) {
				if err := runner.Run(); err != nil {
					return nil, err
				}
				return []string{"schema migration applied", "database: connected", "service: " + runner.ServiceName()}, nil
			})
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check migration prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "migrate status", func(ctx context.Context, runner *di.MigrationRunner) ([]string, error) {
				if err := runner.Ping(ctx); err != nil {
					return nil, fmt.Errorf("db ping: %w", err)
				}
				pending, err := runner.Plan()
				if err != nil {
					return nil, err
				}
				state := "migrations: up to date"
				if len(pending) > 0 {
					state = fmt.Sprintf("migrations: %d pending change(s)", len(pending))
				}
				return []string{"database reachable", "service: " + runner.ServiceName(), state}, nil
			})
		},
	}
}

func newPlanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show migration plan (dry-run)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(opts, "migrate plan", func(ctx context.Context, runner *di.MigrationRunner) ([]string, error) {
				if err := runner.Ping(ctx); err != nil {
					return nil, fmt.Errorf("db ping: %w", err)
				}
				pending, err := runner.Plan()
				if err != nil {
					return nil, err
				}
				if len(pending) == 0 {
					return []string{"schema up to date", "no mutation executed in plan mode"}, nil
				}
				return append(pending, "no mutation executed in plan mode"), nil
			})
		},
	}
}

func execute(opts *options, title string, fn func(context.Context, *di.MigrationRunner) ([]string, error)) error {
	details, err := run(opts, title, func(ctx context.Context) ([]string, error) {
		if err := common.LoadEnvFile(opts.envFile); err != nil {
			return nil, err
		}
		runner, err := di.InitializeMigrationRunner()
		if err != nil {
			return nil, err
		}
		defer func() { _ = runner.Close() }()
		return fn(ctx, runner)
	})
	observability.RecordToolCommandRun(context.Background(), "migrate", title, common.Outcome(err))
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
