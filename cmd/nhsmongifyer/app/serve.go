package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/panevka/nhsmongifyer/internal/ingest"
	"github.com/panevka/nhsmongifyer/internal/schedule"
	"github.com/panevka/nhsmongifyer/internal/server"
)

// NewServeCommand creates the serve command: the collections API, plus
// scheduled runs when a cron expression is given.
func (a *App) NewServeCommand() *cobra.Command {
	var (
		runs      runFlags
		addr      string
		cronSpec  string
		noMetrics bool
	)
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve the merged collections over HTTP",
		Long: `Serve exposes the merged collections of every partition under the output
directory as a read-only JSON API. With --cron, the selected runs are also
executed on the given schedule; a tick is skipped while the previous run is
still active.`,
		Example: `  nhsmongifyer serve --addr :8080
  nhsmongifyer serve --cron "0 3 * * *" --runs runs.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.config.Serve.Addr = addr
			}
			if cronSpec != "" {
				a.config.Schedule.Cron = cronSpec
			}
			return a.serve(cmd.Context(), &runs, !noMetrics)
		},
	}
	runs.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from serve.addr)")
	cmd.Flags().StringVar(&cronSpec, "cron", "", "cron expression for scheduled runs, e.g. \"0 3 * * *\"")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	return cmd
}

func (a *App) serve(ctx context.Context, runs *runFlags, metricsEnabled bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := server.DefaultConfig()
	cfg.Addr = a.config.Serve.Addr
	cfg.OutputDir = a.config.OutputDir
	cfg.MetricsEnabled = metricsEnabled
	srv := server.New(cfg, a.Metrics(), a.logger)

	errCh := make(chan error, 1)
	if a.config.Schedule.Cron != "" {
		scheduler, err := a.newScheduler(runs)
		if err != nil {
			return err
		}
		go func() { errCh <- scheduler.Run(ctx) }()
	} else {
		close(errCh)
	}

	serveErr := srv.Serve(ctx)
	cancel()
	if err := <-errCh; err != nil && serveErr == nil {
		return err
	}
	return serveErr
}

// newScheduler validates the runs once, then schedules them as one job.
func (a *App) newScheduler(runs *runFlags) (*schedule.Scheduler, error) {
	configs, err := runs.configs()
	if err != nil {
		return nil, err
	}
	if err := ingest.ValidateConfigs(configs); err != nil {
		return nil, err
	}
	if err := a.validatePipelineOptions(); err != nil {
		return nil, err
	}
	loaders, err := a.loaders()
	if err != nil {
		return nil, err
	}

	runner := a.newRunner(ingest.AllStages(), loaders)
	job := func(ctx context.Context) error {
		summary, err := runner.Run(ctx, configs)
		if err != nil {
			return err
		}
		return summary.Err()
	}
	return schedule.New(a.config.Schedule.Cron, job, a.logger)
}
