package app

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/panevka/nhsmongifyer/internal/ingest"
	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// NewRunCommand creates the run command: every stage for each partition.
func (a *App) NewRunCommand() *cobra.Command {
	var (
		runs   runFlags
		strict bool
	)
	cmd := &cobra.Command{
		Use:     "run",
		GroupID: "core",
		Short:   "Harvest, resolve, geocode, merge and load the selected partitions",
		Example: `  nhsmongifyer run --branch mazowieckie --service 03 --year 2025
  nhsmongifyer run --runs runs.yaml --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStages(cmd, &runs, ingest.AllStages(), strict)
		},
	}
	runs.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when any partition aborts")
	return cmd
}

// NewHarvestCommand creates the harvest command: the network stages only.
func (a *App) NewHarvestCommand() *cobra.Command {
	var (
		runs  runFlags
		noGeo bool
	)
	cmd := &cobra.Command{
		Use:     "harvest",
		GroupID: "core",
		Short:   "Fetch agreements, providers and geocodes without merging",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stages := []ingest.Stage{ingest.StageHarvest, ingest.StageResolve, ingest.StageEnrich}
			if noGeo {
				stages = stages[:2]
			}
			return a.runStages(cmd, &runs, stages, false)
		},
	}
	runs.register(cmd)
	cmd.Flags().BoolVar(&noGeo, "no-geo", false, "skip geocoding")
	return cmd
}

// NewMergeCommand creates the merge command: fold stored data into collections.
func (a *App) NewMergeCommand() *cobra.Command {
	var runs runFlags
	cmd := &cobra.Command{
		Use:     "merge",
		GroupID: "core",
		Short:   "Fold previously harvested data into the output collections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("dedupe") {
				a.config.Dedupe = mustGetBool(cmd, "dedupe")
			}
			return a.runStages(cmd, &runs, []ingest.Stage{ingest.StageMerge}, false)
		},
	}
	runs.register(cmd)
	cmd.Flags().Bool("dedupe", false, "upsert geo and agreement entries instead of appending")
	return cmd
}

// NewLoadCommand creates the load command: copy collections into databases.
func (a *App) NewLoadCommand() *cobra.Command {
	var runs runFlags
	cmd := &cobra.Command{
		Use:     "load",
		GroupID: "core",
		Short:   "Load merged collections into Elasticsearch and/or PostgreSQL",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStages(cmd, &runs, []ingest.Stage{ingest.StageLoad}, true)
		},
	}
	runs.register(cmd)
	return cmd
}

// runStages runs the selected stages over the selected partitions and prints
// the summary. With strict set, any aborted partition fails the command.
func (a *App) runStages(cmd *cobra.Command, runs *runFlags, stages []ingest.Stage, strict bool) error {
	configs, err := runs.configs()
	if err != nil {
		return err
	}
	if err := a.validatePipelineOptions(); err != nil {
		return err
	}

	var loaders []ingest.Loader
	if slices.Contains(stages, ingest.StageLoad) {
		if loaders, err = a.loaders(); err != nil {
			return err
		}
		if len(loaders) == 0 && len(stages) == 1 {
			return errors.NewConfigError("load", "no loader configured: set elasticsearch.addresses or postgres.dsn", nil)
		}
	}

	summary, err := a.newRunner(stages, loaders).Run(cmd.Context(), configs)
	if summary != nil {
		if printErr := a.print(cmd, newSummaryView(summary)); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return err
	}
	if strict {
		return summary.Err()
	}
	return nil
}
