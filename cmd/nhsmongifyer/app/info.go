package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panevka/nhsmongifyer/internal/ingest"
	"github.com/panevka/nhsmongifyer/internal/schedule"
	"github.com/panevka/nhsmongifyer/pkg/constants"
	"github.com/panevka/nhsmongifyer/pkg/errors"
)

// NewValidateCommand creates the validate command.
func (a *App) NewValidateCommand() *cobra.Command {
	var runs runFlags
	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "management",
		Short:   "Check the configuration and run selection without fetching anything",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var errs []error
			errs = append(errs, a.config.Validate(), a.validatePipelineOptions())
			if a.config.Schedule.Cron != "" {
				if _, err := schedule.New(a.config.Schedule.Cron, nil, a.logger); err != nil {
					errs = append(errs, err)
				}
			}

			count := 0
			if runs.file != "" || runs.branch != "" || runs.service != "" {
				configs, err := runs.configs()
				if err == nil {
					err = ingest.ValidateConfigs(configs)
				}
				errs = append(errs, err)
				count = len(configs)
			}

			if err := errors.Join(errs...); err != nil {
				return err
			}
			if a.config.GeoapifyKey == "" {
				a.logger.Warn().Str("env", constants.GeoapifyKeyEnv).Msg("No Geoapify key configured, geocoding will be skipped")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (%d runs checked)\n", count)
			return nil
		},
	}
	runs.register(cmd)
	return cmd
}

// NewBranchesCommand creates the branches command.
func (a *App) NewBranchesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "branches",
		GroupID: "management",
		Short:   "List NFZ regional branches",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(cmd, branchesView())
		},
	}
}

// NewServicesCommand creates the services command.
func (a *App) NewServicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "services",
		GroupID: "management",
		Short:   "List service types",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(cmd, servicesView())
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nhsmongifyer %s (commit %s, built %s by %s)\n", a.version, a.commit, a.date, a.builtBy)
		},
	}
}
