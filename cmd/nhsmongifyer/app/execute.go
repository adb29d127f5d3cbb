package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/panevka/nhsmongifyer/internal/cmd/output"
)

// Execute runs the CLI with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "nhsmongifyer",
		Short:   "Harvest NFZ contract data into document collections",
		Version: a.version,
		Long: `nhsmongifyer harvests healthcare contracts ("agreements") from the NFZ
contracts API, resolves the provider of every contract, geocodes provider
addresses through Geoapify, and folds the results into three JSON collections
per branch and service type that can be loaded into Elasticsearch or PostgreSQL.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.nhsmongifyer.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: table, json, yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	rootCmd.PersistentFlags().String("output-dir", "", "root directory of the harvested data")

	rootCmd.SetVersionTemplate("nhsmongifyer {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	if path := mustGetString(cmd, "config"); path != "" {
		config, err := LoadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
		mustGetString(cmd, "output-dir"),
	)

	if _, err := output.ParseFormat(a.config.Format); err != nil {
		return err
	}

	if !a.fixedLogger {
		logger := NewLogger(a.config)
		a.logger = &logger
	}

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(a.NewRunCommand())
	rootCmd.AddCommand(a.NewHarvestCommand())
	rootCmd.AddCommand(a.NewMergeCommand())
	rootCmd.AddCommand(a.NewLoadCommand())
	rootCmd.AddCommand(a.NewServeCommand())

	// Management commands
	rootCmd.AddCommand(a.NewValidateCommand())
	rootCmd.AddCommand(a.NewBranchesCommand())
	rootCmd.AddCommand(a.NewServicesCommand())

	rootCmd.AddCommand(a.NewVersionCommand())
}

// print writes data to the command output in the configured format.
func (a *App) print(cmd *cobra.Command, data any) error {
	formatter := output.NewFormatter(output.DetectFormat(a.config.Format))
	return formatter.Format(cmd.OutOrStdout(), data)
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // Ignoring write error since we're exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
