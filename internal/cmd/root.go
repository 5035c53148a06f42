package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chazu/kerf/internal/config"
	"github.com/chazu/kerf/internal/output"
)

var (
	// Global flags
	configFlag  string
	verboseFlag bool

	// Resolved configuration (loaded during PersistentPreRunE)
	kerfConfig *config.Config
)

// NewRootCmd creates the root command for the kerf CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kerf",
		Short:         "Parametric geometry scripts",
		Long:          `kerf evaluates geometry scripts into solids and profiles and exports them to mesh and vector formats.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (env: KERF_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewExportCmd())
	rootCmd.AddCommand(NewParamsCmd())
	rootCmd.AddCommand(NewFormatsCmd())
	rootCmd.AddCommand(NewViewCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals sets up logging and loads configuration.
func initializeGlobals() error {
	output.SetupLogging(verboseFlag)
	cfg, err := config.NewLoader().Load(configFlag)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	kerfConfig = cfg
	output.Logger.Debug("configuration loaded", "async", cfg.Build.Async, "sync", cfg.Build.Sync, "workers", cfg.Build.Workers)
	return nil
}
