package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/branchspec/packages/core/config"
	"github.com/abdul-hamid-achik/branchspec/packages/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "branchspec",
	Short: "Verify branch state against a source-control API. No mutations.",
	Long: `branchspec checks facts about branches of a GitHub repository and about
local repository artifacts. It only issues GET requests, compares what it
reads against expected values and reports pass/fail per named check.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the process status.
func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitFailure)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default: first of "+fmt.Sprint(config.ConfigFilenames)+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: console, structured")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

// loadConfig reads the config file (from --config or the working directory)
// and the BRANCHSPEC_* environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag, ".")
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.LogFormat = logFormatFlag
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger. Logs go to stderr so they never mix
// with report output.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	factory := logging.NewLoggerFactory(logging.WithWriter(cmd.ErrOrStderr()))
	logger, err := factory.CreateLogger(logging.Level(cfg.LogLevel), logging.Format(cfg.LogFormat))
	if err != nil {
		return nil, fmt.Errorf("unable to create logger: %w", err)
	}
	return logger, nil
}
