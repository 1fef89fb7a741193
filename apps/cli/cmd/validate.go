package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/branchspec/packages/suite"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [suite file|directory...]",
	Short: "Validate the configuration and suite files without running them",
	Long: `Validate the configuration and suite files without issuing any request.

Suite files are checked for unknown operators, missing sources and missing
expected values. Without arguments the configured suites are validated.

Examples:
  branchspec validate
  branchspec validate ./suites/
  branchspec validate smoke.yaml --config ci.branchspec.yaml`,
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error in configuration: %v\n", err)
		return fmt.Errorf("validation failed")
	}
	if cfg.File != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", cfg.File)
	}

	paths := args
	if len(paths) == 0 {
		paths = cfg.Suites
	}
	if len(paths) == 0 {
		return nil
	}

	files, err := suite.FindFiles(paths)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no suite files found")
	}

	hasErrors := false
	for _, file := range files {
		_, err := suite.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	return nil
}
