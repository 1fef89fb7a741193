package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/branchspec/packages/checks"
	"github.com/abdul-hamid-achik/branchspec/packages/github"
	"github.com/abdul-hamid-achik/branchspec/packages/suite"
	"github.com/spf13/cobra"
)

var listSuiteFlags []string

var listCmd = &cobra.Command{
	Use:   "list [scenario...]",
	Short: "List scenarios, suites and their checks",
	Long: `List the built-in scenarios and the checks they run. Suite files given
with --suite (or configured under suites) are listed after them.

Examples:
  branchspec list
  branchspec list feature-branch
  branchspec list --suite ./suites/`,
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return checks.Names(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: listCommand,
}

func init() {
	listCmd.Flags().StringSliceVarP(&listSuiteFlags, "suite", "s", nil, "Suite file or directory to list (repeatable)")
}

func listCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("suite") {
		cfg.Suites = listSuiteFlags
	}

	scenarios := checks.Scenarios()
	if len(args) > 0 {
		scenarios = nil
		for _, name := range args {
			scenario, err := checks.Get(name)
			if err != nil {
				return err
			}
			scenarios = append(scenarios, scenario)
		}
	}

	env := &checks.Env{
		GitHub: github.NewClient(nil, cfg.Owner, cfg.Repo),
		Expect: cfg.Expect,
	}
	out := cmd.OutOrStdout()
	for _, scenario := range scenarios {
		fmt.Fprintf(out, "\n%s: %s\n", scenario.Name, scenario.Summary)
		for _, check := range scenario.Build(env) {
			fmt.Fprintf(out, "  - %s\n", check.Name)
			if len(check.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %v\n", check.Tags)
			}
		}
	}

	if len(cfg.Suites) == 0 || len(args) > 0 {
		return nil
	}

	paths, err := suite.FindFiles(cfg.Suites)
	if err != nil {
		return err
	}
	for _, path := range paths {
		f, err := suite.ParseFile(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n%s (%s):\n", f.Name, path)
		for _, check := range f.Checks {
			fmt.Fprintf(out, "  - %s [%s]\n", check.Name, check.Source())
			if len(check.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %v\n", check.Tags)
			}
		}
	}

	return nil
}
