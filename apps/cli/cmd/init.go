package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/branchspec/packages/core/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a branchspec configuration",
	Long: `Initialize a branchspec project in the given directory (default: current).

This creates:
  - .branchspec.yaml  - Configuration file holding every default
  - branches.yaml     - Example suite file

Examples:
  branchspec init
  branchspec init ./checkout --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleSuite = `name: branches
description: base and feature branches are in place
checks:
  - name: secondary-main exists
    tags: [smoke, branch]
    branch: "{{baseBranch}}"
    expect:
      - { subject: name, op: equals, value: "{{baseBranch}}" }
      - { subject: commit.sha, op: startsWith, value: "{{shaPrefix}}" }
      - { subject: protected, op: equals, value: false }
    capture:
      - { name: baseSHA, from: commit.sha }

  - name: feature branch sits on secondary-main
    tags: [branch]
    compare: { base: "{{baseBranch}}", head: "{{featureBranch}}" }
    expect:
      - { subject: body.status, op: equals, value: ahead }
      - { subject: ahead_by, op: ">=", value: 1 }
      - { subject: behind_by, op: equals, value: 0 }
      - { subject: merge_base_commit.sha, op: equals, value: "{{baseSHA}}" }

  - name: readme mentions the issue
    tags: [docs]
    file: "{{readmeFile}}"
    expect:
      - { subject: content, op: contains, value: "{{issue}}" }
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	exampleFile := filepath.Join(dir, "branches.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	configYAML, err := yaml.Marshal(config.Defaults())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(configFile, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleSuite), 0644); err != nil {
		return fmt.Errorf("failed to create example suite: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nbranchspec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'branchspec run' for the built-in scenarios or 'branchspec run --suite %s' for the example suite.\n", exampleFile)

	return nil
}
