package checks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/abdul-hamid-achik/branchspec/packages/assertions"
	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
)

var featureBranchScenario = Scenario{
	Name:    "feature-branch",
	Summary: "feature branch sits on top of the base branch and is documented locally",
	Describe: func(env *Env) string {
		return "feature branch " + env.Expect.FeatureBranch
	},
	Build: featureBranchChecks,
}

func featureBranchChecks(env *Env) []runner.Check {
	e := env.Expect
	feature := e.FeatureBranch
	base := e.BaseBranch

	return []runner.Check{
		{
			Name: "feature branch exists",
			Tags: []string{"branch"},
			Action: func(ctx context.Context, state *runner.State) error {
				branch, err := env.fetchBranch(ctx, state, feature)
				if err != nil {
					return err
				}
				return assertions.First(
					assertions.That("name", branch.Name, assertions.OpExists, nil).Errf("Branch should have a name"),
					assertions.That("name", branch.Name, assertions.OpEquals, feature).Err(),
				)
			},
		},
		{
			Name: "feature branch name follows expected convention",
			Tags: []string{"branch"},
			Action: func(_ context.Context, state *runner.State) error {
				branch, err := loadedBranch(state, feature)
				if err != nil {
					return err
				}
				name := branch.Name
				return assertions.First(
					assertions.That("name", name, assertions.OpStartsWith, e.BranchPrefix).
						Errf("Branch name should start with '%s', got '%s'", e.BranchPrefix, name),
					assertions.That("name", name, assertions.OpContains, e.IssueSlug()).
						Errf("Branch name should reference issue %s, got '%s'", e.Issue, name),
				)
			},
		},
		{
			Name: base + " branch exists as base",
			Tags: []string{"branch", "sha"},
			Action: func(ctx context.Context, state *runner.State) error {
				branch, err := env.fetchBranch(ctx, state, base)
				if err != nil {
					return err
				}
				return assertions.That("commit.sha", branch.HeadCommitSHA, assertions.OpEquals, e.BaseSHA).Err()
			},
		},
		{
			Name: "feature branch is based on " + base + " (compare shows ahead)",
			Tags: []string{"ancestry"},
			Action: func(ctx context.Context, state *runner.State) error {
				if _, err := loadedBranch(state, feature); err != nil {
					return err
				}
				cmp, err := env.compare(ctx, state, base, feature)
				if err != nil {
					return err
				}
				return assertions.First(
					assertions.That("ahead_by", cmp.AheadBy, assertions.OpGreaterOrEqual, 1).
						Errf("Feature branch should be at least 1 commit ahead of %s, got %d", base, cmp.AheadBy),
					assertions.That("behind_by", cmp.BehindBy, assertions.OpEquals, 0).
						Errf("Feature branch should not be behind %s, got %d", base, cmp.BehindBy),
				)
			},
		},
		{
			Name: "feature branch merge base matches " + base + " SHA",
			Tags: []string{"ancestry", "sha"},
			Action: func(ctx context.Context, state *runner.State) error {
				cmp, err := env.compare(ctx, state, base, feature)
				if err != nil {
					return err
				}
				return assertions.That("merge_base_commit.sha", cmp.MergeBaseSHA, assertions.OpEquals, e.BaseSHA).
					Errf("Merge base should be %s, got %s", e.BaseSHA, cmp.MergeBaseSHA)
			},
		},
		{
			Name: "feature branch HEAD differs from " + base,
			Tags: []string{"sha"},
			Action: func(_ context.Context, state *runner.State) error {
				branch, err := loadedBranch(state, feature)
				if err != nil {
					return err
				}
				return assertions.That("commit.sha", branch.HeadCommitSHA, assertions.OpNotEquals, e.BaseSHA).
					Errf("Feature branch HEAD should differ from %s (has new commits)", base)
			},
		},
		{
			Name: "feature branch is not protected",
			Tags: []string{"protection"},
			Action: func(_ context.Context, state *runner.State) error {
				branch, err := loadedBranch(state, feature)
				if err != nil {
					return err
				}
				return assertions.That("protected", branch.Protected, assertions.OpEquals, false).
					Errf("Feature branch should not be protected")
			},
		},
		{
			Name: e.ReadmeFile + " documents the feature branch",
			Tags: []string{"local"},
			Action: func(_ context.Context, _ *runner.State) error {
				content, err := env.readFile(e.ReadmeFile)
				if err != nil {
					return err
				}
				return assertions.First(
					contentHas(e.ReadmeFile, content, e.TaskHeading, "%s should contain '%s' section"),
					contentHas(e.ReadmeFile, content, feature, "%s should reference branch '%s'"),
					contentHas(e.ReadmeFile, content, e.BaseSHA, "%s should reference base SHA '%s'"),
					contentHas(e.ReadmeFile, content, base, "%s should reference %s as the base"),
				)
			},
		},
		{
			Name: fmt.Sprintf("%s documents issue %s and %s", e.ReadmeFile, e.Issue, e.Component),
			Tags: []string{"local"},
			Action: func(_ context.Context, _ *runner.State) error {
				content, err := env.readFile(e.ReadmeFile)
				if err != nil {
					return err
				}
				return assertions.First(
					contentHas(e.ReadmeFile, content, e.Issue, "%s should reference issue %s"),
					contentHas(e.ReadmeFile, content, e.Component, "%s should reference %s"),
				)
			},
		},
		{
			Name: fmt.Sprintf("%s excludes %s/", e.IgnoreFile, e.IgnoredPath),
			Tags: []string{"local"},
			Action: func(_ context.Context, _ *runner.State) error {
				content, err := env.readFile(e.IgnoreFile)
				if errors.Is(err, fs.ErrNotExist) {
					return assertions.Ok("file", false, "").Errf("%s file should exist", e.IgnoreFile)
				}
				if err != nil {
					return err
				}
				return contentHas(e.IgnoreFile, content, e.IgnoredPath, "%s should exclude %s/")
			},
		},
	}
}

// contentHas fails with msg, formatted with the file name and the wanted
// substring, when content lacks want.
func contentHas(file, content, want, msg string) error {
	return assertions.Ok("content", strings.Contains(content, want), "").Errf(msg, file, want)
}
