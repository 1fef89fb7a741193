package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/branchspec/packages/assertions"
	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
	"github.com/abdul-hamid-achik/branchspec/packages/github"
)

var secondaryMainScenario = Scenario{
	Name:    "secondary-main",
	Summary: "base branch exists at the expected SHA and is an ancestor of main",
	Describe: func(env *Env) string {
		return fmt.Sprintf("%s branch in %s/%s", env.Expect.BaseBranch, env.GitHub.Owner(), env.GitHub.Repo())
	},
	Build: secondaryMainChecks,
}

func secondaryMainChecks(env *Env) []runner.Check {
	e := env.Expect
	base := e.BaseBranch

	return []runner.Check{
		{
			Name:   base + " branch exists",
			Tags:   []string{"branch"},
			Action: env.branchExists(base),
		},
		{
			Name:   e.MainBranch + " branch exists",
			Tags:   []string{"branch"},
			Action: env.branchExists(e.MainBranch),
		},
		{
			Name: fmt.Sprintf("%s SHA starts with expected prefix %s", base, e.SHAPrefix()),
			Tags: []string{"sha"},
			Action: func(_ context.Context, state *runner.State) error {
				branch, err := loadedBranch(state, base)
				if err != nil {
					return err
				}
				sha := branch.HeadCommitSHA
				return assertions.That("commit.sha", sha, assertions.OpStartsWith, e.SHAPrefix()).
					Errf("Expected SHA to start with %s, got %s", e.SHAPrefix(), sha)
			},
		},
		{
			Name:   base + " SHA matches expected full SHA",
			Tags:   []string{"sha"},
			Action: env.baseAtExpectedSHA(),
		},
		{
			Name: base + " is an ancestor of " + e.MainBranch + " (" + e.MainBranch + " may have advanced)",
			Tags: []string{"ancestry"},
			Action: func(ctx context.Context, state *runner.State) error {
				baseBranch, err := loadedBranch(state, base)
				if err != nil {
					return err
				}
				mainBranch, err := loadedBranch(state, e.MainBranch)
				if err != nil {
					return err
				}
				cmp, err := env.compare(ctx, state, baseBranch.HeadCommitSHA, mainBranch.HeadCommitSHA)
				if err != nil {
					return err
				}
				status := string(cmp.Status)
				return assertions.That("status", status, assertions.OpIn, []string{string(github.StatusAhead), string(github.StatusIdentical)}).
					Errf("Expected %s to be ahead of or identical to %s, got status: %s", e.MainBranch, base, status)
			},
		},
		{
			Name:   base + " is not a protected branch",
			Tags:   []string{"protection"},
			Action: env.notProtected(base),
		},
		{
			Name: base + " commit has valid SHA format (40 hex chars)",
			Tags: []string{"sha"},
			Action: func(_ context.Context, state *runner.State) error {
				branch, err := loadedBranch(state, base)
				if err != nil {
					return err
				}
				sha := branch.HeadCommitSHA
				return assertions.Ok("commit.sha", shaPattern.MatchString(sha), "").
					Errf("SHA should be 40 hex characters, got: %s", sha)
			},
		},
		{
			Name: base + " commit has a valid commit URL",
			Tags: []string{"commit"},
			Action: func(_ context.Context, state *runner.State) error {
				branch, err := loadedBranch(state, base)
				if err != nil {
					return err
				}
				url := branch.HeadCommitURL
				want := fmt.Sprintf("/repos/%s/%s/commits/", env.GitHub.Owner(), env.GitHub.Repo())
				return assertions.First(
					assertions.That("commit.url", url, assertions.OpExists, nil).Errf("Commit should have a URL"),
					assertions.That("commit.url", url, assertions.OpContains, want).
						Errf("Commit URL should reference the correct repo, got: %s", url),
				)
			},
		},
		{
			Name: base + " commit object has expected structure",
			Tags: []string{"commit"},
			Action: func(ctx context.Context, _ *runner.State) error {
				commit, err := env.GitHub.GetCommit(ctx, e.BaseSHA)
				if err != nil {
					return err
				}
				return assertions.First(
					assertions.That("sha", commit.SHA, assertions.OpExists, nil).Errf("Commit should have a SHA"),
					assertions.That("commit.message", strings.TrimSpace(commit.Message), assertions.OpExists, nil).
						Errf("Commit should have a message"),
				)
			},
		},
	}
}

// branchExists fetches name, stores it, then checks the returned name.
func (env *Env) branchExists(name string) runner.Action {
	return func(ctx context.Context, state *runner.State) error {
		branch, err := env.fetchBranch(ctx, state, name)
		if err != nil {
			return err
		}
		return assertions.First(
			assertions.That("name", branch.Name, assertions.OpExists, nil).Errf("Branch should have a name"),
			assertions.That("name", branch.Name, assertions.OpEquals, name).Err(),
		)
	}
}

func (env *Env) notProtected(name string) runner.Action {
	return func(_ context.Context, state *runner.State) error {
		branch, err := loadedBranch(state, name)
		if err != nil {
			return err
		}
		return assertions.That("protected", branch.Protected, assertions.OpEquals, false).
			Errf("%s should not be protected", name)
	}
}

func (env *Env) baseAtExpectedSHA() runner.Action {
	e := env.Expect
	return func(_ context.Context, state *runner.State) error {
		branch, err := loadedBranch(state, e.BaseBranch)
		if err != nil {
			return err
		}
		sha := branch.HeadCommitSHA
		return assertions.That("commit.sha", sha, assertions.OpEquals, e.BaseSHA).
			Errf("Expected %s, got %s", e.BaseSHA, sha)
	}
}
