package checks

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/branchspec/packages/assertions"
	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
	"github.com/abdul-hamid-achik/branchspec/packages/github"
)

// atHeadScenario asserts the stricter reading of "created from main": main
// has not moved since the base branch was cut.
var atHeadScenario = Scenario{
	Name:    "secondary-main-at-head",
	Summary: "main HEAD still equals the base branch SHA",
	Describe: func(env *Env) string {
		return fmt.Sprintf("%s at %s HEAD in %s/%s", env.Expect.BaseBranch, env.Expect.MainBranch, env.GitHub.Owner(), env.GitHub.Repo())
	},
	Build: atHeadChecks,
}

func atHeadChecks(env *Env) []runner.Check {
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
			Name: e.MainBranch + " HEAD equals " + base + " SHA",
			Tags: []string{"ancestry", "sha"},
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
				return assertions.That("status", string(cmp.Status), assertions.OpEquals, string(github.StatusIdentical)).
					Errf("Expected %s to be identical to %s, got status: %s (ahead by %d)", e.MainBranch, base, cmp.Status, cmp.AheadBy)
			},
		},
	}
}
