package checks

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
	"github.com/abdul-hamid-achik/branchspec/packages/github"
)

// GitHub is the part of the GitHub API the scenarios read.
type GitHub interface {
	Owner() string
	Repo() string
	GetBranch(ctx context.Context, name string) (*github.BranchSnapshot, error)
	Compare(ctx context.Context, base, head string) (*github.CompareResult, error)
	GetCommit(ctx context.Context, sha string) (*github.Commit, error)
}

// Env is everything a scenario's checks read from.
type Env struct {
	GitHub GitHub
	// Files holds the local repository artifacts (readme, ignore file).
	Files  fs.FS
	Expect Expectations
}

func branchKey(name string) string {
	return "branch:" + name
}

func compareKey(base, head string) string {
	return "compare:" + base + "..." + head
}

// fetchBranch fetches a branch and stores it in state before any assertion
// runs against it, so later checks can reuse it even if this one fails.
func (env *Env) fetchBranch(ctx context.Context, state *runner.State, name string) (*github.BranchSnapshot, error) {
	branch, err := env.GitHub.GetBranch(ctx, name)
	if err != nil {
		return nil, err
	}
	state.Set(branchKey(name), branch)
	return branch, nil
}

// loadedBranch returns a branch an earlier check fetched.
func loadedBranch(state *runner.State, name string) (*github.BranchSnapshot, error) {
	branch, err := runner.Lookup[*github.BranchSnapshot](state, branchKey(name))
	if err != nil {
		return nil, fmt.Errorf("%s branch data must be loaded: %w", name, err)
	}
	return branch, nil
}

func (env *Env) compare(ctx context.Context, state *runner.State, base, head string) (*github.CompareResult, error) {
	return runner.Remember(state, compareKey(base, head), func() (*github.CompareResult, error) {
		return env.GitHub.Compare(ctx, base, head)
	})
}

func (env *Env) readFile(name string) (string, error) {
	data, err := fs.ReadFile(env.Files, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
