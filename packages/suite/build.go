package suite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/abdul-hamid-achik/branchspec/packages/assertions"
	"github.com/abdul-hamid-achik/branchspec/packages/core/env"
	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
	"github.com/abdul-hamid-achik/branchspec/packages/http"
)

// API fetches raw GitHub responses for one repository.
type API interface {
	Get(ctx context.Context, path string) (*http.Response, error)
	BranchPath(name string) string
	ComparePath(base, head string) string
	CommitPath(sha string) string
}

type Env struct {
	API   API
	Files fs.FS
	// Variables seeds every suite built from this Env. Each suite works on
	// its own copy, so captures never leak between suites.
	Variables *env.Resolver
}

// Suite turns the file into runnable checks.
func (f *File) Suite(e *Env) (*runner.Suite, error) {
	s := &runner.Suite{Name: f.Name, Description: f.Description}
	if s.Description == "" {
		s.Description = f.Name
	}

	vars := env.NewResolver()
	if e.Variables != nil {
		vars = e.Variables.Clone()
	}
	for name, value := range f.Variables {
		vars.SetVariable(name, vars.ResolveValue(value))
	}

	for i := range f.Checks {
		spec := f.Checks[i]
		list, err := spec.Assertions()
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", spec.Name, err)
		}
		s.Checks = append(s.Checks, runner.Check{
			Name:   spec.Name,
			Tags:   spec.Tags,
			Action: e.action(&spec, list, vars),
		})
	}
	return s, nil
}

func (e *Env) action(spec *CheckSpec, list []*assertions.Assertion, vars *env.Resolver) runner.Action {
	return func(ctx context.Context, state *runner.State) error {
		resolved, err := resolveSpec(spec, vars)
		if err != nil {
			return err
		}
		expected, err := resolveAssertions(list, vars)
		if err != nil {
			return err
		}

		src, err := e.load(ctx, state, resolved, expected)
		if err != nil {
			return err
		}
		evaluator := assertions.NewEvaluator(src)
		results := evaluator.EvaluateAll(expected)

		for _, c := range spec.Capture {
			if value, err := evaluator.Value(c.From); err == nil && value != nil {
				vars.SetCapture(spec.Name, c.Name, value)
			}
		}
		return assertions.All(results...)
	}
}

// resolveSpec interpolates the source fields of spec. A reference that
// resolves to nothing is a prerequisite failure, usually of the check that
// should have captured it.
func resolveSpec(spec *CheckSpec, vars *env.Resolver) (*CheckSpec, error) {
	resolved := *spec
	fields := []*string{&resolved.Branch, &resolved.Commit, &resolved.File}
	if spec.Compare != nil {
		compare := *spec.Compare
		resolved.Compare = &compare
		fields = append(fields, &compare.Base, &compare.Head)
	}
	for _, field := range fields {
		raw := *field
		if missing := vars.Unresolved(raw); len(missing) > 0 {
			return nil, &runner.PrerequisiteError{Key: missing[0], Reason: "is not defined"}
		}
		*field = strings.TrimSpace(vars.Resolve(raw))
		if raw != "" && *field == "" {
			return nil, &runner.PrerequisiteError{Key: raw, Reason: "resolved to an empty value"}
		}
	}
	return &resolved, nil
}

func resolveAssertions(list []*assertions.Assertion, vars *env.Resolver) ([]*assertions.Assertion, error) {
	out := make([]*assertions.Assertion, len(list))
	for i, a := range list {
		if missing := unresolved(a.Expected, vars); len(missing) > 0 {
			return nil, &runner.PrerequisiteError{Key: missing[0], Reason: "is not defined"}
		}
		resolved := *a
		resolved.Expected = vars.ResolveValue(a.Expected)
		out[i] = &resolved
	}
	return out, nil
}

func unresolved(v any, vars *env.Resolver) []string {
	switch val := v.(type) {
	case string:
		return vars.Unresolved(val)
	case []any:
		var names []string
		for _, item := range val {
			names = append(names, unresolved(item, vars)...)
		}
		return names
	case map[string]any:
		var names []string
		for _, item := range val {
			names = append(names, unresolved(item, vars)...)
		}
		return names
	default:
		return nil
	}
}

func (e *Env) load(ctx context.Context, state *runner.State, spec *CheckSpec, list []*assertions.Assertion) (*assertions.Source, error) {
	if spec.Source() == SourceFile {
		if e.Files == nil {
			return nil, errors.New("no local directory configured")
		}
		data, err := fs.ReadFile(e.Files, spec.File)
		if err != nil {
			return nil, err
		}
		return assertions.FromText(data), nil
	}

	path := e.path(spec)
	if path == "" {
		return nil, errors.New("check has no source to read")
	}
	key := "response:" + path
	if resp, err := runner.Lookup[*http.Response](state, key); err == nil {
		return assertions.FromResponse(resp), nil
	}

	resp, err := e.API.Get(ctx, path)
	if err != nil {
		// A non-2xx response can still be asserted on when the check
		// expects a particular status.
		var httpErr *http.HTTPError
		if errors.As(err, &httpErr) && resp != nil && assertsStatus(list) {
			return assertions.FromResponse(resp), nil
		}
		return nil, err
	}
	state.Set(key, resp)
	return assertions.FromResponse(resp), nil
}

func (e *Env) path(spec *CheckSpec) string {
	switch spec.Source() {
	case SourceBranch:
		return e.API.BranchPath(spec.Branch)
	case SourceCompare:
		return e.API.ComparePath(spec.Compare.Base, spec.Compare.Head)
	case SourceCommit:
		return e.API.CommitPath(spec.Commit)
	default:
		return ""
	}
}

func assertsStatus(list []*assertions.Assertion) bool {
	for _, a := range list {
		if a.Subject == "status" {
			return true
		}
	}
	return false
}
