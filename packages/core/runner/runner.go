package runner

import (
	"context"
	"errors"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/assertions"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action is the body of a check. A nil error means the check passed.
type Action func(ctx context.Context, state *State) error

type Check struct {
	Name   string
	Tags   []string
	Action Action
}

// Suite is a named, ordered list of checks.
type Suite struct {
	Name        string
	Description string
	Checks      []Check
}

type Runner struct {
	config *Config
	logger *zap.Logger
	now    func() time.Time
}

type Config struct {
	Bail       bool
	NameFilter string
	TagsFilter []string

	// AbortOnTransportError stops the run at the first check that could not
	// reach the API at all.
	AbortOnTransportError bool

	Logger *zap.Logger

	// State seeds the run state. A fresh State is used when nil.
	State *State

	// OnResult is called after each check is recorded.
	OnResult func(*CheckResult)
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

type RunResult struct {
	ID          string         `json:"id"`
	Suite       string         `json:"suite"`
	Description string         `json:"description,omitempty"`
	Results     []*CheckResult `json:"results"`
	Duration    time.Duration  `json:"duration"`
	Passed      int            `json:"passed"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	Fatal       string         `json:"fatal,omitempty"`
}

// OK reports whether every executed check passed and the run was not aborted.
func (r *RunResult) OK() bool {
	return r.Failed == 0 && r.Fatal == ""
}

type CheckResult struct {
	Name       string               `json:"name"`
	Tags       []string             `json:"tags,omitempty"`
	Passed     bool                 `json:"passed"`
	Skipped    bool                 `json:"skipped,omitempty"`
	SkipReason string               `json:"skipReason,omitempty"`
	Error      string               `json:"error,omitempty"`
	Kind       string               `json:"kind,omitempty"`
	Duration   time.Duration        `json:"duration"`
	Assertions []*assertions.Result `json:"assertions,omitempty"`
	Err        error                `json:"-"`
}

// Run executes the suite's checks in order. A failing or panicking check is
// recorded and the next check runs, unless Bail is set or the failure is a
// transport error with AbortOnTransportError set. In the latter case the
// partial result is returned together with a *FatalError.
func (r *Runner) Run(ctx context.Context, suite *Suite) (*RunResult, error) {
	start := r.now()
	result := &RunResult{
		ID:          uuid.NewString(),
		Suite:       suite.Name,
		Description: suite.Description,
	}

	state := r.config.State
	if state == nil {
		state = NewState()
	}

	logger := r.logger.With(zap.String("suite", suite.Name), zap.String("run", result.ID))
	logger.Debug("starting run", zap.Int("checks", len(suite.Checks)))

	var runErr error
	for i, check := range suite.Checks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if !r.shouldRun(check) {
			r.record(result, &CheckResult{
				Name:       check.Name,
				Tags:       check.Tags,
				Skipped:    true,
				SkipReason: "filtered",
			})
			continue
		}

		checkResult := r.runCheck(ctx, check, state)
		r.record(result, checkResult)

		if checkResult.Passed {
			logger.Debug("check passed", zap.String("check", check.Name), zap.Duration("duration", checkResult.Duration))
			continue
		}
		logger.Info("check failed",
			zap.String("check", check.Name),
			zap.String("kind", checkResult.Kind),
			zap.String("error", checkResult.Error))

		if checkResult.Kind == KindTransport && r.config.AbortOnTransportError {
			result.Fatal = checkResult.Error
			runErr = &FatalError{Check: check.Name, Err: checkResult.Err}
			break
		}
		if r.config.Bail {
			logger.Debug("bailing out", zap.Int("remaining", len(suite.Checks)-i-1))
			break
		}
	}

	result.Duration = r.now().Sub(start)
	logger.Debug("run finished",
		zap.Int("passed", result.Passed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, runErr
}

func (r *Runner) record(result *RunResult, checkResult *CheckResult) {
	result.Results = append(result.Results, checkResult)
	switch {
	case checkResult.Skipped:
		result.Skipped++
	case checkResult.Passed:
		result.Passed++
	default:
		result.Failed++
	}
	if r.config.OnResult != nil {
		r.config.OnResult(checkResult)
	}
}

func (r *Runner) runCheck(ctx context.Context, check Check, state *State) (res *CheckResult) {
	res = &CheckResult{Name: check.Name, Tags: check.Tags}
	start := r.now()

	defer func() {
		if v := recover(); v != nil {
			r.fail(res, &PanicError{Value: v})
		}
		res.Duration = r.now().Sub(start)
	}()

	if check.Action == nil {
		r.fail(res, errors.New("check has no action"))
		return res
	}

	if err := check.Action(ctx, state); err != nil {
		r.fail(res, err)
		return res
	}
	res.Passed = true
	return res
}

func (r *Runner) fail(res *CheckResult, err error) {
	res.Passed = false
	res.Err = err
	res.Error = err.Error()
	res.Kind = Classify(err)
	res.Assertions = assertions.ResultsOf(err)
}

func (r *Runner) shouldRun(check Check) bool {
	if r.config.NameFilter != "" {
		if check.Name == "" || !matchesPattern(check.Name, r.config.NameFilter) {
			return false
		}
	}

	if len(r.config.TagsFilter) > 0 {
		if !hasAnyTag(check.Tags, r.config.TagsFilter) {
			return false
		}
	}

	return true
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if len(pattern) > 1 && pattern[0] == '*' && pattern[len(pattern)-1] == '*' {
		substr := pattern[1 : len(pattern)-1]
		for i := 0; i <= len(name)-len(substr); i++ {
			if name[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(name) >= len(prefix) && name[:len(prefix)] == prefix
	}

	return name == pattern
}

func hasAnyTag(tags []string, filters []string) bool {
	for _, filter := range filters {
		for _, tag := range tags {
			if tag == filter {
				return true
			}
		}
	}
	return false
}
