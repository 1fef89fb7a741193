package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/checks"
	"github.com/abdul-hamid-achik/branchspec/packages/core/config"
	"github.com/abdul-hamid-achik/branchspec/packages/core/env"
	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
	"github.com/abdul-hamid-achik/branchspec/packages/github"
	"github.com/abdul-hamid-achik/branchspec/packages/http"
	"github.com/abdul-hamid-achik/branchspec/packages/notify"
	"github.com/abdul-hamid-achik/branchspec/packages/output"
	"github.com/abdul-hamid-achik/branchspec/packages/suite"
	"go.uber.org/zap"
)

// session is one `run` invocation. Watch mode reuses it for every re-run so
// the HTTP client and the notification history carry over.
type session struct {
	cfg        *config.Config
	logger     *zap.Logger
	client     *http.Client
	scenarios  []checks.Scenario
	nameFilter string
	tagsFilter []string
	notifier   *notify.Manager
	lookup     env.LookupFunc
	out        io.Writer
}

func newSession(cfg *config.Config, logger *zap.Logger, names []string, out io.Writer) (*session, error) {
	if !slices.Contains(output.Formats, cfg.Output) {
		return nil, fmt.Errorf("unknown output format %q (want one of %v)", cfg.Output, output.Formats)
	}

	if len(names) == 0 && len(cfg.Suites) == 0 {
		names = checks.DefaultNames
	}
	var scenarios []checks.Scenario
	for _, name := range names {
		scenario, err := checks.Get(name)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}

	lookup := env.LookupFunc(os.LookupEnv)
	if cfg.EnvFile != "" {
		vars, err := env.LoadDotEnv(cfg.EnvFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded env file", zap.String("file", cfg.EnvFile), zap.Int("count", len(vars)))
		lookup = env.Lookup(lookup, vars)
	}

	token, authenticated := github.ResolveToken(github.LookupFunc(lookup))
	logger.Debug("resolved API credentials", zap.Bool("authenticated", authenticated))

	opts := append(github.HTTPOptions(cfg.APIURL, token),
		http.WithTimeout(cfg.TimeoutDuration()),
		http.WithRetry(cfg.Retries, cfg.RetryDelayDuration()),
		http.WithRateLimit(cfg.RateLimit, 1),
		http.WithUserAgent(cfg.UserAgent),
		http.WithLogger(logger.Named("http")),
	)

	s := &session{
		cfg:       cfg,
		logger:    logger,
		client:    http.NewClient(opts...),
		scenarios: scenarios,
		lookup:    lookup,
		out:       out,
	}

	if cfg.Notify.Slack != "" {
		on, err := notify.ParseNotifyOn(cfg.Notify.On)
		if err != nil {
			return nil, err
		}
		slackOpts := []notify.SlackOption{
			notify.WithSlackClient(http.NewClient(
				http.WithTimeout(10*time.Second),
				http.WithLogger(logger.Named("notify")),
			)),
		}
		if cfg.Notify.SlackChannel != "" {
			slackOpts = append(slackOpts, notify.WithSlackChannel(cfg.Notify.SlackChannel))
		}
		s.notifier = notify.NewManager(on, notify.NewSlackNotifier(cfg.Notify.Slack, slackOpts...))
	}

	return s, nil
}

func (s *session) repository(owner, repo string) *github.Client {
	if owner == "" {
		owner = s.cfg.Owner
	}
	if repo == "" {
		repo = s.cfg.Repo
	}
	return github.NewClient(s.client, owner, repo, github.WithLogger(s.logger.Named("github")))
}

// variables seeds suite files with the repository and the expectations.
func (s *session) variables() *env.Resolver {
	vars := env.NewResolver()
	vars.SetLookup(s.lookup)
	vars.SetWarnFunc(func(format string, args ...any) {
		s.logger.Debug(fmt.Sprintf(format, args...))
	})
	vars.SetVariables(s.cfg.Expect.Variables())
	vars.SetVariables(map[string]any{"owner": s.cfg.Owner, "repo": s.cfg.Repo})
	return vars
}

// suites builds the scenario suites followed by the suite files, in order.
// Suite files are re-read on every call so watch mode picks up edits.
func (s *session) suites() ([]*runner.Suite, error) {
	files := os.DirFS(s.cfg.Dir)

	scenarioEnv := &checks.Env{
		GitHub: s.repository("", ""),
		Files:  files,
		Expect: s.cfg.Expect,
	}
	var suites []*runner.Suite
	for _, scenario := range s.scenarios {
		suites = append(suites, scenario.Suite(scenarioEnv))
	}

	if len(s.cfg.Suites) == 0 {
		return suites, nil
	}
	paths, err := suite.FindFiles(s.cfg.Suites)
	if err != nil {
		return nil, fmt.Errorf("cannot access suites: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no suite files found in %v", s.cfg.Suites)
	}
	vars := s.variables()
	for _, path := range paths {
		f, err := suite.ParseFile(path)
		if err != nil {
			return nil, err
		}
		rs, err := f.Suite(&suite.Env{API: s.repository(f.Owner, f.Repo), Files: files, Variables: vars})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		suites = append(suites, rs)
	}
	return suites, nil
}

// run executes every suite once and writes the report. It returns true when
// every check passed and no run was aborted.
func (s *session) run(ctx context.Context) (bool, error) {
	w := s.out
	if s.cfg.OutputFile != "" {
		f, err := os.Create(s.cfg.OutputFile)
		if err != nil {
			return false, fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	formatter, err := output.New(s.cfg.Output, output.Options{
		Writer:  w,
		Verbose: s.cfg.Verbose,
		NoColor: s.cfg.NoColor,
	})
	if err != nil {
		return false, err
	}
	formatter.FormatHeader(version)

	suites, err := s.suites()
	if err != nil {
		formatter.FormatError(err)
		return false, err
	}

	r := runner.NewRunner(&runner.Config{
		Bail:                  s.cfg.Bail,
		NameFilter:            s.nameFilter,
		TagsFilter:            s.tagsFilter,
		AbortOnTransportError: true,
		Logger:                s.logger,
	})

	start := time.Now()
	passed := true
	var (
		results []*runner.RunResult
		runErr  error
	)
	for _, rs := range suites {
		result, err := r.Run(ctx, rs)
		if result != nil {
			formatter.FormatResult(result)
			results = append(results, result)
			passed = passed && result.OK()
		}
		if err != nil {
			passed = false
			// The fatal message is already part of the result.
			var fatal *runner.FatalError
			if !errors.As(err, &fatal) {
				runErr = err
			}
			break
		}
		if s.cfg.Bail && !result.OK() {
			break
		}
	}
	duration := time.Since(start)

	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(duration); err != nil {
			return false, fmt.Errorf("error writing output: %w", err)
		}
	}

	if s.notifier != nil && ctx.Err() == nil {
		summary := notify.Summarize(s.cfg.Owner+"/"+s.cfg.Repo, results, duration)
		if err := s.notifier.Notify(ctx, summary); err != nil {
			s.logger.Warn("failed to send notification", zap.Error(err))
		}
	}

	return passed && runErr == nil, runErr
}
