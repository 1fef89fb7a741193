package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when checks fail
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when every check passes
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and when a failing run recovers
	NotifyRecovery NotifyOn = "recovery"
)

func ParseNotifyOn(s string) (NotifyOn, error) {
	switch on := NotifyOn(s); on {
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return on, nil
	case "":
		return NotifyFailure, nil
	default:
		return "", fmt.Errorf("unknown notify-on value %q (want always, failure, success or recovery)", s)
	}
}

// RunSummary represents the summary of a run for notifications
type RunSummary struct {
	Repository    string        `json:"repository,omitempty"`
	Suites        []string      `json:"suites"`
	TotalChecks   int           `json:"total_checks"`
	PassedChecks  int           `json:"passed_checks"`
	FailedChecks  int           `json:"failed_checks"`
	SkippedChecks int           `json:"skipped_checks"`
	Duration      time.Duration `json:"duration"`
	Fatal         string        `json:"fatal,omitempty"`
	FailedResults []FailedCheck `json:"failed_results,omitempty"`
	IsRecovery    bool          `json:"is_recovery,omitempty"`
}

// Failed reports whether the run should count as a failure.
func (s *RunSummary) Failed() bool {
	return s.FailedChecks > 0 || s.Fatal != ""
}

// FailedCheck represents a failed check for notifications
type FailedCheck struct {
	Name  string `json:"name"`
	Suite string `json:"suite"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// Summarize folds run results into one summary.
func Summarize(repository string, results []*runner.RunResult, duration time.Duration) *RunSummary {
	summary := &RunSummary{Repository: repository, Duration: duration}
	for _, result := range results {
		summary.Suites = append(summary.Suites, result.Suite)
		summary.TotalChecks += len(result.Results)
		summary.PassedChecks += result.Passed
		summary.FailedChecks += result.Failed
		summary.SkippedChecks += result.Skipped
		if result.Fatal != "" && summary.Fatal == "" {
			summary.Fatal = result.Fatal
		}
		for _, r := range result.Results {
			if r.Passed || r.Skipped {
				continue
			}
			summary.FailedResults = append(summary.FailedResults, FailedCheck{
				Name:  r.Name,
				Suite: result.Suite,
				Kind:  r.Kind,
				Error: r.Error,
			})
		}
	}
	return summary
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about run results
	Notify(ctx context.Context, summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager manages multiple notifiers
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true, // Assume success initially
	}
}

// AddNotifier adds a notifier to the manager
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Notify sends notifications based on the configured policy. Watch mode
// reuses one Manager so recovery is detected across runs.
func (m *Manager) Notify(ctx context.Context, summary *RunSummary) error {
	shouldNotify := false
	currentSuccess := !summary.Failed()

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess

	if !shouldNotify {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}
