package output

import (
	"fmt"
	"io"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
)

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// Supported format names.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatJUnit   = "junit"
	FormatTAP     = "tap"
)

// Formats lists the accepted --output values.
var Formats = []string{FormatConsole, FormatJSON, FormatJUnit, FormatTAP}

type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter registered under name.
func New(name string, opts Options) (Formatter, error) {
	switch name {
	case "", FormatConsole:
		consoleOpts := []ConsoleOption{WithVerbose(opts.Verbose), WithNoColor(opts.NoColor)}
		if opts.Writer != nil {
			consoleOpts = append(consoleOpts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(consoleOpts...), nil
	case FormatJSON:
		var jsonOpts []JSONOption
		if opts.Writer != nil {
			jsonOpts = append(jsonOpts, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(jsonOpts...), nil
	case FormatJUnit:
		var junitOpts []JUnitOption
		if opts.Writer != nil {
			junitOpts = append(junitOpts, JUnitWithWriter(opts.Writer))
		}
		return NewJUnitFormatter(junitOpts...), nil
	case FormatTAP:
		var tapOpts []TAPOption
		if opts.Writer != nil {
			tapOpts = append(tapOpts, TAPWithWriter(opts.Writer))
		}
		return NewTAPFormatter(tapOpts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %v)", name, Formats)
	}
}

// failureLines returns one line per failed assertion, or the check error
// when the failure did not come from assertions.
func failureLines(r *runner.CheckResult) []string {
	var lines []string
	for _, a := range r.Assertions {
		if a.Passed {
			continue
		}
		msg := a.Message
		if msg == "" {
			msg = fmt.Sprintf("expected %v, got %v", a.Expected, a.Actual)
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", a.Subject, a.Operator, msg))
	}
	if len(lines) == 0 && r.Error != "" {
		lines = append(lines, r.Error)
	}
	return lines
}

// isError reports whether a failed check broke rather than asserted false.
func isError(r *runner.CheckResult) bool {
	switch r.Kind {
	case runner.KindTransport, runner.KindPanic, runner.KindError:
		return true
	default:
		return false
	}
}
