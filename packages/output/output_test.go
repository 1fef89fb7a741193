package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/assertions"
	"github.com/abdul-hamid-achik/branchspec/packages/core/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *runner.RunResult {
	failed := assertions.That("commit.sha", "abc", assertions.OpEquals, "dce7f33d")
	return &runner.RunResult{
		ID:          "0b6f4f4e-2f43-4cf5-9a57-6f1d1f0f5a11",
		Suite:       "secondary-main",
		Description: "secondary-main branch in sima-claw-bot/msbuild",
		Results: []*runner.CheckResult{
			{Name: "secondary-main branch exists", Passed: true, Duration: 12 * time.Millisecond},
			{
				Name:       "secondary-main SHA matches expected full SHA",
				Error:      "Expected dce7f33d, got abc",
				Kind:       runner.KindAssertion,
				Assertions: []*assertions.Result{failed},
			},
			{Name: "main branch exists", Error: "GET https://api.github.com/x: connection refused", Kind: runner.KindTransport},
			{Name: "readme", Skipped: true, SkipReason: "filtered"},
		},
		Passed:   1,
		Failed:   2,
		Skipped:  1,
		Duration: 40 * time.Millisecond,
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Testing: secondary-main branch in sima-claw-bot/msbuild\n\n")
	assert.Contains(t, out, "  ✓ secondary-main branch exists\n")
	assert.Contains(t, out, "  ✗ secondary-main SHA matches expected full SHA\n    Expected dce7f33d, got abc\n")
	assert.Contains(t, out, "  - readme\n")
	assert.Contains(t, out, "Results: 1 passed, 2 failed, 1 skipped\n")
	assert.NotContains(t, out, "Fatal error:")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResult(sampleResult())

	out := buf.String()
	assert.Contains(t, out, "(12ms)")
	assert.Contains(t, out, "Kind:     assertion")
	assert.Contains(t, out, "Expected: dce7f33d")
	assert.Contains(t, out, "Actual:   abc")
}

func TestConsoleFormatter_Fatal(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	result := sampleResult()
	result.Fatal = "connection refused"

	f.FormatResult(result)

	assert.Contains(t, buf.String(), "Fatal error: connection refused\n")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatResult(sampleResult())
	f.FormatError(errors.New("suite smoke: parsing suite"))
	require.NoError(t, f.Flush(time.Second))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, JSONSummary{Total: 4, Passed: 1, Failed: 2, Skipped: 1}, out.Summary)
	require.Len(t, out.Runs, 1)
	assert.Equal(t, "secondary-main", out.Runs[0].Suite)
	assert.Equal(t, "0b6f4f4e-2f43-4cf5-9a57-6f1d1f0f5a11", out.Tests[1].RunID)
	assert.Equal(t, "assertion", out.Tests[1].Kind)
	require.Len(t, out.Tests[1].Assertions, 1)
	assert.Equal(t, "commit.sha", out.Tests[1].Assertions[0].Subject)
	assert.Empty(t, out.Tests[3].SkipReason)
	assert.Equal(t, []string{"suite smoke: parsing suite"}, out.Errors)
	assert.Equal(t, float64(1000), out.Duration)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 1, suites.Skipped)
	require.Len(t, suites.TestSuites, 1)

	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 4)
	assert.Nil(t, cases[0].Failure)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "assertion", cases[1].Failure.Type)
	assert.Contains(t, cases[1].Failure.Content, "commit.sha ==")
	require.NotNil(t, cases[2].Error)
	assert.Equal(t, "transport", cases[2].Error.Type)
	require.NotNil(t, cases[3].Skipped)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleResult())
	require.NoError(t, f.Flush(time.Second))

	out := buf.String()
	assert.Contains(t, out, "TAP version 13\n1..4\n")
	assert.Contains(t, out, "ok 1 - secondary-main branch exists\n")
	assert.Contains(t, out, "not ok 2 - secondary-main SHA matches expected full SHA\n")
	assert.Contains(t, out, "  failures:\n    - \"commit.sha ==: expected dce7f33d, got abc\"\n")
	assert.Contains(t, out, "not ok 3 - main branch exists\n  ---\n  message: \"GET https://api.github.com/x: connection refused\"\n  severity: error\n")
	assert.Contains(t, out, "ok 4 - readme # SKIP filtered\n")
	assert.NotContains(t, out, "Bail out!")
}

func TestTAPFormatter_BailOut(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	result := sampleResult()
	result.Fatal = "connection refused"

	f.FormatResult(result)
	require.NoError(t, f.Flush(time.Second))

	assert.Contains(t, buf.String(), "Bail out! connection refused\n")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	for _, name := range append([]string{""}, Formats...) {
		t.Run(name, func(t *testing.T) {
			f, err := New(name, Options{Writer: &buf, NoColor: true})
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}

	_, err := New("html", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "html"`)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "[array with 2 items]", formatValue([]any{1, 2}, 10))
	assert.Equal(t, "{object with 1 keys}", formatValue(map[string]any{"a": 1}, 10))
	assert.Equal(t, "abcde...", formatValue("abcdefgh", 5))
}
