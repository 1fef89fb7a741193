package suite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/branchspec/packages/assertions"
	"gopkg.in/yaml.v3"
)

type File struct {
	Path        string      `yaml:"-"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Owner       string      `yaml:"owner"`
	Repo        string      `yaml:"repo"`

	// Variables are available to every check as {{name}}.
	Variables map[string]any `yaml:"variables"`
	Checks    []CheckSpec    `yaml:"checks"`
}

type CheckSpec struct {
	Name    string        `yaml:"name"`
	Tags    []string      `yaml:"tags"`
	Branch  string        `yaml:"branch"`
	Compare *CompareSpec  `yaml:"compare"`
	Commit  string        `yaml:"commit"`
	File    string        `yaml:"file"`
	Expect  []Expectation `yaml:"expect"`
	Capture []CaptureSpec `yaml:"capture"`
}

// CaptureSpec stores the value of a subject for later checks, which refer to
// it as {{name}} or {{check name.name}}.
type CaptureSpec struct {
	Name string `yaml:"name"`
	From string `yaml:"from"`
}

type CompareSpec struct {
	Base string `yaml:"base"`
	Head string `yaml:"head"`
}

type Expectation struct {
	Subject string `yaml:"subject"`
	Op      string `yaml:"op"`
	Value   any    `yaml:"value"`
}

// Source kinds a check can read.
const (
	SourceBranch  = "branch"
	SourceCompare = "compare"
	SourceCommit  = "commit"
	SourceFile    = "file"
)

// Source returns which source the check reads, or "" when none is set.
func (c *CheckSpec) Source() string {
	switch {
	case c.Branch != "":
		return SourceBranch
	case c.Compare != nil:
		return SourceCompare
	case c.Commit != "":
		return SourceCommit
	case c.File != "":
		return SourceFile
	default:
		return ""
	}
}

func (c *CheckSpec) sourceCount() int {
	n := 0
	for _, set := range []bool{c.Branch != "", c.Compare != nil, c.Commit != "", c.File != ""} {
		if set {
			n++
		}
	}
	return n
}

// Assertions converts the expectations into assertions.
func (c *CheckSpec) Assertions() ([]*assertions.Assertion, error) {
	list := make([]*assertions.Assertion, 0, len(c.Expect))
	for i, exp := range c.Expect {
		op, err := assertions.ParseOperator(exp.Op)
		if err != nil {
			return nil, fmt.Errorf("expect[%d]: %w", i, err)
		}
		list = append(list, &assertions.Assertion{
			Subject:  strings.TrimSpace(exp.Subject),
			Operator: op,
			Expected: exp.Value,
		})
	}
	return list, nil
}

// ParseFile reads and validates a suite file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing suite: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate reports every structural problem in the suite at once.
func (f *File) Validate() error {
	var errs []error
	if len(f.Checks) == 0 {
		errs = append(errs, errors.New("suite has no checks"))
	}
	seen := make(map[string]bool)
	for i, c := range f.Checks {
		label := fmt.Sprintf("checks[%d]", i)
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		} else {
			label = fmt.Sprintf("%s (%s)", label, c.Name)
			if seen[c.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate check name", label))
			}
			seen[c.Name] = true
		}

		switch c.sourceCount() {
		case 0:
			errs = append(errs, fmt.Errorf("%s: one of branch, compare, commit or file is required", label))
		case 1:
		default:
			errs = append(errs, fmt.Errorf("%s: only one of branch, compare, commit or file may be set", label))
		}
		if c.Compare != nil && (c.Compare.Base == "" || c.Compare.Head == "") {
			errs = append(errs, fmt.Errorf("%s: compare needs both base and head", label))
		}

		if len(c.Expect) == 0 {
			errs = append(errs, fmt.Errorf("%s: at least one expectation is required", label))
		}
		for j, exp := range c.Expect {
			if exp.Subject == "" {
				errs = append(errs, fmt.Errorf("%s: expect[%d]: subject is required", label, j))
			}
			op, err := assertions.ParseOperator(exp.Op)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: expect[%d]: %w", label, j, err))
				continue
			}
			if op.NeedsValue() && exp.Value == nil {
				errs = append(errs, fmt.Errorf("%s: expect[%d]: operator %s needs a value", label, j, op))
			}
		}
		for j, capture := range c.Capture {
			if capture.Name == "" || capture.From == "" {
				errs = append(errs, fmt.Errorf("%s: capture[%d]: name and from are required", label, j))
			}
			if c.Source() == SourceFile && capture.From != "content" {
				errs = append(errs, fmt.Errorf("%s: capture[%d]: file checks can only capture content", label, j))
			}
		}
	}
	return errors.Join(errs...)
}

// FindFiles expands paths into suite files. Directories contribute their
// *.yaml and *.yml entries, sorted by name.
func FindFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, entry := range entries {
			ext := filepath.Ext(entry.Name())
			if !entry.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(p, entry.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
