package checks

import (
	"errors"
	"fmt"
	"regexp"
)

// Default expected values.
const (
	DefaultOwner         = "sima-claw-bot"
	DefaultRepo          = "msbuild"
	DefaultBaseBranch    = "secondary-main"
	DefaultMainBranch    = "main"
	DefaultFeatureBranch = "fix/issue-13217-roslyn-codetaskfactory-references"
	DefaultBaseSHA       = "dce7f33d3e54a7626be7b1e50132e9fa0ab8f52b"
	DefaultSHAPrefixLen  = 8
	DefaultBranchPrefix  = "fix/"
	DefaultIssue         = "13217"
	DefaultComponent     = "RoslynCodeTaskFactory"
	DefaultTaskHeading   = "Task 2"
	DefaultReadmeFile    = "readme.md"
	DefaultIgnoreFile    = ".gitignore"
	DefaultIgnoredPath   = "msbuild-repo"
)

var shaPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Expectations are the facts the scenarios assert.
type Expectations struct {
	BaseBranch    string `mapstructure:"baseBranch" json:"baseBranch"`
	MainBranch    string `mapstructure:"mainBranch" json:"mainBranch"`
	FeatureBranch string `mapstructure:"featureBranch" json:"featureBranch"`
	BaseSHA       string `mapstructure:"baseSHA" json:"baseSHA"`
	SHAPrefixLen  int    `mapstructure:"shaPrefixLength" json:"shaPrefixLength"`
	BranchPrefix  string `mapstructure:"branchPrefix" json:"branchPrefix"`
	Issue         string `mapstructure:"issue" json:"issue"`
	Component     string `mapstructure:"component" json:"component"`
	TaskHeading   string `mapstructure:"taskHeading" json:"taskHeading"`
	ReadmeFile    string `mapstructure:"readmeFile" json:"readmeFile"`
	IgnoreFile    string `mapstructure:"ignoreFile" json:"ignoreFile"`
	IgnoredPath   string `mapstructure:"ignoredPath" json:"ignoredPath"`
}

func DefaultExpectations() Expectations {
	return Expectations{
		BaseBranch:    DefaultBaseBranch,
		MainBranch:    DefaultMainBranch,
		FeatureBranch: DefaultFeatureBranch,
		BaseSHA:       DefaultBaseSHA,
		SHAPrefixLen:  DefaultSHAPrefixLen,
		BranchPrefix:  DefaultBranchPrefix,
		Issue:         DefaultIssue,
		Component:     DefaultComponent,
		TaskHeading:   DefaultTaskHeading,
		ReadmeFile:    DefaultReadmeFile,
		IgnoreFile:    DefaultIgnoreFile,
		IgnoredPath:   DefaultIgnoredPath,
	}
}

// SHAPrefix returns the abbreviated form of BaseSHA.
func (e Expectations) SHAPrefix() string {
	if e.SHAPrefixLen <= 0 || e.SHAPrefixLen >= len(e.BaseSHA) {
		return e.BaseSHA
	}
	return e.BaseSHA[:e.SHAPrefixLen]
}

// IssueSlug is the fragment a feature branch name must contain.
func (e Expectations) IssueSlug() string {
	return "issue-" + e.Issue
}

// Variables exposes the expectations to suite files as {{name}} references,
// keyed the way the config file names them.
func (e Expectations) Variables() map[string]any {
	return map[string]any{
		"baseBranch":      e.BaseBranch,
		"mainBranch":      e.MainBranch,
		"featureBranch":   e.FeatureBranch,
		"baseSHA":         e.BaseSHA,
		"shaPrefix":       e.SHAPrefix(),
		"shaPrefixLength": e.SHAPrefixLen,
		"branchPrefix":    e.BranchPrefix,
		"issue":           e.Issue,
		"issueSlug":       e.IssueSlug(),
		"component":       e.Component,
		"taskHeading":     e.TaskHeading,
		"readmeFile":      e.ReadmeFile,
		"ignoreFile":      e.IgnoreFile,
		"ignoredPath":     e.IgnoredPath,
	}
}

// WithDefaults fills every empty field from DefaultExpectations.
func (e Expectations) WithDefaults() Expectations {
	d := DefaultExpectations()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&e.BaseBranch, d.BaseBranch)
	fill(&e.MainBranch, d.MainBranch)
	fill(&e.FeatureBranch, d.FeatureBranch)
	fill(&e.BaseSHA, d.BaseSHA)
	fill(&e.BranchPrefix, d.BranchPrefix)
	fill(&e.Issue, d.Issue)
	fill(&e.Component, d.Component)
	fill(&e.TaskHeading, d.TaskHeading)
	fill(&e.ReadmeFile, d.ReadmeFile)
	fill(&e.IgnoreFile, d.IgnoreFile)
	fill(&e.IgnoredPath, d.IgnoredPath)
	if e.SHAPrefixLen == 0 {
		e.SHAPrefixLen = d.SHAPrefixLen
	}
	return e
}

func (e Expectations) Validate() error {
	var errs []error
	if !shaPattern.MatchString(e.BaseSHA) {
		errs = append(errs, fmt.Errorf("baseSHA %q is not a 40 character hex SHA", e.BaseSHA))
	}
	if e.SHAPrefixLen < 0 || e.SHAPrefixLen > 40 {
		errs = append(errs, fmt.Errorf("shaPrefixLength must be between 0 and 40, got %d", e.SHAPrefixLen))
	}
	if e.BaseBranch == e.FeatureBranch {
		errs = append(errs, fmt.Errorf("featureBranch must differ from baseBranch %q", e.BaseBranch))
	}
	return errors.Join(errs...)
}
