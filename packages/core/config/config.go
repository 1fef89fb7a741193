package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/checks"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BRANCHSPEC_TIMEOUT.
const EnvPrefix = "BRANCHSPEC"

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".branchspec.yaml",
	"branchspec.yaml",
	".branchspec.json",
}

// Config represents the branchspec configuration
type Config struct {
	APIURL     string  `mapstructure:"apiURL"`
	Owner      string  `mapstructure:"owner"`
	Repo       string  `mapstructure:"repo"`
	Timeout    int     `mapstructure:"timeout"` // milliseconds, 0 disables
	Retries    int     `mapstructure:"retries"`
	RetryDelay int     `mapstructure:"retryDelay"` // milliseconds
	RateLimit  float64 `mapstructure:"rateLimit"`  // requests per second, 0 disables
	UserAgent  string  `mapstructure:"userAgent"`

	Dir        string   `mapstructure:"dir"`
	Suites     []string `mapstructure:"suites"`
	Output     string   `mapstructure:"output"`
	OutputFile string   `mapstructure:"outputFile"`
	NoColor    bool     `mapstructure:"noColor"`
	Verbose    bool     `mapstructure:"verbose"`
	Bail       bool     `mapstructure:"bail"`
	EnvFile    string   `mapstructure:"envFile"`

	LogLevel  string `mapstructure:"logLevel"`
	LogFormat string `mapstructure:"logFormat"`

	Notify NotifyConfig        `mapstructure:"notify"`
	Expect checks.Expectations `mapstructure:"expect"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

type NotifyConfig struct {
	Slack        string `mapstructure:"slack"`
	SlackChannel string `mapstructure:"slackChannel"`
	On           string `mapstructure:"on"`
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

func (c *Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

// Defaults returns the default configuration as a nested map, the shape
// written by `branchspec init`.
func Defaults() map[string]any {
	e := checks.DefaultExpectations()
	return map[string]any{
		"apiURL":     "https://api.github.com",
		"owner":      checks.DefaultOwner,
		"repo":       checks.DefaultRepo,
		"timeout":    30000,
		"retries":    2,
		"retryDelay": 500,
		"rateLimit":  0,
		"userAgent":  "branchspec",
		"dir":        ".",
		"suites":     []string{},
		"output":     "console",
		"outputFile": "",
		"noColor":    false,
		"verbose":    false,
		"bail":       false,
		"envFile":    "",
		"logLevel":   "warn",
		"logFormat":  "console",
		"notify": map[string]any{
			"slack":        "",
			"slackChannel": "",
			"on":           "failure",
		},
		"expect": map[string]any{
			"baseBranch":      e.BaseBranch,
			"mainBranch":      e.MainBranch,
			"featureBranch":   e.FeatureBranch,
			"baseSHA":         e.BaseSHA,
			"shaPrefixLength": e.SHAPrefixLen,
			"branchPrefix":    e.BranchPrefix,
			"issue":           e.Issue,
			"component":       e.Component,
			"taskHeading":     e.TaskHeading,
			"readmeFile":      e.ReadmeFile,
			"ignoreFile":      e.IgnoreFile,
			"ignoredPath":     e.IgnoredPath,
		},
	}
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg, err := load(viper.New(), "")
	if err != nil {
		panic(fmt.Sprintf("config: defaults do not decode: %v", err))
	}
	return cfg
}

// LoadConfig loads configuration from path, or from the first config file
// found in dir when path is empty. Environment variables override both.
func LoadConfig(path, dir string) (*Config, error) {
	if path == "" {
		path = FindConfig(dir)
	}
	return load(viper.New(), path)
}

// FindConfig returns the first config file present in dir, or "".
func FindConfig(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

func load(v *viper.Viper, path string) (*Config, error) {
	for key, value := range flatten("", Defaults()) {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		rejectFloatStrings(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Expect = cfg.Expect.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// rejectFloatStrings fails decoding when a parsed number lands in a string
// field. YAML reads an unquoted all-digit SHA as a float, and formatting it
// back yields a different string.
func rejectFloatStrings() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.String {
			return data, nil
		}
		switch from.Kind() {
		case reflect.Float32, reflect.Float64:
			return nil, fmt.Errorf("value %v was read as a number; quote it to keep it as text", data)
		}
		return data, nil
	}
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.Owner == "" || c.Repo == "" {
		errs = append(errs, errors.New("owner and repo are required"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %d", c.Timeout))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retryDelay must not be negative, got %d", c.RetryDelay))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rateLimit must not be negative, got %v", c.RateLimit))
	}
	if err := c.Expect.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("expect: %w", err))
	}
	return errors.Join(errs...)
}
