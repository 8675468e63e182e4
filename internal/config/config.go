package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in test types, in reporting order.
const (
	TypeUnit        = "unit"
	TypeIntegration = "integration"
	TypeE2E         = "e2e"
	TypeRegression  = "regression"
)

// Constants for default values.
const (
	DefaultHTMLCoverageDir = "htmlcov"
	DefaultGoBinary        = "go"
)

// FileNames are the config file names looked up in the project root, in order.
var FileNames = []string{"testrules.yaml", "testrules.yml", "testrules.json"}

var builtinTypes = []string{TypeUnit, TypeIntegration, TypeE2E, TypeRegression}

var defaultPatterns = map[string][]string{
	TypeUnit:        {"*_test.go"},
	TypeIntegration: {"integration_*_test.go", "*_integration_test.go"},
	TypeE2E:         {"e2e_*_test.go", "*_e2e_test.go"},
	TypeRegression:  {"regression_*_test.go", "*_regression_test.go"},
}

var defaultExcludeDirs = []string{".git", "vendor", "node_modules", "testdata", DefaultHTMLCoverageDir}

var defaultLintCommand = []string{"golangci-lint", "run", "--output.sarif.path=stdout", "./..."}

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// Config is the resolved, read-only configuration for one invocation.
type Config struct {
	patterns        map[string][]string
	groups          map[string][]string
	coverageEnabled bool
	htmlCoverage    bool
	htmlCoverageDir string
	excludeDirs     []string
	methodTimeout   time.Duration
	lintCommand     []string
	historyDB       string
	metricsFile     string
	goBinary        string
	source          string
}

// Warning describes a recovered configuration problem.
type Warning struct {
	Source  string
	Message string
}

func (w Warning) String() string {
	if w.Source == "" {
		return w.Message
	}
	return w.Source + ": " + w.Message
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	Root   string              // project root searched for FileNames
	Path   string              // explicit config file; overrides the search
	Getenv func(string) string // defaults to os.Getenv
}

// fileConfig mirrors the on-disk document.
type fileConfig struct {
	TestPatterns    map[string][]string `yaml:"test_patterns"`
	TestGroups      map[string][]string `yaml:"test_groups"`
	CoverageEnabled *bool               `yaml:"coverage_enabled"`
	HTMLCoverage    *bool               `yaml:"html_coverage"`
	HTMLCoverageDir string              `yaml:"html_coverage_dir"`
	ExcludeDirs     []string            `yaml:"exclude_dirs"`
	MethodTimeout   string              `yaml:"method_timeout"`
	LintCommand     []string            `yaml:"lint_command"`
	HistoryDB       string              `yaml:"history_db"`
	MetricsFile     string              `yaml:"metrics_file"`
	GoBinary        string              `yaml:"go_binary"`
}

// Default returns the built-in configuration.
func Default() *Config {
	patterns := make(map[string][]string, len(defaultPatterns))
	for k, v := range defaultPatterns {
		patterns[k] = slices.Clone(v)
	}
	return &Config{
		patterns:        patterns,
		groups:          map[string][]string{},
		coverageEnabled: true,
		htmlCoverage:    true,
		htmlCoverageDir: DefaultHTMLCoverageDir,
		excludeDirs:     slices.Clone(defaultExcludeDirs),
		lintCommand:     slices.Clone(defaultLintCommand),
		goBinary:        DefaultGoBinary,
	}
}

// Load resolves the configuration. Malformed files produce warnings and
// leave the defaults in place. The only error is an explicit Path that
// cannot be read.
func Load(opts LoadOptions) (*Config, []Warning, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	path := opts.Path
	if path == "" {
		path = findConfigFile(opts.Root)
	} else if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}

	var warnings []Warning
	if path != "" {
		warnings = cfg.mergeFile(path)
	}
	warnings = append(warnings, cfg.applyEnv(getenv)...)
	return cfg, warnings, nil
}

func findConfigFile(root string) string {
	if root == "" {
		root = "."
	}
	for _, name := range FileNames {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// mergeFile overlays the file onto cfg. Any parse or schema problem leaves
// cfg untouched.
func (c *Config) mergeFile(path string) []Warning {
	data, err := os.ReadFile(path)
	if err != nil {
		return []Warning{{Source: path, Message: fmt.Sprintf("error reading config file: %v. Using defaults.", err)}}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []Warning{{Source: path, Message: fmt.Sprintf("error parsing config file: %v. Using defaults.", err)}}
	}
	if doc == nil {
		c.source = path
		return nil
	}
	if err := validate(doc); err != nil {
		return []Warning{{Source: path, Message: fmt.Sprintf("invalid config: %v. Using defaults.", err)}}
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return []Warning{{Source: path, Message: fmt.Sprintf("error decoding config file: %v. Using defaults.", err)}}
	}

	var timeout time.Duration
	if fc.MethodTimeout != "" {
		timeout, err = time.ParseDuration(fc.MethodTimeout)
		if err != nil || timeout < 0 {
			return []Warning{{Source: path, Message: fmt.Sprintf("invalid method_timeout %q. Using defaults.", fc.MethodTimeout)}}
		}
	}

	for typ, patterns := range fc.TestPatterns {
		c.patterns[typ] = slices.Clone(patterns)
	}
	for group, modules := range fc.TestGroups {
		c.groups[group] = slices.Clone(modules)
	}
	if fc.CoverageEnabled != nil {
		c.coverageEnabled = *fc.CoverageEnabled
	}
	if fc.HTMLCoverage != nil {
		c.htmlCoverage = *fc.HTMLCoverage
	}
	if fc.HTMLCoverageDir != "" {
		c.htmlCoverageDir = fc.HTMLCoverageDir
	}
	if fc.ExcludeDirs != nil {
		c.excludeDirs = slices.Clone(fc.ExcludeDirs)
	}
	if len(fc.LintCommand) > 0 {
		c.lintCommand = slices.Clone(fc.LintCommand)
	}
	if fc.GoBinary != "" {
		c.goBinary = fc.GoBinary
	}
	c.methodTimeout = timeout
	c.historyDB = fc.HistoryDB
	c.metricsFile = fc.MetricsFile
	c.source = path
	return nil
}

// TestTypes returns the built-in types followed by custom types in name order.
func (c *Config) TestTypes() []string {
	types := make([]string, 0, len(c.patterns))
	for _, t := range builtinTypes {
		if _, ok := c.patterns[t]; ok {
			types = append(types, t)
		}
	}
	var custom []string
	for t := range c.patterns {
		if !slices.Contains(builtinTypes, t) {
			custom = append(custom, t)
		}
	}
	sort.Strings(custom)
	return append(types, custom...)
}

// HasTestType reports whether typ is a registered test type.
func (c *Config) HasTestType(typ string) bool {
	_, ok := c.patterns[typ]
	return ok
}

// Patterns returns the glob patterns for typ. An empty result means the
// type matches nothing.
func (c *Config) Patterns(typ string) []string {
	return slices.Clone(c.patterns[typ])
}

// Groups returns the configured group names in sorted order.
func (c *Config) Groups() []string {
	names := make([]string, 0, len(c.groups))
	for name := range c.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group returns the module list of a named group.
func (c *Config) Group(name string) ([]string, bool) {
	modules, ok := c.groups[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(modules), true
}

// CoverageEnabled reports whether test runs are wrapped in a coverage session.
func (c *Config) CoverageEnabled() bool { return c.coverageEnabled }

// HTMLCoverage reports whether an HTML coverage report is written.
func (c *Config) HTMLCoverage() bool { return c.htmlCoverage }

// HTMLCoverageDir is the directory the HTML coverage report is written to.
func (c *Config) HTMLCoverageDir() string { return c.htmlCoverageDir }

// ExcludeDirs lists directory names pruned from discovery walks.
func (c *Config) ExcludeDirs() []string { return slices.Clone(c.excludeDirs) }

// MethodTimeout is the per-method timeout; zero disables it.
func (c *Config) MethodTimeout() time.Duration { return c.methodTimeout }

// LintCommand is the style-check command line.
func (c *Config) LintCommand() []string { return slices.Clone(c.lintCommand) }

// HistoryDB is the run history database path; empty disables history.
func (c *Config) HistoryDB() string { return c.historyDB }

// MetricsFile is the Prometheus textfile path; empty disables export.
func (c *Config) MetricsFile() string { return c.metricsFile }

// GoBinary is the go command used to run tests and coverage tooling.
func (c *Config) GoBinary() string { return c.goBinary }

// Source is the config file that was applied, or "" for pure defaults.
func (c *Config) Source() string { return c.source }

func (c *Config) clone() *Config {
	cp := *c
	cp.patterns = make(map[string][]string, len(c.patterns))
	for k, v := range c.patterns {
		cp.patterns[k] = slices.Clone(v)
	}
	cp.groups = make(map[string][]string, len(c.groups))
	for k, v := range c.groups {
		cp.groups[k] = slices.Clone(v)
	}
	cp.excludeDirs = slices.Clone(c.excludeDirs)
	cp.lintCommand = slices.Clone(c.lintCommand)
	return &cp
}
