package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_UsesDefaults_When_NoFile(t *testing.T) {
	cfg, warnings, err := Load(LoadOptions{Root: t.TempDir(), Getenv: noEnv})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{TypeUnit, TypeIntegration, TypeE2E, TypeRegression}, cfg.TestTypes())
	assert.Equal(t, []string{"*_test.go"}, cfg.Patterns(TypeUnit))
	assert.True(t, cfg.CoverageEnabled())
	assert.True(t, cfg.HTMLCoverage())
	assert.Equal(t, "htmlcov", cfg.HTMLCoverageDir())
	assert.Empty(t, cfg.Groups())
	assert.Zero(t, cfg.MethodTimeout())
	assert.Equal(t, "go", cfg.GoBinary())
	assert.Empty(t, cfg.Source())
}

func TestLoad_MergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "testrules.yaml", `
test_patterns:
  unit: ["unit_*_test.go"]
  smoke: ["smoke_*_test.go"]
test_groups:
  fast: ["internal/calc/calc_test", "math_test"]
coverage_enabled: false
html_coverage_dir: out/cov
method_timeout: 30s
`)

	cfg, warnings, err := Load(LoadOptions{Root: dir, Getenv: noEnv})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{"unit_*_test.go"}, cfg.Patterns(TypeUnit))
	assert.Equal(t, []string{"integration_*_test.go", "*_integration_test.go"}, cfg.Patterns(TypeIntegration),
		"built-in types absent from the file keep their defaults")
	assert.Equal(t, []string{TypeUnit, TypeIntegration, TypeE2E, TypeRegression, "smoke"}, cfg.TestTypes())

	modules, ok := cfg.Group("fast")
	require.True(t, ok)
	assert.Equal(t, []string{"internal/calc/calc_test", "math_test"}, modules)

	assert.False(t, cfg.CoverageEnabled())
	assert.True(t, cfg.HTMLCoverage())
	assert.Equal(t, "out/cov", cfg.HTMLCoverageDir())
	assert.Equal(t, 30*time.Second, cfg.MethodTimeout())
	assert.Equal(t, filepath.Join(dir, "testrules.yaml"), cfg.Source())
}

func TestLoad_AcceptsJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "testrules.json", `{"test_groups": {"api": ["integration_api_test"]}, "html_coverage": false}`)

	cfg, warnings, err := Load(LoadOptions{Root: dir, Getenv: noEnv})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"api"}, cfg.Groups())
	assert.False(t, cfg.HTMLCoverage())
}

func TestLoad_FallsBackToDefaults_When_FileMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "syntax error", body: "test_patterns: [unclosed\n"},
		{name: "wrong type", body: "coverage_enabled: \"sometimes\"\n"},
		{name: "patterns not a list", body: "test_patterns:\n  unit: \"*_test.go\"\n"},
		{name: "top level list", body: "- a\n- b\n"},
		{name: "bad timeout", body: "method_timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "testrules.yaml", tt.body+"html_coverage_dir: custom\n")

			cfg, warnings, err := Load(LoadOptions{Root: dir, Getenv: noEnv})
			require.NoError(t, err)
			require.Len(t, warnings, 1)
			assert.Contains(t, warnings[0].String(), "Using defaults")
			assert.Equal(t, Default().HTMLCoverageDir(), cfg.HTMLCoverageDir(), "nothing from a rejected file is applied")
			assert.True(t, cfg.CoverageEnabled())
		})
	}
}

func TestLoad_EmptyFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "testrules.yml", "")

	cfg, warnings, err := Load(LoadOptions{Root: dir, Getenv: noEnv})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, Default().TestTypes(), cfg.TestTypes())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, _, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.yaml"), Getenv: noEnv})
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_EmptyPatternListMatchesNothingButStaysRegistered(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "testrules.yaml", "test_patterns:\n  regression: []\n")

	cfg, _, err := Load(LoadOptions{Root: dir, Getenv: noEnv})
	require.NoError(t, err)
	assert.True(t, cfg.HasTestType(TypeRegression))
	assert.Empty(t, cfg.Patterns(TypeRegression))
}

func TestConfig_AccessorsReturnCopies(t *testing.T) {
	cfg := Default()
	p := cfg.Patterns(TypeUnit)
	p[0] = "mutated"
	assert.Equal(t, []string{"*_test.go"}, cfg.Patterns(TypeUnit))
}
