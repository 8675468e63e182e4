package lint

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnvKey = "TESTRULES_LINT_HELPER"

const threeViolations = `{"version":"2.1.0","runs":[{"tool":{"driver":{"name":"golangci-lint"}},"results":[
{"ruleId":"errcheck","level":"error","message":{"text":"Error return value is not checked"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"calc/calc.go"},"region":{"startLine":12,"startColumn":5}}}]},
{"ruleId":"unused","level":"warning","message":{"text":"func helper is unused"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"calc/calc.go"},"region":{"startLine":20,"startColumn":6}}}]},
{"ruleId":"revive","level":"warning","message":{"text":"exported function Add should have comment"},"locations":[{"physicalLocation":{"artifactLocation":{"uri":"%s/api/api.go"},"region":{"startLine":3}}}]}
]}]}`

// TestHelperProcess stands in for the lint tool.
func TestHelperProcess(t *testing.T) { //nolint:revive
	if os.Getenv(helperEnvKey) == "" {
		return
	}
	code, _ := strconv.Atoi(os.Getenv(helperEnvKey + "_EXIT"))
	fmt.Fprint(os.Stdout, os.Getenv(helperEnvKey+"_STDOUT"))
	fmt.Fprint(os.Stderr, os.Getenv(helperEnvKey+"_STDERR"))
	os.Exit(code)
}

func helperChecker(t *testing.T, root, stdout, stderr string, exitCode int) *Checker {
	t.Helper()
	c := NewChecker([]string{"golangci-lint", "run", "./..."}, root, nil)
	c.Command = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^TestHelperProcess$")
		cmd.Env = append(os.Environ(),
			helperEnvKey+"=1",
			helperEnvKey+"_EXIT="+strconv.Itoa(exitCode),
			helperEnvKey+"_STDOUT="+stdout,
			helperEnvKey+"_STDERR="+stderr,
		)
		return cmd
	}
	return c
}

func TestRun_CleanSARIF(t *testing.T) {
	res := helperChecker(t, t.TempDir(), `{"version":"2.1.0","runs":[{"tool":{"driver":{"name":"golangci-lint"}},"results":[]}]}`, "", 0).
		Run(context.Background())

	require.NoError(t, res.Err)
	assert.True(t, res.Available)
	assert.Zero(t, res.Count())
	assert.True(t, res.OK())
	assert.Equal(t, "golangci-lint", res.Tool)
}

func TestRun_ReportsSARIFViolations(t *testing.T) {
	root := t.TempDir()
	res := helperChecker(t, root, fmt.Sprintf(threeViolations, filepath.ToSlash(root)), "", 1).Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Count())
	assert.False(t, res.OK())
	assert.Equal(t, Violation{File: "calc/calc.go", Line: 12, Column: 5, Rule: "errcheck", Level: "error", Message: "Error return value is not checked"}, res.Violations[0])
	assert.Equal(t, "api/api.go", res.Violations[2].File, "absolute paths are made root-relative")
	assert.Equal(t, "api/api.go:3", res.Violations[2].Location())
}

func TestRun_ReadsDiagnosticsFromStderr(t *testing.T) {
	stderr := "# example.com/proj/calc\ncalc/calc.go:3:2: result of fmt.Sprintf call not used\ncalc/calc.go:9: unreachable code\n"
	c := helperChecker(t, t.TempDir(), "", stderr, 1)
	c.command = []string{"go", "vet", "./..."}

	res := c.Run(context.Background())
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.Count())
	assert.Equal(t, "calc/calc.go:3:2", res.Violations[0].Location())
	assert.Equal(t, "go", res.Violations[0].Rule)
}

func TestRun_UnavailableIsNotClean(t *testing.T) {
	c := NewChecker([]string{filepath.Join(t.TempDir(), "no-such-linter")}, t.TempDir(), nil)
	res := c.Run(context.Background())

	assert.False(t, res.Available)
	assert.ErrorIs(t, res.Err, ErrUnavailable)
	assert.False(t, res.OK())
	assert.Zero(t, res.Count())
}

func TestRun_NoCommandIsUnavailable(t *testing.T) {
	res := NewChecker(nil, t.TempDir(), nil).Run(context.Background())
	assert.ErrorIs(t, res.Err, ErrUnavailable)
}

func TestRun_FailingToolWithoutFindingsIsAnError(t *testing.T) {
	res := helperChecker(t, t.TempDir(), "", "level=error msg=\"can't load config\"", 3).Run(context.Background())
	assert.True(t, res.Available)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "status 3")
	assert.False(t, res.OK())
}

func TestRun_UnrecognizedOutput(t *testing.T) {
	res := helperChecker(t, t.TempDir(), `{"hello":"world"}`, "", 0).Run(context.Background())
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "unrecognized")
}
