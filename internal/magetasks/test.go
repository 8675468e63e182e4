package magetasks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/dkoosis/testrules/internal/report"
)

// TestAll runs all tests.
func TestAll() error {
	PrintH2Header("Tests")
	return Run("Go Test", "go", "test", "./...")
}

// TestRace runs tests with race detector.
func TestRace() error {
	PrintH2Header("Race Detector")
	return Run("Go Test (race)", "go", "test", "-race", "./...")
}

// SelfCheck runs the built binary's check word on this repository and
// verifies the summary it prints.
func SelfCheck() error {
	PrintH2Header("Self Check")

	var buf bytes.Buffer
	cmd := exec.Command(BinPath, "--format", "plain", "check", "unit")
	cmd.Stdout = io.MultiWriter(out, &buf)
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()

	counts, err := report.ParseSummary(buf.String())
	if err != nil {
		PrintError("no summary in testrules output")
		return errors.Join(runErr, err)
	}
	PrintInfo(fmt.Sprintf("%d methods, %d passed, %d failed (%d errors)", counts.Total, counts.Passed, counts.Failed, counts.Errors))
	if runErr != nil {
		return fmt.Errorf("testrules check: %w", runErr)
	}
	if !counts.OK() {
		return fmt.Errorf("testrules check: %d of %d methods failed", counts.Failed, counts.Total)
	}
	PrintSuccess("Self check passed")
	return nil
}
