package magetasks

import (
	"fmt"
)

// QualityCheck builds the binary, runs the linters and the self check.
// Lint problems are reported but only test failures fail the task.
func QualityCheck() error {
	PrintH1Header("testrules Quality Checks")

	if err := BuildAll(); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := LintAll(); err != nil {
		PrintWarning("Linting issues found")
	}
	if err := SelfCheck(); err != nil {
		return fmt.Errorf("tests failed: %w", err)
	}

	PrintSuccess("Quality checks complete")
	return nil
}
