package magetasks

import (
	"errors"
	"fmt"
)

// LintAll runs vet, then the style tool through testrules itself.
func LintAll() error {
	var errs []error
	if err := LintVet(); err != nil {
		errs = append(errs, err)
	}
	if err := LintStyle(); err != nil && !IsCommandNotFound(err) {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	PrintSuccess("All linters passed")
	return nil
}

// LintVet runs go vet.
func LintVet() error {
	return Run("Go Vet", "go", "vet", "./...")
}

// LintStyle runs `testrules lint`, which drives golangci-lint with SARIF
// output. Exit status 3 means the style tool is not installed.
func LintStyle() error {
	err := Run("Style", BinPath, "--format", "plain", "lint")
	switch exitCode(err) {
	case -1, 0:
		return err
	case 3:
		PrintWarning("golangci-lint not found (install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest)")
		return nil
	default:
		return fmt.Errorf("style check failed: %w", err)
	}
}
