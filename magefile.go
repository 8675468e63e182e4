//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"

	"github.com/dkoosis/testrules/internal/magetasks"
)

// Default target - build the binary
var Default = Build

func init() {
	if err := magetasks.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}

// Build builds the testrules binary
func Build() error {
	return magetasks.BuildAll()
}

// Clean removes build artifacts
func Clean() error {
	return magetasks.Clean()
}

// Check builds, lints, and runs testrules on its own unit tests
func Check() error {
	return magetasks.QualityCheck()
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() error {
	mg.Deps(Build)
	return magetasks.LintAll()
}

// Vet runs go vet
func (Lint) Vet() error {
	return magetasks.LintVet()
}

// Style runs golangci-lint through testrules lint
func (Lint) Style() error {
	mg.Deps(Build)
	return magetasks.LintStyle()
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return magetasks.TestAll()
}

// Race runs tests with race detector
func (Test) Race() error {
	return magetasks.TestRace()
}

// Self runs the built testrules binary on this repository
func (Test) Self() error {
	mg.Deps(Build)
	return magetasks.SelfCheck()
}
