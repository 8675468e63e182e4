// Package fixture writes small Go project trees for tests.
package fixture

import (
	"os"
	"path/filepath"
	"testing"
)

// GoMod is a minimal go.mod for fixture projects.
const GoMod = "module example.com/proj\n\ngo 1.24\n"

// GoModTestify is GoMod for projects whose tests import testify.
const GoModTestify = GoMod + "\nrequire github.com/stretchr/testify v1.11.1\n"

// MissingImportTest imports a package no module provides.
const MissingImportTest = `package calc

import (
	"testing"

	"example.com/does/not/exist"
)

func TestUsesMissing(t *testing.T) { exist.Do() }
`

// Calc is a non-test source file shared by the sample test files.
const Calc = `package calc

func Add(a, b int) int { return a + b }

func Sub(a, b int) int { return a - b }
`

// MathTest holds two passing bare test functions.
const MathTest = `package calc

import "testing"

func TestAdd(t *testing.T) {
	if Add(1, 2) != 3 {
		t.Fatal("add")
	}
}

func TestSub(t *testing.T) {
	if Sub(3, 2) != 1 {
		t.Fatal("sub")
	}
}
`

// BrokenTest does not parse.
const BrokenTest = `package calc

import "testing"

func TestBroken(t *testing.T) {
	if true {
`

// IntegrationAPITest holds one failing test.
const IntegrationAPITest = `package calc

import "testing"

func TestAPIRoundTrip(t *testing.T) {
	t.Errorf("status = %d, want %d", 500, 200)
}
`

// SuiteTest declares a testify suite with a runner, a helper method, and
// a bare test function after the suite.
const SuiteTest = `package calc

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CalcSuite struct {
	suite.Suite
	base int
}

func (s *CalcSuite) SetupTest() { s.base = 10 }

func (s *CalcSuite) TestAddBase() { s.Equal(12, Add(s.base, 2)) }

func (s *CalcSuite) helper() int { return s.base }

func (s *CalcSuite) TestSubBase() { s.Equal(8, Sub(s.base, 2)) }

func (s *CalcSuite) TestWithArg(n int) {}

func TestCalcSuite(t *testing.T) {
	suite.Run(t, new(CalcSuite))
}

func TestStandalone(t *testing.T) {}
`

// Write creates files under root. Keys are slash paths relative to root.
func Write(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// Project writes files into a fresh temp dir and returns it. GoMod is
// used unless files brings its own go.mod.
func Project(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	all := map[string]string{"go.mod": GoMod}
	for k, v := range files {
		all[k] = v
	}
	Write(t, root, all)
	return root
}
