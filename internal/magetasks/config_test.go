package magetasks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitialize(t *testing.T) {
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(originalDir) })

	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize() returned error: %v", err)
	}
	if info, err := os.Stat(filepath.Join(tmpDir, "bin")); err != nil || !info.IsDir() {
		t.Errorf("bin directory not created: %v", err)
	}

	expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
	actualRoot, _ := filepath.EvalSymlinks(ProjectRoot)
	if actualRoot != expectedRoot {
		t.Errorf("ProjectRoot = %s, want %s", actualRoot, expectedRoot)
	}
}

func TestBuildTargets(t *testing.T) {
	if ModulePath != "github.com/dkoosis/testrules" {
		t.Errorf("ModulePath = %s", ModulePath)
	}
	if !strings.HasSuffix(BinPath, "/testrules") {
		t.Errorf("BinPath = %s, want a testrules binary", BinPath)
	}
	if filepath.Base(MainPackage) != "testrules" {
		t.Errorf("MainPackage = %s, want ./cmd/testrules", MainPackage)
	}
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
