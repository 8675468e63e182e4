package magetasks

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BuildAll builds the testrules binary with version information.
func BuildAll() error {
	PrintH2Header("Build")

	ldflags := Ldflags(getGitVersion(), getGitCommit(), time.Now().UTC().Format(time.RFC3339))
	if err := Run("Go Build", "go", "build", "-ldflags", ldflags, "-o", BinPath, MainPackage); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Built: %s", BinPath))
	return nil
}

// Ldflags returns the linker flags stamping version, commit and date.
func Ldflags(version, commit, date string) string {
	pkg := ModulePath + "/internal/version"
	return fmt.Sprintf("-s -w -X '%s.Version=%s' -X '%s.CommitHash=%s' -X '%s.BuildDate=%s'",
		pkg, version, pkg, commit, pkg, date)
}

// Clean removes build artifacts
func Clean() error {
	PrintH2Header("Clean")

	if err := os.RemoveAll("./bin"); err != nil {
		return err
	}
	if err := exec.Command("go", "clean", "-cache").Run(); err != nil {
		PrintWarning("go clean -cache: " + err.Error())
	}

	PrintSuccess("Cleaned build artifacts")
	return nil
}

func getGitVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty", "--match=v*").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimSpace(string(out))
}

func getGitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}
