// Command testrules discovers Go tests by file naming convention and runs
// each test method in isolation. See `testrules help`.
package main

import (
	"os"

	"github.com/dkoosis/testrules/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
