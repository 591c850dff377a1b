//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// runCLI builds the binary if needed and runs a pipeline subcommand.
func runCLI(args ...string) error {
	mg.Deps(Build)
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Fetch pulls raw records for every policy from the three catalogs.
func Fetch() error {
	return runCLI("fetch")
}

// Unify matches and merges fetched records into the unified dataset.
func Unify() error {
	return runCLI("unify")
}

// Report renders coverage analysis reports from the unified dataset.
func Report() error {
	mg.Deps(Init)
	return runCLI("report")
}

// Pipeline runs fetch, unify, and report in order.
func Pipeline() error {
	mg.SerialDeps(Fetch, Unify)
	return Report()
}
