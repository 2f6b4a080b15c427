// Package main is the entry point for the cargoup CLI application.
//
// This file bootstraps the application by invoking the command execution
// logic defined in the cmd package. The cargoup tool upgrades crates.io
// dependency requirements in Cargo.toml manifests to the latest release.
package main

import "github.com/ajxudir/cargoup/cmd"

// main initializes and runs the cargoup CLI application.
//
// It delegates all command parsing and execution to the cmd package,
// which handles the upgrade and version subcommands.
func main() {
	cmd.Execute()
}
