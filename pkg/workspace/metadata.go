// Package workspace discovers the member packages of a Cargo workspace
// through `cargo metadata`, exposing each member's manifest path and direct
// dependency list.
package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ajxudir/cargoup/pkg/verbose"
)

// runCargoFunc executes cargo with the given arguments and returns stdout.
// This allows for dependency injection during testing.
var runCargoFunc = runCargo

// Dependency is one direct dependency declared by a workspace package.
//
// Fields:
//   - Name: The crate name
//   - Source: The dependency source id (e.g. "registry+https://..."), empty
//     for path dependencies
//   - Path: The local path for path dependencies, empty otherwise
type Dependency struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Path   string `json:"path"`
}

// IsRegistry reports whether the dependency is resolved from a package
// registry rather than a git or path source.
//
// Returns:
//   - bool: true for registry-sourced dependencies
func (d Dependency) IsRegistry() bool {
	return strings.HasPrefix(d.Source, "registry+")
}

// Package is one member package of the workspace.
//
// Fields:
//   - Name: The package name
//   - ManifestPath: Absolute path to the package's Cargo.toml
//   - Dependencies: The package's direct dependencies
type Package struct {
	Name         string       `json:"name"`
	ManifestPath string       `json:"manifest_path"`
	Dependencies []Dependency `json:"dependencies"`
}

// metadata is the subset of `cargo metadata` output cargoup consumes.
type metadata struct {
	Packages []Package `json:"packages"`
}

// Packages enumerates the workspace's member packages in the order cargo
// reports them. A purely virtual workspace root has no package of its own
// and therefore does not appear in the result.
//
// Parameters:
//   - manifestPath: Path to any manifest inside the workspace, or empty to
//     let cargo resolve the workspace from the working directory
//
// Returns:
//   - []Package: The member packages with manifest paths and dependencies
//   - error: Returns error if cargo metadata fails or its output cannot be
//     decoded; returns nil on success
func Packages(manifestPath string) ([]Package, error) {
	args := []string{"metadata", "--format-version", "1", "--no-deps"}
	if manifestPath != "" {
		args = append(args, "--manifest-path", manifestPath)
	}

	out, err := runCargoFunc(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace metadata: %w", err)
	}

	var meta metadata
	if err := json.Unmarshal(out, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode workspace metadata: %w", err)
	}

	verbose.Printf("Workspace has %d member package(s)", len(meta.Packages))

	return meta.Packages, nil
}

// runCargo invokes the cargo binary and returns its stdout.
//
// Parameters:
//   - args: Arguments passed to cargo
//
// Returns:
//   - []byte: Captured stdout
//   - error: Returns error with cargo's stderr appended when the command
//     fails; returns nil on success
func runCargo(args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.Command("cargo", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	verbose.Printf("Running: cargo %s", strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("cargo %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("cargo %s: %w", args[0], err)
	}

	return stdout.Bytes(), nil
}
