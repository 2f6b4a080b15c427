package workspace

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMetadata = `{
	"packages": [
		{
			"name": "app",
			"manifest_path": "/ws/app/Cargo.toml",
			"dependencies": [
				{"name": "serde", "source": "registry+https://github.com/rust-lang/crates.io-index"},
				{"name": "helper", "source": null, "path": "/ws/helper"}
			]
		},
		{
			"name": "helper",
			"manifest_path": "/ws/helper/Cargo.toml",
			"dependencies": [
				{"name": "serde", "source": "registry+https://github.com/rust-lang/crates.io-index"}
			]
		}
	]
}`

// TestPackagesDecoding tests decoding of cargo metadata output.
//
// It verifies:
//   - Packages are returned in cargo's order with manifest paths
//   - Direct dependencies carry their name and source
func TestPackagesDecoding(t *testing.T) {
	oldRun := runCargoFunc
	defer func() { runCargoFunc = oldRun }()

	var gotArgs []string
	runCargoFunc = func(args ...string) ([]byte, error) {
		gotArgs = args
		return []byte(sampleMetadata), nil
	}

	pkgs, err := Packages("")
	require.NoError(t, err)
	require.Len(t, pkgs, 2)

	assert.Equal(t, "app", pkgs[0].Name)
	assert.Equal(t, "/ws/app/Cargo.toml", pkgs[0].ManifestPath)
	assert.Equal(t, "helper", pkgs[1].Name)

	assert.Equal(t, []string{"metadata", "--format-version", "1", "--no-deps"}, gotArgs)
}

// TestPackagesManifestPathFlag tests explicit manifest path forwarding.
//
// It verifies:
//   - A non-empty manifest path is passed through to cargo
func TestPackagesManifestPathFlag(t *testing.T) {
	oldRun := runCargoFunc
	defer func() { runCargoFunc = oldRun }()

	var gotArgs []string
	runCargoFunc = func(args ...string) ([]byte, error) {
		gotArgs = args
		return []byte(`{"packages":[]}`), nil
	}

	_, err := Packages("/ws/Cargo.toml")
	require.NoError(t, err)
	assert.Contains(t, strings.Join(gotArgs, " "), "--manifest-path /ws/Cargo.toml")
}

// TestPackagesCargoFailure tests the metadata failure path.
//
// It verifies:
//   - Command failures are wrapped with metadata context
func TestPackagesCargoFailure(t *testing.T) {
	oldRun := runCargoFunc
	defer func() { runCargoFunc = oldRun }()

	runCargoFunc = func(args ...string) ([]byte, error) {
		return nil, errors.New("no such manifest")
	}

	_, err := Packages("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get workspace metadata")
}

// TestPackagesBadJSON tests malformed metadata output.
//
// It verifies:
//   - Undecodable output is an error with context
func TestPackagesBadJSON(t *testing.T) {
	oldRun := runCargoFunc
	defer func() { runCargoFunc = oldRun }()

	runCargoFunc = func(args ...string) ([]byte, error) {
		return []byte("not json"), nil
	}

	_, err := Packages("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode workspace metadata")
}

// TestDependencyIsRegistry tests the registry source classification.
//
// It verifies:
//   - registry+ sources are registry dependencies
//   - path and git sources are not
func TestDependencyIsRegistry(t *testing.T) {
	assert.True(t, Dependency{Source: "registry+https://github.com/rust-lang/crates.io-index"}.IsRegistry())
	assert.False(t, Dependency{Source: "", Path: "/ws/helper"}.IsRegistry())
	assert.False(t, Dependency{Source: "git+https://github.com/foo/bar"}.IsRegistry())
}
