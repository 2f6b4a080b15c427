package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRunVersion tests the behavior of runVersion.
//
// It verifies:
//   - Basic version output includes version, Go version, and build info
//   - Version output with build time includes the date
//   - Version output with git commit includes the commit hash
func TestRunVersion(t *testing.T) {
	oldVersion := Version
	oldBuildTime := BuildTime
	oldGitCommit := GitCommit
	defer func() {
		Version = oldVersion
		BuildTime = oldBuildTime
		GitCommit = oldGitCommit
	}()

	t.Run("basic version output", func(t *testing.T) {
		Version = "1.0.0"
		BuildTime = ""
		GitCommit = ""

		output := captureStdout(t, func() {
			runVersion(nil, nil)
		})

		assert.Contains(t, output, "Version: 1.0.0")
		assert.Contains(t, output, "Go:")
		assert.Contains(t, output, "Build:")
		assert.NotContains(t, output, "Date:")
		assert.NotContains(t, output, "Git:")
	})

	t.Run("version with build metadata", func(t *testing.T) {
		Version = "1.2.3"
		BuildTime = "2026-01-01T00:00:00Z"
		GitCommit = "abc1234"

		output := captureStdout(t, func() {
			runVersion(nil, nil)
		})

		assert.Contains(t, output, "Date:    2026-01-01T00:00:00Z")
		assert.Contains(t, output, "Git:     abc1234")
		assert.Contains(t, output, "Version: 1.2.3")
	})
}

// TestGetVersion tests the version accessor.
//
// It verifies:
//   - The current Version value is returned
func TestGetVersion(t *testing.T) {
	oldVersion := Version
	defer func() { Version = oldVersion }()

	Version = "9.8.7"
	assert.Equal(t, "9.8.7", GetVersion())
}
