package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajxudir/cargoup/pkg/registry"
)

// writeConfig writes content to dir/name and returns the path.
func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadConfigDefaults tests loading without any config file.
//
// It verifies:
//   - The built-in defaults are returned
//   - The default registry URL is set
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, registry.DefaultBaseURL, cfg.Registry)
	assert.False(t, cfg.AllowPrerelease)
	assert.Empty(t, cfg.Ignore)
}

// TestLoadConfigExplicitPath tests loading from an explicit path.
//
// It verifies:
//   - All fields are populated from the file
//   - A missing explicit file is an error
func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "custom.yml", `registry: https://mirror.example.com
allow_prerelease: true
ignore:
  - openssl-sys
  - libc
`)

	cfg, err := LoadConfig(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.com", cfg.Registry)
	assert.True(t, cfg.AllowPrerelease)
	assert.Equal(t, []string{"openssl-sys", "libc"}, cfg.Ignore)

	_, err = LoadConfig(filepath.Join(dir, "missing.yml"), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

// TestLoadConfigLocalFile tests discovery of .cargoup.yml in the
// working directory.
//
// It verifies:
//   - The local file is picked up without an explicit path
//   - Unset fields keep their defaults
func TestLoadConfigLocalFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, FileName, "ignore: [serde]\n")

	cfg, err := LoadConfig("", dir)
	require.NoError(t, err)
	assert.Equal(t, registry.DefaultBaseURL, cfg.Registry)
	assert.Equal(t, []string{"serde"}, cfg.Ignore)
}

// TestLoadConfigInvalidYAML tests the malformed-file error path.
//
// It verifies:
//   - Invalid YAML is reported with the file path
func TestLoadConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bad.yml", "registry: [unclosed\n")

	_, err := LoadConfig(path, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}
