package registry

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newVersionsServer starts a test registry serving a fixed versions payload
// for a single crate and a 404 for everything else.
func newVersionsServer(t *testing.T, crate, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/crates/"+crate+"/versions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestLatestPicksHighestRelease tests selection of the newest release version.
//
// It verifies:
//   - The highest non-yanked release is returned
//   - Version list order does not matter
func TestLatestPicksHighestRelease(t *testing.T) {
	srv := newVersionsServer(t, "serde", `{"versions":[
		{"num":"1.0.0","yanked":false},
		{"num":"1.2.0","yanked":false},
		{"num":"1.1.3","yanked":false}
	]}`)

	dep, err := NewClient(srv.URL).Latest("serde", false)
	require.NoError(t, err)
	assert.Equal(t, Dependency{Name: "serde", Version: "1.2.0"}, dep)
}

// TestLatestSkipsYanked tests that yanked versions are never candidates.
//
// It verifies:
//   - A yanked newer version is skipped in favor of the latest intact one
func TestLatestSkipsYanked(t *testing.T) {
	srv := newVersionsServer(t, "rand", `{"versions":[
		{"num":"0.9.0","yanked":true},
		{"num":"0.8.5","yanked":false}
	]}`)

	dep, err := NewClient(srv.URL).Latest("rand", false)
	require.NoError(t, err)
	assert.Equal(t, "0.8.5", dep.Version)
}

// TestLatestPrereleaseHandling tests the allow-prerelease toggle.
//
// It verifies:
//   - Prereleases are excluded by default
//   - Prereleases are candidates when allowPrerelease is true
func TestLatestPrereleaseHandling(t *testing.T) {
	payload := `{"versions":[
		{"num":"0.7.0-alpha.1","yanked":false},
		{"num":"0.6.0","yanked":false}
	]}`

	srv := newVersionsServer(t, "tokio", payload)
	client := NewClient(srv.URL)

	stable, err := client.Latest("tokio", false)
	require.NoError(t, err)
	assert.Equal(t, "0.6.0", stable.Version)

	pre, err := client.Latest("tokio", true)
	require.NoError(t, err)
	assert.Equal(t, "0.7.0-alpha.1", pre.Version)
}

// TestLatestCrateNotFound tests the unknown-crate error path.
//
// It verifies:
//   - A 404 response produces a "not found" error naming the crate
func TestLatestCrateNotFound(t *testing.T) {
	srv := newVersionsServer(t, "serde", `{"versions":[]}`)

	_, err := NewClient(srv.URL).Latest("no-such-crate", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-crate not found")
}

// TestLatestNoUsableVersions tests crates with nothing to offer.
//
// It verifies:
//   - An empty version list is an error
//   - A list of only yanked versions is an error
func TestLatestNoUsableVersions(t *testing.T) {
	srv := newVersionsServer(t, "ghost", `{"versions":[{"num":"1.0.0","yanked":true}]}`)

	_, err := NewClient(srv.URL).Latest("ghost", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no available versions")
}

// TestLatestServerError tests unexpected HTTP statuses.
//
// It verifies:
//   - Non-200 responses other than 404 are reported with the status code
func TestLatestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Latest("serde", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

// TestLatestMalformedBody tests decode failures.
//
// It verifies:
//   - A non-JSON body produces a decode error with context
func TestLatestMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Latest("serde", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode registry response")
}

// TestNewClientDefaults tests client construction defaults.
//
// It verifies:
//   - An empty base URL selects the public crates.io endpoint
//   - Trailing slashes are trimmed from custom base URLs
func TestNewClientDefaults(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("").BaseURL())
	assert.Equal(t, "http://localhost:8080", NewClient("http://localhost:8080/").BaseURL())
}
