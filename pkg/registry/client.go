// Package registry provides a client for the crates.io versions API.
// It resolves a crate name to the latest published release, optionally
// considering prerelease versions, and skips yanked releases.
package registry

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	semver "github.com/Masterminds/semver/v3"

	"github.com/ajxudir/cargoup/pkg/verbose"
)

// DefaultBaseURL is the registry queried when no override is configured.
const DefaultBaseURL = "https://crates.io"

// userAgent identifies cargoup to the registry. crates.io rejects requests
// without a user agent.
const userAgent = "cargoup (https://github.com/ajxudir/cargoup)"

// Dependency is a crate name resolved to a version requirement suitable for
// insertion into a manifest dependency entry.
//
// Fields:
//   - Name: The crate name as it appears in the registry
//   - Version: The resolved version requirement string (e.g., "2.3.1")
type Dependency struct {
	Name    string
	Version string
}

// Client is a crates.io API client.
//
// Lookups are blocking, sequential HTTP calls; the client performs no
// retries, so any transport or API failure surfaces immediately.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a registry client for the given base URL.
//
// Parameters:
//   - baseURL: Registry base URL; empty selects DefaultBaseURL
//
// Returns:
//   - *Client: Configured client with a tuned transport and 30s timeout
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Transport: tr, Timeout: 30 * time.Second},
	}
}

// BaseURL returns the registry base URL the client was configured with.
//
// Returns:
//   - string: The base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.base
}

// crateVersion is one element of the versions API response.
type crateVersion struct {
	Num    string `json:"num"`
	Yanked bool   `json:"yanked"`
}

// versionsResponse is the body of GET /api/v1/crates/{name}/versions.
type versionsResponse struct {
	Versions []crateVersion `json:"versions"`
}

// Latest resolves a crate name to its latest published version.
//
// It performs the following operations:
//   - Fetches the crate's version list from the registry
//   - Skips yanked versions
//   - Skips prerelease versions unless allowPrerelease is true
//   - Returns the highest remaining version by semver ordering
//
// Parameters:
//   - name: The crate name to look up
//   - allowPrerelease: Whether prerelease versions are acceptable candidates
//
// Returns:
//   - Dependency: The crate name paired with the resolved version requirement
//   - error: Returns error if the crate is unknown, the request fails, or no
//     version satisfies the criteria; returns nil on success
func (c *Client) Latest(name string, allowPrerelease bool) (Dependency, error) {
	resp, err := c.fetchVersions(name)
	if err != nil {
		return Dependency{}, err
	}

	var best *semver.Version
	for _, v := range resp.Versions {
		if v.Yanked {
			continue
		}

		parsed, parseErr := semver.NewVersion(v.Num)
		if parseErr != nil {
			verbose.Printf("Skipping unparsable version %q of %s: %v", v.Num, name, parseErr)
			continue
		}

		if parsed.Prerelease() != "" && !allowPrerelease {
			continue
		}

		if best == nil || parsed.GreaterThan(best) {
			best = parsed
		}
	}

	if best == nil {
		return Dependency{}, fmt.Errorf("no available versions of crate %s", name)
	}

	verbose.Printf("Resolved %s -> %s", name, best.Original())

	return Dependency{Name: name, Version: best.Original()}, nil
}

// fetchVersions performs the versions API request for a crate.
//
// Parameters:
//   - name: The crate name to fetch
//
// Returns:
//   - *versionsResponse: Decoded version list
//   - error: Returns error on transport failure, unknown crate (404),
//     unexpected status, or malformed response body
func (c *Client) fetchVersions(name string) (*versionsResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/crates/%s/versions", c.base, url.PathEscape(name))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request for %s: %w", name, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch versions for %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("crate %s not found in registry", name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("registry returned status %d for %s", resp.StatusCode, name)
	}

	var body versionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode registry response for %s: %w", name, err)
	}

	return &body, nil
}
