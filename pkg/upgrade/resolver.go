// Package upgrade implements the dependency-upgrade engine: it decides which
// manifest entries are eligible, resolves crate names to their latest
// registry release (directly or through a per-run version cache), rewrites
// the entries in place, and coordinates the process across a workspace.
package upgrade

import (
	"fmt"

	pkgerrors "github.com/ajxudir/cargoup/pkg/errors"
	"github.com/ajxudir/cargoup/pkg/registry"
	"github.com/ajxudir/cargoup/pkg/verbose"
	"github.com/ajxudir/cargoup/pkg/workspace"
)

// workspacePackagesFunc is a variable that holds workspace.Packages.
// This allows for dependency injection during testing.
var workspacePackagesFunc = workspace.Packages

// Resolver resolves a crate name to its latest version. The single-manifest
// updater is written against this interface so the direct-lookup and
// cache-backed modes share one traversal.
type Resolver interface {
	// Latest returns the latest version of the named crate.
	Latest(name string) (registry.Dependency, error)
}

// ResolverFunc is a function type that implements Resolver.
type ResolverFunc func(name string) (registry.Dependency, error)

// Latest implements Resolver for ResolverFunc.
//
// Parameters:
//   - name: The crate name to resolve
//
// Returns:
//   - registry.Dependency: The resolved dependency
//   - error: Returns error if the underlying function fails
func (f ResolverFunc) Latest(name string) (registry.Dependency, error) {
	return f(name)
}

// NewRegistryResolver returns a Resolver that performs one blocking registry
// lookup per call.
//
// Parameters:
//   - client: The registry client to query
//   - allowPrerelease: Whether prerelease versions are acceptable candidates
//
// Returns:
//   - Resolver: A direct-lookup resolver
func NewRegistryResolver(client *registry.Client, allowPrerelease bool) Resolver {
	return ResolverFunc(func(name string) (registry.Dependency, error) {
		return client.Latest(name, allowPrerelease)
	})
}

// VersionCache maps crate names to their resolved latest version. It is
// built once per workspace run, read-only afterwards, and never persisted.
type VersionCache map[string]registry.Dependency

// Latest implements Resolver from the precomputed cache.
//
// A name absent from the cache is an internal-consistency fault: cache
// construction guarantees every name the traversal can ask for is present.
//
// Parameters:
//   - name: The crate name to look up
//
// Returns:
//   - registry.Dependency: The cached dependency
//   - error: Returns an InternalError if the name is missing from the cache
func (c VersionCache) Latest(name string) (registry.Dependency, error) {
	dep, ok := c[name]
	if !ok {
		return registry.Dependency{}, pkgerrors.NewInternalErrorf("cache lookup", "crate %s missing from version cache", name)
	}
	return dep, nil
}

// BuildCache resolves each distinct name once and collects the results.
//
// Any lookup failure aborts construction; a partial cache is never returned.
//
// Parameters:
//   - names: The crate names to resolve; duplicates are resolved once
//   - resolver: The resolver performing the lookups
//
// Returns:
//   - VersionCache: Cache with one entry per distinct name
//   - error: Returns error on the first failed lookup; returns nil on success
func BuildCache(names []string, resolver Resolver) (VersionCache, error) {
	cache := make(VersionCache, len(names))
	for _, name := range names {
		if _, ok := cache[name]; ok {
			continue
		}
		dep, err := resolver.Latest(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve latest version of %s: %w", name, err)
		}
		cache[name] = dep
	}

	verbose.Printf("Version cache built with %d entries", len(cache))

	return cache, nil
}

// collectDependencyNames gathers the deduplicated union of the registry
// dependencies declared by the workspace packages, in first-seen order.
// Names excluded by the selector never reach the registry.
//
// Parameters:
//   - pkgs: The workspace member packages
//   - sel: The selector restricting which names qualify
//
// Returns:
//   - []string: Distinct crate names in first-seen order
func collectDependencyNames(pkgs []workspace.Package, sel Selector) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range pkgs {
		for _, d := range p.Dependencies {
			if !d.IsRegistry() {
				verbose.Printf("Skipping %s (not a registry dependency)", d.Name)
				continue
			}
			if !sel.Matches(d.Name) || seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	return names
}
