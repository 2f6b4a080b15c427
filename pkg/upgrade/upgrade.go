package upgrade

import (
	"fmt"

	"github.com/ajxudir/cargoup/pkg/manifest"
	"github.com/ajxudir/cargoup/pkg/registry"
	"github.com/ajxudir/cargoup/pkg/verbose"
)

// Selector restricts which dependency entries qualify for upgrade.
//
// Fields:
//   - Only: Explicit crate names; empty means every eligible entry qualifies.
//     Names listed here that are absent from a manifest are not errors — the
//     selector is a filter, not a requirement.
//   - Ignore: Crate names never upgraded, regardless of Only
type Selector struct {
	Only   []string
	Ignore []string
}

// Matches reports whether a crate name passes the selector.
//
// Parameters:
//   - name: The crate name to test
//
// Returns:
//   - bool: true if the name qualifies for upgrade
func (s Selector) Matches(name string) bool {
	for _, ignored := range s.Ignore {
		if name == ignored {
			return false
		}
	}
	if len(s.Only) == 0 {
		return true
	}
	for _, only := range s.Only {
		if name == only {
			return true
		}
	}
	return false
}

// Change records one applied (or planned, under dry-run) entry upgrade.
//
// Fields:
//   - Crate: The crate name
//   - Section: The dependency table the entry lives in
//   - ManifestPath: The manifest file the entry belongs to
//   - From: The requirement before the upgrade
//   - To: The requirement written by the upgrade
type Change struct {
	Crate        string
	Section      string
	ManifestPath string
	From         string
	To           string
}

// Options configures an upgrade run.
//
// Fields:
//   - ManifestPath: Explicit manifest path, empty to search for one
//   - All: Upgrade every member package of the workspace
//   - Selector: Entry filter (explicit names and ignore list)
//   - AllowPrerelease: Whether prerelease versions are acceptable
//   - DryRun: Resolve and plan but do not write any file
//   - Registry: Registry client; nil selects the default crates.io client
type Options struct {
	ManifestPath    string
	All             bool
	Selector        Selector
	AllowPrerelease bool
	DryRun          bool
	Registry        *registry.Client
}

// Run executes an upgrade per the options: a single-manifest run with direct
// registry lookups, or a whole-workspace run with a shared version cache.
//
// Parameters:
//   - opts: The run configuration
//
// Returns:
//   - []Change: Every entry upgrade applied (or planned under dry-run)
//   - error: Returns error on the first failure; the run is fail-fast
func Run(opts Options) ([]Change, error) {
	client := opts.Registry
	if client == nil {
		client = registry.NewClient("")
	}
	resolver := NewRegistryResolver(client, opts.AllowPrerelease)

	if opts.All {
		return upgradeWorkspace(opts, resolver)
	}

	return UpgradeManifest(opts.ManifestPath, opts.Selector, resolver, opts.DryRun)
}

// UpgradeManifest applies eligible upgrades to one manifest.
//
// It performs the following operations:
//   - Opens the manifest (searching for one when path is empty)
//   - Visits dependency sections and entries in declaration order
//   - Filters entries through the selector and the eligibility predicate
//   - Resolves each passing name through the resolver and rewrites the entry
//   - Persists the manifest unless dryRun is set
//
// Entries that pass the filters but declare no version requirement (e.g.
// workspace-inherited entries) are skipped with a note rather than failing.
//
// Parameters:
//   - path: Manifest file path, empty to search
//   - sel: The entry selector
//   - resolver: Version resolution source (direct lookups or a cache)
//   - dryRun: When true, nothing is written to disk
//
// Returns:
//   - []Change: The upgrades applied to this manifest
//   - error: Returns error on load, resolution, update, or write failure;
//     returns nil on success
func UpgradeManifest(path string, sel Selector, resolver Resolver, dryRun bool) ([]Change, error) {
	m, err := manifest.Open(path)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for _, sec := range m.Sections() {
		for _, e := range sec.Entries {
			if !sel.Matches(e.Name) {
				continue
			}
			if !IsRegistryDependency(e.Value) {
				verbose.Printf("Skipping %s in [%s] (git or path dependency)", e.Name, sec.TablePath)
				continue
			}
			if !e.HasRequirement() {
				verbose.Printf("Skipping %s in [%s] (no version requirement)", e.Name, sec.TablePath)
				continue
			}

			dep, err := resolver.Latest(e.Name)
			if err != nil {
				return nil, err
			}

			if err := m.UpdateEntry(sec.TablePath, e.Name, dep.Version); err != nil {
				return nil, err
			}

			changes = append(changes, Change{
				Crate:        e.Name,
				Section:      sec.TablePath,
				ManifestPath: m.Path,
				From:         e.Requirement,
				To:           dep.Version,
			})
		}
	}

	if dryRun {
		verbose.Printf("Dry run: not writing %s", m.Path)
		return changes, nil
	}

	if err := m.Save(); err != nil {
		return nil, err
	}

	return changes, nil
}

// upgradeWorkspace upgrades every member package of the workspace using a
// version cache shared across all manifests.
//
// The cache is built once: from the explicit selector names when given,
// otherwise from the deduplicated union of every member's direct registry
// dependencies. Each manifest is then updated in cached mode, in cargo's
// package order. The run is fail-fast and not transactional: a failure stops
// the loop, and manifests already written stay written.
//
// Parameters:
//   - opts: The run configuration
//   - direct: The direct-lookup resolver used to populate the cache
//
// Returns:
//   - []Change: Upgrades applied across all manifests before any failure
//   - error: Returns error on discovery, cache construction, or any
//     per-manifest failure; returns nil on success
func upgradeWorkspace(opts Options, direct Resolver) ([]Change, error) {
	pkgs, err := workspacePackagesFunc(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	var cacheNames []string
	if len(opts.Selector.Only) > 0 {
		for _, name := range opts.Selector.Only {
			if opts.Selector.Matches(name) {
				cacheNames = append(cacheNames, name)
			}
		}
	} else {
		cacheNames = collectDependencyNames(pkgs, opts.Selector)
	}

	cache, err := BuildCache(cacheNames, direct)
	if err != nil {
		return nil, err
	}

	var all []Change
	for _, p := range pkgs {
		verbose.Printf("Upgrading manifest of %s", p.Name)

		changes, err := UpgradeManifest(p.ManifestPath, opts.Selector, cache, opts.DryRun)
		if err != nil {
			return all, fmt.Errorf("failed to upgrade %s: %w", p.ManifestPath, err)
		}
		all = append(all, changes...)
	}

	return all, nil
}
