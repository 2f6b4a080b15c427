// Package manifest provides loading, enumeration, and in-place editing of
// Cargo.toml manifests. Edits are positional text replacements of version
// requirement strings, so every byte outside the updated requirement
// (comments, formatting, unrelated entries) round-trips unchanged.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ajxudir/cargoup/pkg/verbose"
)

// FileName is the manifest file name cargo uses.
const FileName = "Cargo.toml"

var (
	readFileFunc = os.ReadFile
	getwdFunc    = os.Getwd
)

// Entry is a single dependency declaration inside a manifest section.
//
// Fields:
//   - Name: The crate name the entry declares
//   - Value: The decoded TOML value (a string for bare requirements, a map
//     for structured entries with version/git/path/features attributes)
//   - Requirement: The declared version requirement string, empty if the
//     entry carries no version attribute
type Entry struct {
	Name        string
	Value       any
	Requirement string

	// Byte span of the requirement string contents inside the document.
	// reqStart is -1 when the entry has no version requirement to rewrite.
	reqStart int
	reqEnd   int
}

// HasRequirement reports whether the entry declares a version requirement
// that can be rewritten in place.
//
// Returns:
//   - bool: true if the entry has a version requirement string
func (e Entry) HasRequirement() bool {
	return e.reqStart >= 0
}

// Section is one dependency table of a manifest with its entries in
// declaration order.
//
// Fields:
//   - TablePath: The table path as written (e.g., "dependencies",
//     "target.'cfg(unix)'.dev-dependencies")
//   - Entries: The dependency entries in declaration order
type Section struct {
	TablePath string
	Entries   []Entry

	parts []string
}

// Manifest is an in-memory Cargo.toml document.
//
// The manifest is owned by a single updater for the duration of one run:
// it is loaded from disk, mutated through UpdateEntry, and written back
// with Save. It is not safe for concurrent use.
type Manifest struct {
	// Path is the file the manifest was loaded from and will be saved to.
	Path string

	content  []byte
	sections []Section
}

// Open loads a manifest from the given path.
//
// It performs the following operations:
//   - Resolves the manifest location with FindFile when path is empty
//   - Reads the file content
//   - Parses the document and scans its dependency sections
//
// Parameters:
//   - path: Manifest file path, or empty to search the working directory
//     and its ancestors
//
// Returns:
//   - *Manifest: The loaded manifest
//   - error: Returns error if the file cannot be found, read, or parsed;
//     returns nil on success
func Open(path string) (*Manifest, error) {
	resolved, err := FindFile(path)
	if err != nil {
		return nil, err
	}

	content, err := readFileFunc(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", resolved, err)
	}

	m, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", resolved, err)
	}
	m.Path = resolved

	verbose.Printf("Loaded manifest %s (%d dependency sections)", resolved, len(m.sections))

	return m, nil
}

// Parse builds a manifest from raw TOML content without touching the
// filesystem. The returned manifest has no Path; set it before calling Save.
//
// Parameters:
//   - content: Raw Cargo.toml bytes
//
// Returns:
//   - *Manifest: The parsed manifest
//   - error: Returns error if the content is not valid TOML
func Parse(content []byte) (*Manifest, error) {
	sections, err := scanSections(content)
	if err != nil {
		return nil, err
	}

	return &Manifest{content: content, sections: sections}, nil
}

// FindFile resolves the manifest file location.
//
// With an explicit path the file (or Cargo.toml inside an explicit
// directory) must exist. With an empty path the working directory and its
// ancestors are searched, mirroring cargo's own lookup convention.
//
// Parameters:
//   - path: Explicit manifest file or directory path, or empty to search
//
// Returns:
//   - string: Resolved manifest file path
//   - error: Returns error if no manifest file can be located
func FindFile(path string) (string, error) {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("manifest %s not found: %w", path, err)
		}
		if info.IsDir() {
			candidate := filepath.Join(path, FileName)
			if _, err := os.Stat(candidate); err != nil {
				return "", fmt.Errorf("manifest %s not found: %w", candidate, err)
			}
			return candidate, nil
		}
		return path, nil
	}

	dir, err := getwdFunc()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", FileName, dir)
		}
		dir = parent
	}
}

// Sections returns the manifest's dependency sections in declaration order.
//
// The returned slices are snapshots; they are not invalidated by subsequent
// UpdateEntry calls, but requirement values reflect the state at call time.
//
// Returns:
//   - []Section: Dependency sections in declaration order
func (m *Manifest) Sections() []Section {
	return m.sections
}

// Content returns the current document bytes.
//
// Returns:
//   - []byte: The manifest content including any applied updates
func (m *Manifest) Content() []byte {
	return m.content
}

// UpdateEntry rewrites the version requirement of one dependency entry.
//
// It performs the following operations:
//   - Locates the entry by table path and crate name
//   - Replaces the requirement string contents at its exact byte position
//   - Rescans the document so later updates see correct positions
//
// Parameters:
//   - tablePath: The section's table path as returned by Sections
//   - name: The crate name of the entry to update
//   - requirement: The new version requirement string
//
// Returns:
//   - error: Returns error if the entry does not exist or has no rewritable
//     version requirement; returns nil on success
func (m *Manifest) UpdateEntry(tablePath, name, requirement string) error {
	entry := m.findEntry(tablePath, name)
	if entry == nil {
		return fmt.Errorf("dependency %s not found in [%s]", name, tablePath)
	}
	if !entry.HasRequirement() {
		return fmt.Errorf("dependency %s in [%s] has no version requirement to update", name, tablePath)
	}

	updated := make([]byte, 0, len(m.content)+len(requirement))
	updated = append(updated, m.content[:entry.reqStart]...)
	updated = append(updated, requirement...)
	updated = append(updated, m.content[entry.reqEnd:]...)

	sections, err := scanSections(updated)
	if err != nil {
		return fmt.Errorf("update of %s produced invalid manifest: %w", name, err)
	}

	m.content = updated
	m.sections = sections

	return nil
}

// Save writes the manifest back to its originating path.
//
// The write is atomic from the caller's perspective: content goes to a
// temporary file in the same directory which is then renamed over the
// manifest, preserving the original file permissions.
//
// Returns:
//   - error: Returns error if the manifest has no path or the write fails;
//     returns nil on success
func (m *Manifest) Save() error {
	if m.Path == "" {
		return fmt.Errorf("manifest has no file path to save to")
	}

	if err := writeFilePreservingPermissions(m.Path, m.content, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", m.Path, err)
	}

	verbose.Printf("Wrote manifest %s", m.Path)

	return nil
}

// findEntry returns a pointer to the entry with the given table path and
// name, or nil if absent.
func (m *Manifest) findEntry(tablePath, name string) *Entry {
	for si := range m.sections {
		if m.sections[si].TablePath != tablePath {
			continue
		}
		for ei := range m.sections[si].Entries {
			if m.sections[si].Entries[ei].Name == name {
				return &m.sections[si].Entries[ei]
			}
		}
	}
	return nil
}
