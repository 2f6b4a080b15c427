package upgrade

// IsRegistryDependency reports whether a dependency entry value can be
// upgraded from the registry.
//
// A structured value is eligible iff it carries neither a git nor a path
// attribute; any other attribute (version, features, optional, ...) does not
// disqualify it. A bare requirement string is always eligible, since it
// cannot encode a non-registry source.
//
// Parameters:
//   - value: The entry's decoded TOML value
//
// Returns:
//   - bool: true if the entry is registry-eligible
func IsRegistryDependency(value any) bool {
	table, ok := value.(map[string]any)
	if !ok {
		return true
	}
	if _, has := table["git"]; has {
		return false
	}
	if _, has := table["path"]; has {
		return false
	}
	return true
}
