package identity

// Package is a named, versioned bundle of entries with metadata. Entries
// are keyed by their path's canonical textual form, which enforces
// uniqueness of path within a package at construction time.
type Package struct {
	Identifier PackageIdentifier
	Metadata   map[string]string
	Entries    map[string]PackageEntry
}

// NewPackage constructs a Package from an identifier, metadata, and an
// ordered list of entries. It returns an error if any two entries share a
// path.
func NewPackage(identifier PackageIdentifier, metadata map[string]string, entries []PackageEntry) (Package, error) {
	byPath := make(map[string]PackageEntry, len(entries))
	for _, e := range entries {
		key := e.Path.String()
		if _, exists := byPath[key]; exists {
			return Package{}, duplicatePathError(key)
		}
		byPath[key] = e
	}
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	return Package{Identifier: identifier, Metadata: md, Entries: byPath}, nil
}

// EntryList returns the package's entries in an arbitrary, stable-enough
// order for iteration (callers needing a deterministic order should sort
// by Path.String()).
func (p Package) EntryList() []PackageEntry {
	out := make([]PackageEntry, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, e)
	}
	return out
}
