package identity

// Peer is a consumer component declaring imports over package names and
// versions. Imports is keyed by the imported package name's textual form,
// enforcing at most one version per imported package name.
type Peer struct {
	PackageName string
	Imports     map[string]Version
}

// NewPeer constructs a Peer from a package name and an ordered list of
// imports. It returns an error if the same import name is declared twice.
func NewPeer(packageName string, imports []PackageIdentifier) (Peer, error) {
	byName := make(map[string]Version, len(imports))
	for _, imp := range imports {
		name := imp.Name.String()
		if _, exists := byName[name]; exists {
			return Peer{}, duplicateImportError(name)
		}
		byName[name] = imp.Version
	}
	return Peer{PackageName: packageName, Imports: byName}, nil
}
