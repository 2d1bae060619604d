package identity

import (
	"strings"

	"github.com/io7m-com/sunburst/internal/sunerr"
)

// PackageIdentifier pairs a package name with a version. Ordering is total:
// by name, then by version.
type PackageIdentifier struct {
	Name    PackageName
	Version Version
}

// ParsePackageIdentifier parses "name:major.minor.patch[-qualifier]".
func ParsePackageIdentifier(s string) (PackageIdentifier, error) {
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return PackageIdentifier{}, sunerr.New(sunerr.KindInvalidArgument, "package identifier must be name:version").WithExtra(s)
	}
	name, err := ParsePackageName(s[:idx])
	if err != nil {
		return PackageIdentifier{}, err
	}
	version, err := ParseVersion(s[idx+1:])
	if err != nil {
		return PackageIdentifier{}, err
	}
	return PackageIdentifier{Name: name, Version: version}, nil
}

// String renders "name:version".
func (id PackageIdentifier) String() string {
	return id.Name.String() + ":" + id.Version.String()
}

// Compare returns -1, 0, or 1 comparing id to other, by name then version.
func (id PackageIdentifier) Compare(other PackageIdentifier) int {
	if c := strings.Compare(string(id.Name), string(other.Name)); c != 0 {
		return c
	}
	return id.Version.Compare(other.Version)
}
