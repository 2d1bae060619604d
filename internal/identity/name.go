// Package identity implements Sunburst's value types: package names,
// versions, identifiers, virtual paths, hash algorithms, hashes, blobs,
// package entries, packages, and peers. Every constructor here validates
// syntax and returns a *sunerr.Error on failure; every type is immutable
// once constructed, and parse(text)/String() are inverses of one another
// (the round-trip law exercised by the package's tests).
package identity

import (
	"regexp"

	"github.com/io7m-com/sunburst/internal/sunerr"
)

// PackageName is a dotted, lowercase, hyphen/underscore-tolerant name such
// as "com.io7m.example.main". Case-sensitive, <= 255 characters.
type PackageName string

var packageNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*(\.[a-z][a-z0-9_-]*)*$`)

// ParsePackageName validates s and returns it as a PackageName.
func ParsePackageName(s string) (PackageName, error) {
	if len(s) == 0 || len(s) > 255 {
		return "", sunerr.New(sunerr.KindInvalidArgument, "package name must be 1-255 characters").WithExtra(s)
	}
	if !packageNamePattern.MatchString(s) {
		return "", sunerr.New(sunerr.KindInvalidArgument, "package name does not match the required syntax").WithExtra(s)
	}
	return PackageName(s), nil
}

// String returns the textual form of the package name.
func (n PackageName) String() string { return string(n) }
