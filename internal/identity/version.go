package identity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/io7m-com/sunburst/internal/sunerr"
)

// SnapshotQualifier is the qualifier value that marks a version mutable.
const SnapshotQualifier = "SNAPSHOT"

var qualifierPattern = regexp.MustCompile(`^[A-Za-z_0-9]{1,255}$`)

// Version is major.minor.patch plus an optional qualifier. Major, minor,
// and patch are compared as unsigned integers; Qualifier is the empty
// string when absent.
type Version struct {
	Major     uint32
	Minor     uint32
	Patch     uint32
	Qualifier string
}

// IsSnapshot reports whether this version's qualifier is exactly
// "SNAPSHOT", i.e. whether it is mutable in place.
func (v Version) IsSnapshot() bool { return v.Qualifier == SnapshotQualifier }

// HasQualifier reports whether a qualifier is present.
func (v Version) HasQualifier() bool { return v.Qualifier != "" }

// ParseVersion parses "major.minor.patch" or "major.minor.patch-qualifier".
func ParseVersion(s string) (Version, error) {
	base := s
	qualifier := ""
	if idx := strings.IndexByte(s, '-'); idx >= 0 {
		base = s[:idx]
		qualifier = s[idx+1:]
		if !qualifierPattern.MatchString(qualifier) {
			return Version{}, sunerr.New(sunerr.KindInvalidArgument, "version qualifier does not match the required syntax").WithExtra(s)
		}
	}
	parts := strings.Split(base, ".")
	if len(parts) != 3 {
		return Version{}, sunerr.New(sunerr.KindInvalidArgument, "version must be major.minor.patch[-qualifier]").WithExtra(s)
	}
	nums := make([]uint32, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Version{}, sunerr.Wrap(sunerr.KindInvalidArgument, "version component is not an unsigned integer", err).WithExtra(s)
		}
		nums[i] = uint32(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Qualifier: qualifier}, nil
}

// String renders the version in its canonical textual form.
func (v Version) String() string {
	if v.Qualifier == "" {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	return fmt.Sprintf("%d.%d.%d-%s", v.Major, v.Minor, v.Patch, v.Qualifier)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other. Ordering is lexicographic on (major, minor, patch) and then on
// qualifier, with the tie-break that an absent qualifier sorts after any
// present qualifier (a release is greater than its snapshots).
func (v Version) Compare(other Version) int {
	if c := compareUint32(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint32(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareUint32(v.Patch, other.Patch); c != 0 {
		return c
	}
	return compareQualifier(v.Qualifier, other.Qualifier)
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareQualifier implements the documented tie-break: absent (empty)
// sorts after present, and two present qualifiers compare lexicographically.
func compareQualifier(a, b string) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "" && b != "":
		return 1
	case a != "" && b == "":
		return -1
	default:
		return strings.Compare(a, b)
	}
}
