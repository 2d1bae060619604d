package identity

import (
	"regexp"
	"strings"

	"github.com/io7m-com/sunburst/internal/sunerr"
)

var pathSegmentPattern = regexp.MustCompile(`^[a-z0-9_-][a-z0-9_.-]*$`)

// Path is an absolute virtual path rooted at "/", made of one or more
// lowercase segments. The textual form is "/"-separated; consecutive
// slashes collapse on parse and the empty string is never valid.
type Path struct {
	segments []string
}

// ParsePath validates and parses s into a Path.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, sunerr.New(sunerr.KindInvalidArgument, "path must not be empty")
	}
	if len(s) > 255 {
		return Path{}, sunerr.New(sunerr.KindInvalidArgument, "path must be at most 255 characters total").WithExtra(s)
	}
	raw := strings.Split(s, "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "" {
			// Collapses both the leading slash and any run of consecutive
			// slashes; a run of N slashes produces N-1 empty segments here.
			continue
		}
		if len(seg) > 255 || !pathSegmentPattern.MatchString(seg) {
			return Path{}, sunerr.New(sunerr.KindInvalidArgument, "path segment does not match the required syntax").WithExtra(seg)
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return Path{}, sunerr.New(sunerr.KindInvalidArgument, "path must contain at least one segment").WithExtra(s)
	}
	return Path{segments: segments}, nil
}

// String renders the canonical "/"-prefixed, "/"-joined textual form.
func (p Path) String() string {
	return "/" + strings.Join(p.segments, "/")
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Equal reports whether p and other are the same path.
func (p Path) Equal(other Path) bool {
	return p.String() == other.String()
}
