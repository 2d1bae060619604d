package identity

import "github.com/io7m-com/sunburst/internal/sunerr"

// Blob describes a content-addressed byte sequence. It is identified
// solely by Hash; Size and ContentType are advisory metadata. The blob
// store checks a non-zero Size against the number of bytes streamed on
// write; ContentType is recorded but not checked against the content.
type Blob struct {
	Size        uint64
	ContentType string
	Hash        Hash
}

// NewBlob validates contentType is non-empty and constructs a Blob.
func NewBlob(size uint64, contentType string, hash Hash) (Blob, error) {
	if contentType == "" {
		return Blob{}, sunerr.New(sunerr.KindInvalidArgument, "blob content type must not be empty")
	}
	return Blob{Size: size, ContentType: contentType, Hash: hash}, nil
}

// PackageEntry is a (path, blob) pair inside a package. Path is unique
// within a package.
type PackageEntry struct {
	Path Path
	Blob Blob
}
