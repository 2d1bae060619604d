package identity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/io7m-com/sunburst/internal/sunerr"
)

// HashAlgorithm is a closed, extensible enum of supported digest
// algorithms. Each algorithm carries a stable numeric Index (used to order
// Hash values across algorithms), a canonical textual Text identifier, and
// its DigestSize in bytes.
type HashAlgorithm struct {
	Index      int
	Text       string
	DigestSize int
	newHash    func() hash.Hash
}

// SHA2_256 is the only currently-supported algorithm.
var SHA2_256 = HashAlgorithm{Index: 0, Text: "SHA2_256", DigestSize: sha256.Size, newHash: sha256.New}

var algorithmsByText = map[string]HashAlgorithm{
	SHA2_256.Text: SHA2_256,
}

// New returns a fresh hash.Hash computing this algorithm's digest.
func (a HashAlgorithm) New() hash.Hash { return a.newHash() }

// String returns the canonical textual identifier.
func (a HashAlgorithm) String() string { return a.Text }

// ParseHashAlgorithm looks up an algorithm by its canonical text.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	a, ok := algorithmsByText[s]
	if !ok {
		return HashAlgorithm{}, sunerr.New(sunerr.KindInvalidArgument, "unknown hash algorithm").WithExtra(s)
	}
	return a, nil
}

// Hash is an algorithm-tagged digest. Equality and ordering compare the
// algorithm index first, then the digest bytes lexicographically. The
// textual form is "ALGO:HEX" with the hex digits in upper case.
type Hash struct {
	Algorithm HashAlgorithm
	Bytes     []byte
}

// NewHash validates that bytes has the algorithm's expected digest size and
// returns a Hash.
func NewHash(algorithm HashAlgorithm, digestBytes []byte) (Hash, error) {
	if len(digestBytes) != algorithm.DigestSize {
		return Hash{}, sunerr.New(sunerr.KindInvalidArgument, "hash digest has the wrong size for its algorithm")
	}
	out := make([]byte, len(digestBytes))
	copy(out, digestBytes)
	return Hash{Algorithm: algorithm, Bytes: out}, nil
}

// ParseHash parses "ALGO:HEX".
func ParseHash(s string) (Hash, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return Hash{}, sunerr.New(sunerr.KindInvalidArgument, "hash must be ALGO:HEX").WithExtra(s)
	}
	algorithm, err := ParseHashAlgorithm(s[:idx])
	if err != nil {
		return Hash{}, err
	}
	digestBytes, err := hex.DecodeString(strings.ToLower(s[idx+1:]))
	if err != nil {
		return Hash{}, sunerr.Wrap(sunerr.KindInvalidArgument, "hash digest is not valid hexadecimal", err).WithExtra(s)
	}
	return NewHash(algorithm, digestBytes)
}

// String renders "ALGO:HEX" with upper-case hex.
func (h Hash) String() string {
	return h.Algorithm.Text + ":" + strings.ToUpper(hex.EncodeToString(h.Bytes))
}

// HexUpper returns the upper-case hex encoding of the digest bytes alone,
// as used in the blob store's on-disk sharded path.
func (h Hash) HexUpper() string {
	return strings.ToUpper(hex.EncodeToString(h.Bytes))
}

// Compare returns -1, 0, or 1 comparing h to other: algorithm index first,
// then digest bytes lexicographically.
func (h Hash) Compare(other Hash) int {
	if h.Algorithm.Index != other.Algorithm.Index {
		if h.Algorithm.Index < other.Algorithm.Index {
			return -1
		}
		return 1
	}
	return bytes.Compare(h.Bytes, other.Bytes)
}

// Equal reports whether h and other denote the same hash.
func (h Hash) Equal(other Hash) bool { return h.Compare(other) == 0 }
