package identity

import (
	"crypto/sha256"
	"testing"
)

func TestHashRoundTrip(t *testing.T) {
	sum := sha256.Sum256([]byte("Hello."))
	h, err := NewHash(SHA2_256, sum[:])
	if err != nil {
		t.Fatalf("NewHash: %v", err)
	}
	text := h.String()
	parsed, err := ParseHash(text)
	if err != nil {
		t.Fatalf("ParseHash(%q): %v", text, err)
	}
	if !parsed.Equal(h) {
		t.Fatalf("round-trip mismatch")
	}
	if parsed.String() != text {
		t.Fatalf("printed form mismatch: %q != %q", parsed.String(), text)
	}
}

// TestHashHelloBlob pins the exact digest used by the "hello blob"
// end-to-end scenario in the blobstore, inventory and CLI tests.
func TestHashHelloBlob(t *testing.T) {
	sum := sha256.Sum256([]byte("Hello."))
	h, err := NewHash(SHA2_256, sum[:])
	if err != nil {
		t.Fatalf("NewHash: %v", err)
	}
	const want = "SHA2_256:2D8BD7D9BB5F85BA643F0110D50CB506A1FE439E769A22503193EA6046BB87F7"
	if h.String() != want {
		t.Fatalf("got %q want %q", h.String(), want)
	}
}

func TestHashWrongDigestSize(t *testing.T) {
	if _, err := NewHash(SHA2_256, []byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for short digest")
	}
}

func TestHashCompareByAlgorithmThenBytes(t *testing.T) {
	a, _ := NewHash(SHA2_256, make([]byte, 32))
	b := a
	b.Bytes = append([]byte(nil), a.Bytes...)
	b.Bytes[31] = 1
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b lexicographically")
	}
}

func TestParseHashRejectsMalformed(t *testing.T) {
	cases := []string{"", "SHA2_256", "SHA2_256:zz", "UNKNOWN:00"}
	for _, c := range cases {
		if _, err := ParseHash(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}
