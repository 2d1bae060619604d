package identity

import "testing"

func TestPathRoundTrip(t *testing.T) {
	cases := []string{"/a/b/c", "/x", "/a.b/c-d/e_f"}
	for _, c := range cases {
		p, err := ParsePath(c)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", c, err)
		}
		if p.String() != c {
			t.Errorf("round-trip mismatch: parsed %q printed %q", c, p.String())
		}
	}
}

func TestPathCollapsesConsecutiveSlashes(t *testing.T) {
	p, err := ParsePath("/a//b")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if p.String() != "/a/b" {
		t.Errorf("expected collapsed path /a/b, got %q", p.String())
	}
}

func TestPathEmptyIsInvalid(t *testing.T) {
	if _, err := ParsePath(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestPathRejectsUppercaseAndInvalidChars(t *testing.T) {
	cases := []string{"/A/b", "/a/B", "/a/b?"}
	for _, c := range cases {
		if _, err := ParsePath(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}
