package identity

import "testing"

func TestPackageIdentifierRoundTrip(t *testing.T) {
	cases := []string{"com.io7m.example.main:1.0.0", "a.b.c:1.0.0-SNAPSHOT"}
	for _, c := range cases {
		id, err := ParsePackageIdentifier(c)
		if err != nil {
			t.Fatalf("ParsePackageIdentifier(%q): %v", c, err)
		}
		if id.String() != c {
			t.Errorf("round-trip mismatch: parsed %q printed %q", c, id.String())
		}
	}
}

func TestPackageIdentifierOrdering(t *testing.T) {
	a, _ := ParsePackageIdentifier("a.b:1.0.0")
	b, _ := ParsePackageIdentifier("b.c:1.0.0")
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a.b < b.c by name")
	}
	a2, _ := ParsePackageIdentifier("a.b:1.0.0")
	a3, _ := ParsePackageIdentifier("a.b:2.0.0")
	if a2.Compare(a3) >= 0 {
		t.Fatalf("expected same name to order by version")
	}
}

func TestPackageIdentifierParseError(t *testing.T) {
	if _, err := ParsePackageIdentifier("missing-colon"); err == nil {
		t.Fatalf("expected error for identifier with no version separator")
	}
}
