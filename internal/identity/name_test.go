package identity

import "testing"

func TestParsePackageName(t *testing.T) {
	valid, err := ParsePackageName("com.io7m.example.main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid.String() != "com.io7m.example.main" {
		t.Fatalf("round-trip mismatch: %q", valid.String())
	}

	cases := []string{"", "Com.Example", "com..example", "com.example.", "-com.example", "com.exam ple"}
	for _, c := range cases {
		if _, err := ParsePackageName(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}
