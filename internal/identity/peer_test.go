package identity

import "testing"

func TestNewPeerRejectsDuplicateImportName(t *testing.T) {
	id1, _ := ParsePackageIdentifier("a.b:1.0.0")
	id2, _ := ParsePackageIdentifier("a.b:2.0.0")
	if _, err := NewPeer("com.example.peer", []PackageIdentifier{id1, id2}); err == nil {
		t.Fatalf("expected error for two versions of the same import name")
	}
}

func TestNewPeerIndexesImportsByName(t *testing.T) {
	id, _ := ParsePackageIdentifier("a.b:1.0.0")
	p, err := NewPeer("com.example.peer", []PackageIdentifier{id})
	if err != nil {
		t.Fatalf("NewPeer: %v", err)
	}
	v, ok := p.Imports["a.b"]
	if !ok {
		t.Fatalf("expected import keyed by package name")
	}
	if v.Compare(id.Version) != 0 {
		t.Fatalf("expected import version to match")
	}
}
