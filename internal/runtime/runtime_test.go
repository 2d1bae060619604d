package runtime_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/inventory"
	"github.com/io7m-com/sunburst/internal/runtime"
	"github.com/io7m-com/sunburst/internal/sunerr"
)

type staticFactory struct {
	peer identity.Peer
	err  error
}

func (f staticFactory) OpenPeer() (identity.Peer, error) { return f.peer, f.err }

func openTestInventory(t *testing.T) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.OpenReadWrite(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("OpenReadWrite: %v", err)
	}
	t.Cleanup(func() { _ = inv.Close() })
	return inv
}

func putExampleBlobAndPackage(t *testing.T, inv *inventory.Inventory) (identity.PackageIdentifier, identity.Path, identity.Blob) {
	t.Helper()
	ctx := context.Background()
	content := []byte("Hello.")
	sum := sha256.Sum256(content)
	hash, err := identity.NewHash(identity.SHA2_256, sum[:])
	if err != nil {
		t.Fatalf("NewHash: %v", err)
	}
	blob, err := identity.NewBlob(uint64(len(content)), "text/plain", hash)
	if err != nil {
		t.Fatalf("NewBlob: %v", err)
	}
	path, err := identity.ParsePath("/x")
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	id, err := identity.ParsePackageIdentifier("a.b.c:1.0.0")
	if err != nil {
		t.Fatalf("ParsePackageIdentifier: %v", err)
	}

	tx, err := inv.BeginReadWrite(ctx)
	if err != nil {
		t.Fatalf("BeginReadWrite: %v", err)
	}
	if err := tx.AddBlob(ctx, blob, bytes.NewReader(content)); err != nil {
		t.Fatalf("AddBlob: %v", err)
	}
	pkg, err := identity.NewPackage(id, nil, []identity.PackageEntry{{Path: path, Blob: blob}})
	if err != nil {
		t.Fatalf("NewPackage: %v", err)
	}
	if err := tx.PutPackage(ctx, pkg, time.Unix(1000, 0)); err != nil {
		t.Fatalf("PutPackage: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return id, path, blob
}

func TestRuntimeResolveScenario(t *testing.T) {
	inv := openTestInventory(t)
	_, path, blob := putExampleBlobAndPackage(t, inv)

	version, err := identity.ParseVersion("1.0.0")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	peer, err := identity.NewPeer("com.io7m.sunburst.tests", []identity.PackageIdentifier{
		{Name: identity.PackageName("a.b.c"), Version: version},
	})
	if err != nil {
		t.Fatalf("NewPeer: %v", err)
	}
	loader := runtime.StaticLoader{
		func() (runtime.PeerFactory, error) { return staticFactory{peer: peer}, nil },
	}

	rc, err := runtime.Open(context.Background(), inv, loader, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if rc.Status().IsFailed() {
		t.Fatalf("expected runtime context to succeed, got %v", rc.Status())
	}

	gotPath, err := rc.FindFile(context.Background(), "com.io7m.sunburst.tests", "a.b.c", path)
	if err != nil {
		t.Fatalf("FindFile: %v", err)
	}
	content, readErr := os.ReadFile(gotPath)
	if readErr != nil {
		t.Fatalf("read resolved file: %v", readErr)
	}
	sum := sha256.Sum256(content)
	got, err := identity.NewHash(identity.SHA2_256, sum[:])
	if err != nil {
		t.Fatalf("NewHash: %v", err)
	}
	if !got.Equal(blob.Hash) {
		t.Fatalf("resolved file hash mismatch")
	}

	_, err = rc.FindFile(context.Background(), "not.imported", "a.b.c", path)
	if kind, ok := sunerr.KindOf(err); !ok || kind != sunerr.KindPeerMissing {
		t.Fatalf("expected KindPeerMissing, got %v", err)
	}

	_, err = rc.FindFile(context.Background(), "com.io7m.sunburst.tests", "not.imported", path)
	if kind, ok := sunerr.KindOf(err); !ok || kind != sunerr.KindPeerImportMissing {
		t.Fatalf("expected KindPeerImportMissing, got %v", err)
	}
}

func TestRuntimeRecordsUnsatisfiedRequirement(t *testing.T) {
	inv := openTestInventory(t)

	version, err := identity.ParseVersion("9.9.9")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	peer, err := identity.NewPeer("com.io7m.sunburst.tests", []identity.PackageIdentifier{
		{Name: identity.PackageName("missing.package"), Version: version},
	})
	if err != nil {
		t.Fatalf("NewPeer: %v", err)
	}
	loader := runtime.StaticLoader{
		func() (runtime.PeerFactory, error) { return staticFactory{peer: peer}, nil },
	}

	rc, err := runtime.Open(context.Background(), inv, loader, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !rc.Status().IsFailed() {
		t.Fatalf("expected runtime context to be flagged failed")
	}
	if len(rc.Status().Problems) != 1 || rc.Status().Problems[0].Kind != runtime.ProblemUnsatisfiedRequirement {
		t.Fatalf("expected a single unsatisfied-requirement problem, got %v", rc.Status().Problems)
	}
}

func TestRuntimeRecordsBrokenPeerFactory(t *testing.T) {
	inv := openTestInventory(t)

	loader := runtime.StaticLoader{
		func() (runtime.PeerFactory, error) { return nil, errors.New("plugin load failed") },
	}

	rc, err := runtime.Open(context.Background(), inv, loader, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !rc.Status().IsFailed() {
		t.Fatalf("expected runtime context to be flagged failed")
	}
	if rc.Status().Problems[0].Kind != runtime.ProblemBrokenPeerFactory {
		t.Fatalf("expected broken-peer-factory problem, got %v", rc.Status().Problems)
	}
}
