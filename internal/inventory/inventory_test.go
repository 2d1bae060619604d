package inventory_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/inventory"
	"github.com/io7m-com/sunburst/internal/sunerr"
)

func helloBlob(t *testing.T) (identity.Blob, []byte) {
	t.Helper()
	content := []byte("Hello.")
	sum := sha256.Sum256(content)
	h, err := identity.NewHash(identity.SHA2_256, sum[:])
	if err != nil {
		t.Fatalf("NewHash: %v", err)
	}
	blob, err := identity.NewBlob(uint64(len(content)), "text/plain", h)
	if err != nil {
		t.Fatalf("NewBlob: %v", err)
	}
	return blob, content
}

func TestOpenReadWriteCreatesLayout(t *testing.T) {
	base := t.TempDir()
	inv, err := inventory.OpenReadWrite(base, nil)
	if err != nil {
		t.Fatalf("OpenReadWrite: %v", err)
	}
	defer inv.Close()

	if _, err := os.Stat(filepath.Join(base, "sunburst.db")); err != nil {
		t.Fatalf("expected sunburst.db to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "blob")); err != nil {
		t.Fatalf("expected blob/ to exist: %v", err)
	}
}

func TestWriteCommitThenReopenReadOnly(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()
	blob, content := helloBlob(t)

	inv, err := inventory.OpenReadWrite(base, nil)
	if err != nil {
		t.Fatalf("OpenReadWrite: %v", err)
	}
	tx, err := inv.BeginReadWrite(ctx)
	if err != nil {
		t.Fatalf("BeginReadWrite: %v", err)
	}
	if err := tx.AddBlob(ctx, blob, bytes.NewReader(content)); err != nil {
		t.Fatalf("AddBlob: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := inv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	roInv, err := inventory.OpenReadOnly(base, nil)
	if err != nil {
		t.Fatalf("OpenReadOnly: %v", err)
	}
	defer roInv.Close()
	roTx, err := roInv.BeginReadOnly(ctx)
	if err != nil {
		t.Fatalf("BeginReadOnly: %v", err)
	}
	defer roTx.Close()
	row, ok, err := roTx.BlobGet(ctx, blob.Hash)
	if err != nil {
		t.Fatalf("BlobGet: %v", err)
	}
	if !ok {
		t.Fatalf("expected committed blob visible after reopen read-only")
	}
	if !row.Blob.Hash.Equal(blob.Hash) {
		t.Fatalf("hash mismatch")
	}

	if _, err := roInv.BeginReadWrite(ctx); err == nil {
		t.Fatalf("expected BeginReadWrite on a read-only inventory to fail")
	} else if kind, ok := sunerr.KindOf(err); !ok || kind != sunerr.KindInvalidState {
		t.Fatalf("expected KindInvalidState, got %v", err)
	}
}
