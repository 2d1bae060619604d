package blobstore_test

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/io7m-com/sunburst/internal/blobstore"
	"github.com/io7m-com/sunburst/internal/identity"
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

func TestWriteBlobHelloBlob(t *testing.T) {
	root := t.TempDir()
	store, err := blobstore.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob, content := helloBlob(t)
	if err := store.WriteBlob(blob, bytes.NewReader(content)); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	path := store.PathOf(blob.Hash)
	want := filepath.Join(root, "SHA2_256", "2D", "8BD7D9BB5F85BA643F0110D50CB506A1FE439E769A22503193EA6046BB87F7.b")
	if path != want {
		t.Fatalf("got path %q want %q", path, want)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("committed content mismatch")
	}
}

func TestWriteBlobCorruptedUploadLeavesNoTrace(t *testing.T) {
	root := t.TempDir()
	store, err := blobstore.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob, content := helloBlob(t)
	truncated := content[:2]

	err = store.WriteBlob(blob, bytes.NewReader(truncated))
	if err == nil {
		t.Fatalf("expected error for truncated upload")
	}
	if kind, ok := sunerr.KindOf(err); !ok || kind != sunerr.KindHashMismatch {
		t.Fatalf("expected KindHashMismatch, got %v", err)
	}

	path := store.PathOf(blob.Hash)
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected committed blob file to not exist, stat error: %v", statErr)
	}
	tmpPath := path[:len(path)-len(".b")] + ".t"
	if _, statErr := os.Stat(tmpPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected temporary file to be cleaned up, stat error: %v", statErr)
	}
}

func TestWriteBlobIsIdempotent(t *testing.T) {
	root := t.TempDir()
	store, err := blobstore.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob, content := helloBlob(t)
	if err := store.WriteBlob(blob, bytes.NewReader(content)); err != nil {
		t.Fatalf("first WriteBlob: %v", err)
	}
	if err := store.WriteBlob(blob, bytes.NewReader(content)); err != nil {
		t.Fatalf("second WriteBlob (idempotent re-add): %v", err)
	}
}

func TestDeleteBlobSafeWhenAbsent(t *testing.T) {
	root := t.TempDir()
	store, err := blobstore.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob, _ := helloBlob(t)
	if err := store.DeleteBlob(blob.Hash); err != nil {
		t.Fatalf("DeleteBlob on absent file should be a no-op: %v", err)
	}
}

func TestDeleteBlobRemovesCommittedFile(t *testing.T) {
	root := t.TempDir()
	store, err := blobstore.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	blob, content := helloBlob(t)
	if err := store.WriteBlob(blob, bytes.NewReader(content)); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if err := store.DeleteBlob(blob.Hash); err != nil {
		t.Fatalf("DeleteBlob: %v", err)
	}
	if _, statErr := os.Stat(store.PathOf(blob.Hash)); !os.IsNotExist(statErr) {
		t.Fatalf("expected blob file removed")
	}
}

func TestNewRejectsNonDirectoryRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := blobstore.New(file); err == nil {
		t.Fatalf("expected error constructing store over a file")
	}
}

func TestNewRejectsMissingRoot(t *testing.T) {
	if _, err := blobstore.New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing root")
	}
}
