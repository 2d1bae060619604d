// Package blobstore implements a content-addressed filesystem blob store:
// hash-verified streaming writes into a sharded tree rooted at
// <base>/blob/<algo>/<xx>/<rest>.{b,t,l}, serialized per hash across
// processes by a real cross-process advisory lock.
package blobstore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/sunerr"
)

// Store is a content-addressed filesystem blob store rooted at Root.
// Root must already exist; Store creates the <algo>/<xx> shard
// directories it needs on demand.
type Store struct {
	Root string
}

// New returns a Store rooted at root. root must already exist as a
// directory.
func New(root string) (*Store, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindIO, "stat blob store root", err)
	}
	if !fi.IsDir() {
		return nil, sunerr.New(sunerr.KindIO, "blob store root is not a directory").WithExtra(root)
	}
	return &Store{Root: root}, nil
}

// shardPaths returns the committed (.b), temporary (.t), and lock (.l)
// paths for hash, creating the intermediate <algo>/<xx> directories.
func (s *Store) shardPaths(hash identity.Hash) (base, pathBlob, pathTmp, pathLock string, err error) {
	hexName := hash.HexUpper()
	if len(hexName) < 2 {
		return "", "", "", "", sunerr.New(sunerr.KindInvalidArgument, "hash digest too short to shard")
	}
	dir := filepath.Join(s.Root, hash.Algorithm.Text, hexName[:2])
	if mkErr := os.MkdirAll(dir, 0o700); mkErr != nil {
		return "", "", "", "", sunerr.Wrap(sunerr.KindIO, "create blob shard directory", mkErr)
	}
	base = filepath.Join(dir, hexName[2:])
	return base, base + ".b", base + ".t", base + ".l", nil
}

// PathOf returns the committed on-disk path for hash. It is a pure
// function and does not check existence.
func (s *Store) PathOf(hash identity.Hash) string {
	hexName := hash.HexUpper()
	dir := filepath.Join(s.Root, hash.Algorithm.Text, hexName[:2])
	return filepath.Join(dir, hexName[2:]) + ".b"
}

// WriteBlob streams r into the content-addressed location for blob.Hash,
// verifying the digest as bytes arrive. If the declared size or hash do
// not match the streamed content, it fails with sunerr.KindHashMismatch
// and leaves no trace on disk: the temporary file is always removed, and
// the committed file is never created on failure. Re-adding a blob whose
// committed file already exists is a no-op (content-addressed storage is
// idempotent by construction).
func (s *Store) WriteBlob(blob identity.Blob, r io.Reader) error {
	_, pathBlob, pathTmp, pathLock, err := s.shardPaths(blob.Hash)
	if err != nil {
		return err
	}

	lock := flock.New(pathLock)
	if lockErr := lock.Lock(); lockErr != nil {
		return sunerr.Wrap(sunerr.KindIO, "acquire blob lock", lockErr)
	}
	defer lock.Unlock()

	if _, statErr := os.Stat(pathBlob); statErr == nil {
		// Already committed; content-addressed storage makes this a no-op.
		return nil
	}

	if writeErr := s.writeVerified(blob, r, pathTmp); writeErr != nil {
		_ = os.Remove(pathTmp)
		return writeErr
	}

	if renameErr := os.Rename(pathTmp, pathBlob); renameErr != nil {
		_ = os.Remove(pathTmp)
		return sunerr.Wrap(sunerr.KindIO, "commit blob file", renameErr)
	}
	return nil
}

// writeVerified streams r into pathTmp, computing the digest as bytes
// arrive, and returns a KindHashMismatch error (without touching pathTmp)
// if the result does not match blob.Hash and blob.Size.
func (s *Store) writeVerified(blob identity.Blob, r io.Reader, pathTmp string) error {
	f, err := os.OpenFile(pathTmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return sunerr.Wrap(sunerr.KindIO, "create temporary blob file", err)
	}
	defer f.Close()

	digest := blob.Hash.Algorithm.New()
	written, err := io.Copy(io.MultiWriter(f, digest), r)
	if err != nil {
		return sunerr.Wrap(sunerr.KindIO, "stream blob content", err)
	}
	if blob.Size != 0 && uint64(written) != blob.Size {
		return sunerr.New(sunerr.KindHashMismatch, "streamed size does not match declared blob size")
	}
	sum := digest.Sum(nil)
	got, err := identity.NewHash(blob.Hash.Algorithm, sum)
	if err != nil {
		return sunerr.Wrap(sunerr.KindIO, "construct computed hash", err)
	}
	if !got.Equal(blob.Hash) {
		return sunerr.New(sunerr.KindHashMismatch, "streamed content does not match declared hash").WithExtra(blob.Hash.String(), got.String())
	}
	if err := f.Sync(); err != nil {
		return sunerr.Wrap(sunerr.KindIO, "sync blob file", err)
	}
	return nil
}

// DeleteBlob removes the committed file for hash under its lock. It is
// safe to call when the file is already absent.
func (s *Store) DeleteBlob(hash identity.Hash) error {
	_, pathBlob, _, pathLock, err := s.shardPaths(hash)
	if err != nil {
		return err
	}
	lock := flock.New(pathLock)
	if lockErr := lock.Lock(); lockErr != nil {
		return sunerr.Wrap(sunerr.KindIO, "acquire blob lock", lockErr)
	}
	defer lock.Unlock()

	if err := os.Remove(pathBlob); err != nil && !os.IsNotExist(err) {
		return sunerr.Wrap(sunerr.KindIO, "delete blob file", err)
	}
	return nil
}
