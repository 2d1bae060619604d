// Package txn implements the unified read/write session: a Transaction
// joins the catalog and blob store behind one commit/rollback boundary,
// following the BeginTx/defer-rollback-on-error/Commit pattern over the
// full operation surface a caller needs within one open transaction.
package txn

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/io7m-com/sunburst/internal/blobstore"
	"github.com/io7m-com/sunburst/internal/catalog"
	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/sunerr"
)

type state int

const (
	stateOpen state = iota
	stateDone
)

// Transaction is one concurrency unit: exactly one underlying *sql.Tx
// with auto-commit disabled, plus the blob store the same writes land
// in. Its state machine is Open -> (Commit | Rollback | Close) -> Done;
// every operation on a Done transaction fails with sunerr.KindInvalidState.
type Transaction struct {
	id       string
	tx       *sql.Tx
	blobs    *blobstore.Store
	readOnly bool
	log      *slog.Logger
	state    state
}

// Open begins a transaction against db, correlating it with a fresh
// uuid.New() id the way a per-request correlation id tags log lines.
func Open(ctx context.Context, db *sql.DB, blobs *blobstore.Store, readOnly bool, logger *slog.Logger) (*Transaction, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "begin transaction", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	return &Transaction{
		id:       id,
		tx:       tx,
		blobs:    blobs,
		readOnly: readOnly,
		log:      logger.With("domain", "txn", "txn_id", id),
		state:    stateOpen,
	}, nil
}

func (t *Transaction) checkOpen() error {
	if t.state != stateOpen {
		return sunerr.New(sunerr.KindInvalidState, "transaction is no longer open")
	}
	return nil
}

func (t *Transaction) checkWritable() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.readOnly {
		return sunerr.New(sunerr.KindInvalidState, "transaction is read-only")
	}
	return nil
}

// AddBlob implements addBlob: write the blob content, then record its
// row, tolerating a pre-existing row for the same hash.
func (t *Transaction) AddBlob(ctx context.Context, blob identity.Blob, r io.Reader) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := t.blobs.WriteBlob(blob, r); err != nil {
		return err
	}
	if err := catalog.InsertBlob(ctx, t.tx, blob); err != nil {
		return err
	}
	t.log.Debug("blob added", "hash", blob.Hash.String())
	return nil
}

// RemoveBlob implements removeBlob: delete the catalog row first (the
// foreign key surfaces KindBlobReferenced without touching the
// filesystem), then delete the on-disk file under its lock.
func (t *Transaction) RemoveBlob(ctx context.Context, hash identity.Hash) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := catalog.DeleteBlob(ctx, t.tx, hash); err != nil {
		return err
	}
	if err := t.blobs.DeleteBlob(hash); err != nil {
		return err
	}
	t.log.Debug("blob removed", "hash", hash.String())
	return nil
}

// PutPackage inserts a package, replacing it in place when it is an
// already-present snapshot.
func (t *Transaction) PutPackage(ctx context.Context, pkg identity.Package, now time.Time) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if err := catalog.PutPackage(ctx, t.tx, pkg, now); err != nil {
		return err
	}
	t.log.Debug("package put", "identifier", pkg.Identifier.String())
	return nil
}

// BlobFile implements blobFile: resolve (identifier, path) to the blob
// store's on-disk path, or fail with sunerr.KindPathNonexistent.
func (t *Transaction) BlobFile(ctx context.Context, id identity.PackageIdentifier, path identity.Path) (string, error) {
	if err := t.checkOpen(); err != nil {
		return "", err
	}
	hash, ok, err := catalog.BlobFile(ctx, t.tx, id, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", sunerr.New(sunerr.KindPathNonexistent, "no such package entry").WithExtra(id.String(), path.String())
	}
	return t.blobs.PathOf(hash), nil
}

// PackagesUpdatedSince implements packagesUpdatedSince.
func (t *Transaction) PackagesUpdatedSince(ctx context.Context, since time.Time) ([]catalog.PackageRow, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return catalog.PackagesUpdatedSince(ctx, t.tx, since)
}

// BlobsUnreferenced returns the blobs no package entry references.
func (t *Transaction) BlobsUnreferenced(ctx context.Context) ([]catalog.BlobRow, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return catalog.BlobsUnreferenced(ctx, t.tx)
}

// Packages implements packages().
func (t *Transaction) Packages(ctx context.Context) ([]catalog.PackageRow, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return catalog.Packages(ctx, t.tx)
}

// PackageGet implements packageGet(identifier).
func (t *Transaction) PackageGet(ctx context.Context, id identity.PackageIdentifier) (identity.Package, bool, error) {
	if err := t.checkOpen(); err != nil {
		return identity.Package{}, false, err
	}
	return catalog.PackageGet(ctx, t.tx, id)
}

// BlobGet implements blobGet(hash).
func (t *Transaction) BlobGet(ctx context.Context, hash identity.Hash) (catalog.BlobRow, bool, error) {
	if err := t.checkOpen(); err != nil {
		return catalog.BlobRow{}, false, err
	}
	return catalog.BlobGet(ctx, t.tx, hash)
}

// BlobList implements blobList().
func (t *Transaction) BlobList(ctx context.Context) ([]catalog.BlobRow, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	return catalog.BlobList(ctx, t.tx)
}

// Commit ends the transaction, making its writes visible atomically.
// Calling Commit more than once, or after Rollback, fails with
// sunerr.KindInvalidState.
func (t *Transaction) Commit() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	t.state = stateDone
	if err := t.tx.Commit(); err != nil {
		return sunerr.Wrap(sunerr.KindDB, "commit transaction", err)
	}
	t.log.Debug("transaction committed")
	return nil
}

// Rollback ends the transaction, discarding its catalog writes. Blob
// files already renamed into place by AddBlob are not retroactively
// removed; callers that need all-or-nothing blob placement must not
// call AddBlob before they are sure the transaction will commit.
func (t *Transaction) Rollback() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	t.state = stateDone
	if err := t.tx.Rollback(); err != nil {
		return sunerr.Wrap(sunerr.KindDB, "rollback transaction", err)
	}
	t.log.Debug("transaction rolled back")
	return nil
}

// Close implies Rollback if still open; it is a no-op after Commit or
// Rollback.
func (t *Transaction) Close() error {
	if t.state != stateOpen {
		return nil
	}
	return t.Rollback()
}
