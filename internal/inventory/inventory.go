// Package inventory implements the lifecycle layer: opening the database
// and blob-store root, running migrations, and handing out transactions
// as a package-level constructor (OpenReadWrite, OpenReadOnly) suitable
// for use as a library entry point rather than a command's bootstrap code.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/io7m-com/sunburst/internal/blobstore"
	"github.com/io7m-com/sunburst/internal/catalog"
	"github.com/io7m-com/sunburst/internal/sunerr"
	"github.com/io7m-com/sunburst/internal/txn"
)

// Inventory is the on-disk combination of catalog plus blob store,
// rooted at a single base directory. Sharing one Inventory value across
// different base directories is unsupported; nothing here enforces that
// beyond the constructors always deriving paths from a single baseDir.
type Inventory struct {
	db       *sql.DB
	blobs    *blobstore.Store
	readOnly bool
	log      *slog.Logger
}

func dsn(baseDir string, readOnly bool) string {
	dbPath := filepath.Join(baseDir, "sunburst.db")
	mode := "rwc"
	if readOnly {
		mode = "ro"
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_synchronous=FULL&mode=%s", dbPath, mode)
}

func ensureBaseDir(baseDir string) (string, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return "", sunerr.Wrap(sunerr.KindIO, "create inventory base directory", err)
	}
	blobDir := filepath.Join(baseDir, "blob")
	if err := os.MkdirAll(blobDir, 0o700); err != nil {
		return "", sunerr.Wrap(sunerr.KindIO, "create blob store root", err)
	}
	return blobDir, nil
}

func open(baseDir string, readOnly bool, mode catalog.MigrationMode, logger *slog.Logger) (*Inventory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	blobDir, err := ensureBaseDir(baseDir)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn(baseDir, readOnly))
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "open sqlite driver", err)
	}
	if !readOnly {
		db.SetMaxOpenConns(1)
	}
	if err := catalog.Migrate(context.Background(), db, mode); err != nil {
		_ = db.Close()
		return nil, err
	}
	blobs, err := blobstore.New(blobDir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Inventory{
		db:       db,
		blobs:    blobs,
		readOnly: readOnly,
		log:      logger.With("domain", "inventory", "base_dir", baseDir),
	}, nil
}

// OpenReadWrite opens or creates the inventory at baseDir: resolve
// <base>/sunburst.db, enable FK enforcement, run migrations in
// ModeUpgrade, and return a handle over the connection pool and the
// blob-store root.
func OpenReadWrite(baseDir string, logger *slog.Logger) (*Inventory, error) {
	inv, err := open(baseDir, false, catalog.ModeUpgrade, logger)
	if err != nil {
		return nil, err
	}
	inv.log.Info("inventory opened read-write")
	return inv, nil
}

// OpenReadOnly opens the inventory at baseDir without allowing schema
// upgrades; an on-disk schema older than this build's CurrentSchemaVersion
// fails to open rather than being silently migrated.
func OpenReadOnly(baseDir string, logger *slog.Logger) (*Inventory, error) {
	inv, err := open(baseDir, true, catalog.ModeFailInsteadOfUpgrading, logger)
	if err != nil {
		return nil, err
	}
	inv.log.Info("inventory opened read-only")
	return inv, nil
}

// BeginReadWrite opens a writable Transaction. Fails with
// sunerr.KindInvalidState if the Inventory itself was opened read-only.
func (inv *Inventory) BeginReadWrite(ctx context.Context) (*txn.Transaction, error) {
	if inv.readOnly {
		return nil, sunerr.New(sunerr.KindInvalidState, "inventory was opened read-only")
	}
	return txn.Open(ctx, inv.db, inv.blobs, false, inv.log)
}

// BeginReadOnly opens a read-only Transaction.
func (inv *Inventory) BeginReadOnly(ctx context.Context) (*txn.Transaction, error) {
	return txn.Open(ctx, inv.db, inv.blobs, true, inv.log)
}

// Close releases the database connection pool. Any transactions the
// caller opened must already have been independently closed.
func (inv *Inventory) Close() error {
	if err := inv.db.Close(); err != nil {
		return sunerr.Wrap(sunerr.KindClosing, "close inventory database", err)
	}
	inv.log.Info("inventory closed")
	return nil
}
