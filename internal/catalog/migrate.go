package catalog

import (
	"context"
	"database/sql"

	"github.com/io7m-com/sunburst/internal/sunerr"
)

// MigrationMode controls how Migrate behaves when the on-disk schema is
// older than CurrentSchemaVersion.
type MigrationMode int

const (
	// ModeUpgrade applies any newer revisions, inserting the initial
	// schema_version row on first-time init.
	ModeUpgrade MigrationMode = iota
	// ModeFailInsteadOfUpgrading fails instead of upgrading, used when
	// opening read-only.
	ModeFailInsteadOfUpgrading
)

// Migrate brings the schema at db up to CurrentSchemaVersion (ModeUpgrade)
// or fails if it is not already current (ModeFailInsteadOfUpgrading). It
// runs inside a single transaction so a crash mid-migration leaves the
// prior version intact.
func Migrate(ctx context.Context, db *sql.DB, mode MigrationMode) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return sunerr.Wrap(sunerr.KindDB, "begin migration transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ddlSchemaVersion); err != nil {
		return sunerr.Wrap(sunerr.KindDB, "create schema_version table", err)
	}

	version, err := readSchemaVersion(ctx, tx)
	if err != nil {
		return err
	}

	switch {
	case version == CurrentSchemaVersion:
		if err := tx.Commit(); err != nil {
			return sunerr.Wrap(sunerr.KindDB, "commit migration transaction", err)
		}
		return nil
	case version > CurrentSchemaVersion:
		return sunerr.New(sunerr.KindDB, "on-disk schema is newer than this build understands")
	case mode == ModeFailInsteadOfUpgrading:
		return sunerr.New(sunerr.KindDB, "on-disk schema is older than this build requires and upgrades are disabled")
	}

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return sunerr.Wrap(sunerr.KindDB, "apply schema migration", err)
		}
	}

	if version == 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version_number) VALUES (?)`, CurrentSchemaVersion); err != nil {
			return sunerr.Wrap(sunerr.KindDB, "insert initial schema_version row", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE schema_version SET version_number = ?`, CurrentSchemaVersion); err != nil {
			return sunerr.Wrap(sunerr.KindDB, "update schema_version row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return sunerr.Wrap(sunerr.KindDB, "commit migration transaction", err)
	}
	return nil
}

func readSchemaVersion(ctx context.Context, q Queryer) (int, error) {
	row := q.QueryRowContext(ctx, `SELECT version_number FROM schema_version LIMIT 1`)
	var version int
	if err := row.Scan(&version); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, sunerr.Wrap(sunerr.KindDB, "read schema_version", err)
	}
	return version, nil
}
