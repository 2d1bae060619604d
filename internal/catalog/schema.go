// Package catalog implements the relational schema backing the inventory:
// packages, blobs, package_blobs, and package_meta, plus a versioned
// migration runner, built on database/sql and mattn/go-sqlite3 with
// prepared INSERT/SELECT statements.
//
// Functions here operate against a Queryer so the same code runs against a
// *sql.DB (for read-only observation and migrations) or a *sql.Tx (for the
// single long-lived transaction internal/txn wraps).
package catalog

import (
	"context"
	"database/sql"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CurrentSchemaVersion is the schema version this build of the catalog
// expects. OpenReadOnly fails if the on-disk schema is older than this.
const CurrentSchemaVersion = 1

const ddlSchemaVersion = `
CREATE TABLE IF NOT EXISTS schema_version (
	version_number INTEGER NOT NULL
);`

const ddlBlobs = `
CREATE TABLE IF NOT EXISTS blobs (
	id             INTEGER PRIMARY KEY,
	hash_algorithm TEXT NOT NULL,
	hash           TEXT NOT NULL,
	size           INTEGER NOT NULL,
	content_type   TEXT NOT NULL,
	UNIQUE(hash_algorithm, hash)
);`

const ddlPackages = `
CREATE TABLE IF NOT EXISTS packages (
	id                INTEGER PRIMARY KEY,
	name              TEXT NOT NULL,
	version_major     INTEGER NOT NULL,
	version_minor     INTEGER NOT NULL,
	version_patch     INTEGER NOT NULL,
	version_qualifier TEXT NOT NULL,
	updated           TEXT NOT NULL,
	UNIQUE(name, version_major, version_minor, version_patch, version_qualifier)
);`

const ddlPackageBlobs = `
CREATE TABLE IF NOT EXISTS package_blobs (
	package_id INTEGER NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	blob_id    INTEGER NOT NULL REFERENCES blobs(id) ON DELETE RESTRICT,
	path       TEXT NOT NULL,
	UNIQUE(package_id, path)
);`

// Covering index on the foreign key so BlobsUnreferenced's anti-join
// doesn't scan package_blobs in full.
const ddlPackageBlobsIndex = `
CREATE INDEX IF NOT EXISTS idx_package_blobs_blob_id ON package_blobs(blob_id);`

const ddlPackageMeta = `
CREATE TABLE IF NOT EXISTS package_meta (
	package_id INTEGER NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
	meta_key   TEXT NOT NULL,
	meta_value TEXT NOT NULL,
	UNIQUE(package_id, meta_key)
);`

var schemaStatements = []string{
	ddlSchemaVersion,
	ddlBlobs,
	ddlPackages,
	ddlPackageBlobs,
	ddlPackageBlobsIndex,
	ddlPackageMeta,
}
