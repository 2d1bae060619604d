package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/sunerr"
)

// timeLayout has a fixed-width fraction so that the stored text sorts in
// time order, which PackagesUpdatedSince's string comparison relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// PackageRow is a catalog row from the packages table.
type PackageRow struct {
	ID         int64
	Identifier identity.PackageIdentifier
	Updated    time.Time
}

// packageIDByIdentifier looks up the catalog row id for identifier, or
// ok=false if no package with that identifier exists yet.
func packageIDByIdentifier(ctx context.Context, q Queryer, id identity.PackageIdentifier) (int64, bool, error) {
	const stmt = `SELECT id FROM packages
WHERE name = ? AND version_major = ? AND version_minor = ? AND version_patch = ? AND version_qualifier = ?`
	row := q.QueryRowContext(ctx, stmt, id.Name.String(), id.Version.Major, id.Version.Minor, id.Version.Patch, id.Version.Qualifier)
	var pid int64
	if err := row.Scan(&pid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, sunerr.Wrap(sunerr.KindDB, "look up package by identifier", err)
	}
	return pid, true, nil
}

// PutPackage resolves referenced blob hashes, then inserts a new package
// row or, for a snapshot identifier already present, atomically replaces
// its entries and metadata in place. Non-snapshot re-insertion fails with
// sunerr.KindPackageDuplicate without modifying any row.
func PutPackage(ctx context.Context, q Queryer, pkg identity.Package, now time.Time) error {
	entries := pkg.EntryList()
	hashes := make([]identity.Hash, 0, len(entries))
	for _, e := range entries {
		hashes = append(hashes, e.Blob.Hash)
	}
	blobIDs, err := BlobIDsByHashes(ctx, q, hashes)
	if err != nil {
		return err
	}

	existingID, exists, err := packageIDByIdentifier(ctx, q, pkg.Identifier)
	if err != nil {
		return err
	}

	switch {
	case exists && !pkg.Identifier.Version.IsSnapshot():
		return sunerr.New(sunerr.KindPackageDuplicate, "package identifier already exists and is not a snapshot").WithExtra(pkg.Identifier.String())
	case exists:
		return replacePackageContents(ctx, q, existingID, pkg, entries, blobIDs, now)
	default:
		return insertPackage(ctx, q, pkg, entries, blobIDs, now)
	}
}

func insertPackage(ctx context.Context, q Queryer, pkg identity.Package, entries []identity.PackageEntry, blobIDs map[string]int64, now time.Time) error {
	const stmt = `INSERT INTO packages (name, version_major, version_minor, version_patch, version_qualifier, updated)
VALUES (?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, stmt,
		pkg.Identifier.Name.String(),
		pkg.Identifier.Version.Major,
		pkg.Identifier.Version.Minor,
		pkg.Identifier.Version.Patch,
		pkg.Identifier.Version.Qualifier,
		now.UTC().Format(timeLayout),
	)
	if err != nil {
		return sunerr.Wrap(sunerr.KindDB, "insert package row", err)
	}
	packageID, err := res.LastInsertId()
	if err != nil {
		return sunerr.Wrap(sunerr.KindDB, "read inserted package id", err)
	}
	return insertPackageContents(ctx, q, packageID, pkg, entries, blobIDs)
}

func replacePackageContents(ctx context.Context, q Queryer, packageID int64, pkg identity.Package, entries []identity.PackageEntry, blobIDs map[string]int64, now time.Time) error {
	const updStmt = `UPDATE packages SET updated = ? WHERE id = ?`
	if _, err := q.ExecContext(ctx, updStmt, now.UTC().Format(timeLayout), packageID); err != nil {
		return sunerr.Wrap(sunerr.KindDB, "update package updated timestamp", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM package_blobs WHERE package_id = ?`, packageID); err != nil {
		return sunerr.Wrap(sunerr.KindDB, "clear prior package entries", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM package_meta WHERE package_id = ?`, packageID); err != nil {
		return sunerr.Wrap(sunerr.KindDB, "clear prior package metadata", err)
	}
	return insertPackageContents(ctx, q, packageID, pkg, entries, blobIDs)
}

func insertPackageContents(ctx context.Context, q Queryer, packageID int64, pkg identity.Package, entries []identity.PackageEntry, blobIDs map[string]int64) error {
	const entryStmt = `INSERT INTO package_blobs (package_id, blob_id, path) VALUES (?, ?, ?)`
	for _, e := range entries {
		blobID := blobIDs[e.Blob.Hash.String()]
		if _, err := q.ExecContext(ctx, entryStmt, packageID, blobID, e.Path.String()); err != nil {
			return sunerr.Wrap(sunerr.KindDB, "insert package entry row", err)
		}
	}
	const metaStmt = `INSERT INTO package_meta (package_id, meta_key, meta_value) VALUES (?, ?, ?)`
	for k, v := range pkg.Metadata {
		if _, err := q.ExecContext(ctx, metaStmt, packageID, k, v); err != nil {
			return sunerr.Wrap(sunerr.KindDB, "insert package metadata row", err)
		}
	}
	return nil
}

// BlobFile resolves (identifier, path) to the stored blob's Hash, as used
// by txn.Transaction.BlobFile to then ask the blob store for the on-disk
// path. ok=false if no such package/path
// combination exists.
func BlobFile(ctx context.Context, q Queryer, id identity.PackageIdentifier, path identity.Path) (identity.Hash, bool, error) {
	const stmt = `
SELECT b.hash_algorithm, b.hash
FROM package_blobs pb
JOIN packages p ON p.id = pb.package_id
JOIN blobs b ON b.id = pb.blob_id
WHERE p.name = ? AND p.version_major = ? AND p.version_minor = ? AND p.version_patch = ? AND p.version_qualifier = ?
  AND pb.path = ?`
	row := q.QueryRowContext(ctx, stmt,
		id.Name.String(), id.Version.Major, id.Version.Minor, id.Version.Patch, id.Version.Qualifier,
		path.String(),
	)
	var algorithm, hexDigest string
	if err := row.Scan(&algorithm, &hexDigest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.Hash{}, false, nil
		}
		return identity.Hash{}, false, sunerr.Wrap(sunerr.KindDB, "resolve package entry to blob", err)
	}
	hash, err := identity.ParseHash(algorithm + ":" + hexDigest)
	if err != nil {
		return identity.Hash{}, false, err
	}
	return hash, true, nil
}

func scanPackageRow(rows interface{ Scan(dest ...any) error }) (PackageRow, error) {
	var (
		id                   int64
		name, qualifier      string
		updated              string
		major, minor, patch  uint32
	)
	if err := rows.Scan(&id, &name, &major, &minor, &patch, &qualifier, &updated); err != nil {
		return PackageRow{}, sunerr.Wrap(sunerr.KindDB, "scan package row", err)
	}
	packageName, err := identity.ParsePackageName(name)
	if err != nil {
		return PackageRow{}, err
	}
	updatedAt, err := time.Parse(timeLayout, updated)
	if err != nil {
		return PackageRow{}, sunerr.Wrap(sunerr.KindDB, "parse package updated timestamp", err)
	}
	return PackageRow{
		ID: id,
		Identifier: identity.PackageIdentifier{
			Name:    packageName,
			Version: identity.Version{Major: major, Minor: minor, Patch: patch, Qualifier: qualifier},
		},
		Updated: updatedAt,
	}, nil
}

// Packages returns every package identifier in the catalog, ordered by id.
func Packages(ctx context.Context, q Queryer) ([]PackageRow, error) {
	const stmt = `SELECT id, name, version_major, version_minor, version_patch, version_qualifier, updated FROM packages ORDER BY id`
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "list packages", err)
	}
	defer rows.Close()
	var out []PackageRow
	for rows.Next() {
		pr, err := scanPackageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "iterate packages", err)
	}
	return out, nil
}

// PackagesUpdatedSince returns identifiers of packages whose updated
// timestamp is strictly greater than t, ordered by id.
func PackagesUpdatedSince(ctx context.Context, q Queryer, t time.Time) ([]PackageRow, error) {
	const stmt = `SELECT id, name, version_major, version_minor, version_patch, version_qualifier, updated
FROM packages WHERE updated > ? ORDER BY id`
	rows, err := q.QueryContext(ctx, stmt, t.UTC().Format(timeLayout))
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "list packages updated since", err)
	}
	defer rows.Close()
	var out []PackageRow
	for rows.Next() {
		pr, err := scanPackageRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "iterate packages updated since", err)
	}
	return out, nil
}

// PackageGet returns the full Package (entries and metadata) for
// identifier, or ok=false if absent.
func PackageGet(ctx context.Context, q Queryer, id identity.PackageIdentifier) (identity.Package, bool, error) {
	packageID, exists, err := packageIDByIdentifier(ctx, q, id)
	if err != nil || !exists {
		return identity.Package{}, exists, err
	}

	const entriesStmt = `
SELECT pb.path, b.hash_algorithm, b.hash, b.size, b.content_type
FROM package_blobs pb JOIN blobs b ON b.id = pb.blob_id
WHERE pb.package_id = ?`
	rows, err := q.QueryContext(ctx, entriesStmt, packageID)
	if err != nil {
		return identity.Package{}, false, sunerr.Wrap(sunerr.KindDB, "list package entries", err)
	}
	var entries []identity.PackageEntry
	for rows.Next() {
		var pathText, algorithm, hexDigest, contentType string
		var size uint64
		if err := rows.Scan(&pathText, &algorithm, &hexDigest, &size, &contentType); err != nil {
			rows.Close()
			return identity.Package{}, false, sunerr.Wrap(sunerr.KindDB, "scan package entry row", err)
		}
		path, err := identity.ParsePath(pathText)
		if err != nil {
			rows.Close()
			return identity.Package{}, false, err
		}
		hash, err := identity.ParseHash(algorithm + ":" + hexDigest)
		if err != nil {
			rows.Close()
			return identity.Package{}, false, err
		}
		blob, err := identity.NewBlob(size, contentType, hash)
		if err != nil {
			rows.Close()
			return identity.Package{}, false, err
		}
		entries = append(entries, identity.PackageEntry{Path: path, Blob: blob})
	}
	rerr := rows.Err()
	rows.Close()
	if rerr != nil {
		return identity.Package{}, false, sunerr.Wrap(sunerr.KindDB, "iterate package entries", rerr)
	}

	metadata, err := packageMetadata(ctx, q, packageID)
	if err != nil {
		return identity.Package{}, false, err
	}

	pkg, err := identity.NewPackage(id, metadata, entries)
	if err != nil {
		return identity.Package{}, false, err
	}
	return pkg, true, nil
}

func packageMetadata(ctx context.Context, q Queryer, packageID int64) (map[string]string, error) {
	const stmt = `SELECT meta_key, meta_value FROM package_meta WHERE package_id = ?`
	rows, err := q.QueryContext(ctx, stmt, packageID)
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "list package metadata", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, sunerr.Wrap(sunerr.KindDB, "scan package metadata row", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "iterate package metadata", err)
	}
	return out, nil
}
