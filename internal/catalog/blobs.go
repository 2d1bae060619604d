package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/io7m-com/sunburst/internal/identity"
	"github.com/io7m-com/sunburst/internal/sunerr"
)

// InsertBlob inserts blob's row, tolerating a pre-existing row for the
// same (hash_algorithm, hash) pair (re-adding a blob is idempotent).
func InsertBlob(ctx context.Context, q Queryer, blob identity.Blob) error {
	const stmt = `INSERT INTO blobs (hash_algorithm, hash, size, content_type)
VALUES (?, ?, ?, ?)
ON CONFLICT (hash_algorithm, hash) DO NOTHING`
	_, err := q.ExecContext(ctx, stmt, blob.Hash.Algorithm.Text, blob.Hash.HexUpper(), blob.Size, blob.ContentType)
	if err != nil {
		return sunerr.Wrap(sunerr.KindDB, "insert blob row", err)
	}
	return nil
}

// BlobIDByHash resolves hash to its catalog row id. It returns ok=false
// with a nil error when no row has that hash, and sunerr.KindDB for any
// other query failure.
func BlobIDByHash(ctx context.Context, q Queryer, hash identity.Hash) (int64, bool, error) {
	const stmt = `SELECT id FROM blobs WHERE hash_algorithm = ? AND hash = ?`
	row := q.QueryRowContext(ctx, stmt, hash.Algorithm.Text, hash.HexUpper())
	var id int64
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, sunerr.Wrap(sunerr.KindDB, "look up blob by hash", err)
	}
	return id, true, nil
}

// BlobIDsByHashes resolves every hash in hashes to a catalog row id. If
// any hash is absent from blobs, it returns a KindPackageMissingBlobs
// error listing every missing hash's textual form.
// putPackage step 1).
func BlobIDsByHashes(ctx context.Context, q Queryer, hashes []identity.Hash) (map[string]int64, error) {
	ids := make(map[string]int64, len(hashes))
	var missing []string
	for _, h := range hashes {
		key := h.String()
		if _, seen := ids[key]; seen {
			continue
		}
		id, ok, err := BlobIDByHash(ctx, q, h)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, key)
			continue
		}
		ids[key] = id
	}
	if len(missing) > 0 {
		return nil, sunerr.New(sunerr.KindPackageMissingBlobs, "package references blobs absent from the catalog").WithExtra(missing...)
	}
	return ids, nil
}

// DeleteBlob deletes blob's row. If a package_blobs row still references
// it, the foreign key (ON DELETE RESTRICT) rejects the delete and this
// returns sunerr.KindBlobReferenced.
func DeleteBlob(ctx context.Context, q Queryer, hash identity.Hash) error {
	const stmt = `DELETE FROM blobs WHERE hash_algorithm = ? AND hash = ?`
	_, err := q.ExecContext(ctx, stmt, hash.Algorithm.Text, hash.HexUpper())
	if err != nil {
		if isForeignKeyViolation(err) {
			return sunerr.Wrap(sunerr.KindBlobReferenced, "blob is still referenced by a package", err)
		}
		return sunerr.Wrap(sunerr.KindDB, "delete blob row", err)
	}
	return nil
}

// isForeignKeyViolation reports whether err is a SQLite foreign key
// constraint failure. mattn/go-sqlite3 reports this as a *sqlite3.Error
// whose message contains "FOREIGN KEY constraint failed"; matching on the
// message keeps this package independent of the driver's exact error type
// across versions.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// BlobRow is a catalog row from the blobs table.
type BlobRow struct {
	ID   int64
	Blob identity.Blob
}

func scanBlobRow(rows interface{ Scan(dest ...any) error }) (BlobRow, error) {
	var (
		id          int64
		algorithm   string
		hexDigest   string
		size        uint64
		contentType string
	)
	if err := rows.Scan(&id, &algorithm, &hexDigest, &size, &contentType); err != nil {
		return BlobRow{}, sunerr.Wrap(sunerr.KindDB, "scan blob row", err)
	}
	hash, err := identity.ParseHash(algorithm + ":" + hexDigest)
	if err != nil {
		return BlobRow{}, err
	}
	blob, err := identity.NewBlob(size, contentType, hash)
	if err != nil {
		return BlobRow{}, err
	}
	return BlobRow{ID: id, Blob: blob}, nil
}

// BlobGet returns the blob row for hash, or ok=false if absent.
func BlobGet(ctx context.Context, q Queryer, hash identity.Hash) (BlobRow, bool, error) {
	const stmt = `SELECT id, hash_algorithm, hash, size, content_type FROM blobs WHERE hash_algorithm = ? AND hash = ?`
	row := q.QueryRowContext(ctx, stmt, hash.Algorithm.Text, hash.HexUpper())
	br, err := scanBlobRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BlobRow{}, false, nil
		}
		return BlobRow{}, false, err
	}
	return br, true, nil
}

// BlobList returns every blob row in the catalog.
func BlobList(ctx context.Context, q Queryer) ([]BlobRow, error) {
	const stmt = `SELECT id, hash_algorithm, hash, size, content_type FROM blobs ORDER BY id`
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "list blobs", err)
	}
	defer rows.Close()
	var out []BlobRow
	for rows.Next() {
		br, err := scanBlobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "iterate blobs", err)
	}
	return out, nil
}

// BlobsUnreferenced returns the blobs not referenced by any package_blobs
// row — the set safe to DeleteBlob.
func BlobsUnreferenced(ctx context.Context, q Queryer) ([]BlobRow, error) {
	const stmt = `
SELECT b.id, b.hash_algorithm, b.hash, b.size, b.content_type
FROM blobs b
LEFT JOIN package_blobs pb ON pb.blob_id = b.id
WHERE pb.blob_id IS NULL
ORDER BY b.id`
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "list unreferenced blobs", err)
	}
	defer rows.Close()
	var out []BlobRow
	for rows.Next() {
		br, err := scanBlobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, sunerr.Wrap(sunerr.KindDB, "iterate unreferenced blobs", err)
	}
	return out, nil
}
