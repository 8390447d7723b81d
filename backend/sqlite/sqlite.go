// Package sqlite provides a SQLite-backed Adapter. A single objects
// table keyed by path gives transactional multi-key writes on a single
// portable file, a good fit for desktop and CLI embedding.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go driver

	"github.com/hyphadb/hypha/backend"
)

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	path  TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// Adapter implements backend.Adapter over a SQLite database.
type Adapter struct {
	db      *sql.DB
	profile backend.BatchProfile
}

var (
	_ backend.Adapter     = (*Adapter)(nil)
	_ backend.BatchReader = (*Adapter)(nil)
	_ backend.BatchWriter = (*Adapter)(nil)
)

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Adapter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Adapter{
		db: db,
		profile: backend.BatchProfile{
			MaxBatchSize:           512,
			MaxConcurrent:          1,
			SupportsParallelWrites: false,
		},
	}, nil
}

// Close closes the underlying database.
func (a *Adapter) Close() error { return a.db.Close() }

// WriteObject stores value at path, overwriting any existing row.
func (a *Adapter) WriteObject(ctx context.Context, path string, value []byte) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO objects (path, value) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET value = excluded.value`,
		path, value)
	return err
}

// ReadObject returns the object at path, or backend.ErrNotFound.
func (a *Adapter) ReadObject(ctx context.Context, path string) ([]byte, error) {
	var value []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT value FROM objects WHERE path = ?`, path).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// DeleteObject removes the object at path; absent rows are ignored.
func (a *Adapter) DeleteObject(ctx context.Context, path string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM objects WHERE path = ?`, path)
	return err
}

// ListPaths returns all paths with the given prefix in sorted order.
func (a *Adapter) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	// Prefix match as a key range: [prefix, prefix+U+10FFFF). Avoids LIKE
	// escaping rules for prefixes containing % or _.
	rows, err := a.db.QueryContext(ctx,
		`SELECT path FROM objects WHERE path >= ? AND path < ? ORDER BY path`,
		prefix, prefix+"\U0010FFFF")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// ReadObjects fetches several objects inside one query per chunk.
func (a *Adapter) ReadObjects(ctx context.Context, paths []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(paths))
	if len(paths) == 0 {
		return out, nil
	}

	query := `SELECT path, value FROM objects WHERE path IN (?` // first placeholder
	args := make([]any, len(paths))
	args[0] = paths[0]
	for i := 1; i < len(paths); i++ {
		query += ",?"
		args[i] = paths[i]
	}
	query += ")"

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		var v []byte
		if err := rows.Scan(&p, &v); err != nil {
			return nil, err
		}
		out[p] = v
	}
	return out, rows.Err()
}

// WriteObjects stores several objects in one transaction.
func (a *Adapter) WriteObjects(ctx context.Context, objects map[string][]byte) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO objects (path, value) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for p, v := range objects {
		if _, err := stmt.ExecContext(ctx, p, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Profile declares the adapter's batch characteristics.
func (a *Adapter) Profile() backend.BatchProfile { return a.profile }
