// Package store persists describe caches, saved queries and workspace state
// in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/rlch/soql"
)

// FileName is the database file created inside the cache directory.
const FileName = "soql.db"

// Workspace state keys.
const (
	KeyLastQuery = "lastQuery"
	KeyIsTooling = "isTooling"
)

const schema = `
CREATE TABLE IF NOT EXISTS object_meta (
	name       TEXT    NOT NULL,
	tooling    INTEGER NOT NULL,
	body       TEXT    NOT NULL,
	fetched_at INTEGER NOT NULL,
	PRIMARY KEY (name, tooling)
);
CREATE TABLE IF NOT EXISTS object_lists (
	tooling    INTEGER PRIMARY KEY,
	body       TEXT    NOT NULL,
	fetched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS saved_queries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	label      TEXT    NOT NULL UNIQUE,
	query      TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS workspace_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SavedQuery is a labelled query.
type SavedQuery struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// Store is the SQLite database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

// ObjectMeta returns a cached describe result and when it was fetched.
func (s *Store) ObjectMeta(ctx context.Context, name string, tooling bool) (*soql.SchemaDescriptor, time.Time, bool, error) {
	var (
		body string
		at   int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM object_meta WHERE name = ? AND tooling = ?`,
		strings.ToLower(name), boolInt(tooling),
	).Scan(&body, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}

	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("reading cached describe for %s: %w", name, err)
	}

	var desc soql.SchemaDescriptor
	if err := json.Unmarshal([]byte(body), &desc); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decoding cached describe for %s: %w", name, err)
	}

	return &desc, time.UnixMilli(at), true, nil
}

// PutObjectMeta caches a describe result.
func (s *Store) PutObjectMeta(ctx context.Context, desc *soql.SchemaDescriptor, tooling bool, at time.Time) error {
	body, err := json.Marshal(desc)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO object_meta (name, tooling, body, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name, tooling) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		strings.ToLower(desc.Name), boolInt(tooling), string(body), at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("caching describe for %s: %w", desc.Name, err)
	}

	return nil
}

// ObjectList returns a cached object catalog and when it was fetched.
func (s *Store) ObjectList(ctx context.Context, tooling bool) ([]soql.SchemaDescriptor, time.Time, bool, error) {
	var (
		body string
		at   int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM object_lists WHERE tooling = ?`, boolInt(tooling),
	).Scan(&body, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}

	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("reading cached object list: %w", err)
	}

	var objects []soql.SchemaDescriptor
	if err := json.Unmarshal([]byte(body), &objects); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decoding cached object list: %w", err)
	}

	return objects, time.UnixMilli(at), true, nil
}

// PutObjectList caches an object catalog.
func (s *Store) PutObjectList(ctx context.Context, tooling bool, objects []soql.SchemaDescriptor, at time.Time) error {
	body, err := json.Marshal(objects)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO object_lists (tooling, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(tooling) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		boolInt(tooling), string(body), at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("caching object list: %w", err)
	}

	return nil
}

// ClearCache drops every cached describe result and object list. Saved
// queries and workspace state are kept.
func (s *Store) ClearCache(ctx context.Context) error {
	for _, table := range []string{"object_meta", "object_lists"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return nil
}

// SavedQueries returns saved queries in the order they were saved.
func (s *Store) SavedQueries(ctx context.Context) ([]SavedQuery, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, query FROM saved_queries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing saved queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []SavedQuery{}

	for rows.Next() {
		var q SavedQuery
		if err := rows.Scan(&q.Label, &q.Query); err != nil {
			return nil, err
		}

		out = append(out, q)
	}

	return out, rows.Err()
}

// SaveQuery stores a query under a new label. Labels are unique.
func (s *Store) SaveQuery(ctx context.Context, label, query string) error {
	if strings.TrimSpace(label) == "" {
		return soql.ErrEmptyLabel
	}

	if strings.TrimSpace(query) == "" {
		return soql.ErrEmptyQuery
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_queries (label, query, created_at) VALUES (?, ?, ?) ON CONFLICT(label) DO NOTHING`,
		label, query, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving query %q: %w", label, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", soql.ErrDuplicateLabel, label)
	}

	return nil
}

// DeleteQuery removes a saved query. Unknown labels are ignored.
func (s *Store) DeleteQuery(ctx context.Context, label string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_queries WHERE label = ?`, label); err != nil {
		return fmt.Errorf("deleting query %q: %w", label, err)
	}

	return nil
}

// State returns a workspace state value.
func (s *Store) State(ctx context.Context, key string) (string, bool, error) {
	var v string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM workspace_state WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("reading state %s: %w", key, err)
	}

	return v, true, nil
}

// SetState stores a workspace state value.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspace_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing state %s: %w", key, err)
	}

	return nil
}
