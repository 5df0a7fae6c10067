// Package store persists study data as JSON documents in SQLite. The rest
// of the application treats it as a durable map scoped per entity kind.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	contextutils "studyapp/internal/utils"

	_ "modernc.org/sqlite" // driver: sqlite
)

// Entity kinds. Each kind is an independent id-keyed namespace.
const (
	KindBook         = "books"
	KindSummary      = "summaries"
	KindTask         = "tasks"
	KindTaskCategory = "task-categories"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS session_state (
	slot       TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

const activeBookSlot = "active-book"

// Store is a JSON-document object store over SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path and ensures the schema
// exists. Use ":memory:" for an ephemeral store.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrStoreUnavailable, err.Error())
	}
	// SQLite allows a single writer; a small pool avoids lock churn.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, contextutils.WrapError(contextutils.ErrStoreUnavailable, err.Error())
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, contextutils.WrapError(contextutils.ErrStoreUnavailable, err.Error())
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put upserts an entity under (kind, id).
func (s *Store) Put(ctx context.Context, kind, id string, entity interface{}) error {
	if kind == "" || id == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "kind and id are required")
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to marshal entity %s/%s", kind, id)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (kind, id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		kind, id, string(data), time.Now().UTC())
	if err != nil {
		return contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}
	return nil
}

// Get loads the entity under (kind, id) into dest. Returns ErrRecordNotFound
// when no such entity exists.
func (s *Store) Get(ctx context.Context, kind, id string, dest interface{}) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE kind = ? AND id = ?`, kind, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "%s/%s not found", kind, id)
	}
	if err != nil {
		return contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return contextutils.WrapErrorf(err, "failed to unmarshal entity %s/%s", kind, id)
	}
	return nil
}

// GetAll returns the raw JSON documents of every entity of a kind, ordered
// by last update, newest first.
func (s *Store) GetAll(ctx context.Context, kind string) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM documents WHERE kind = ? ORDER BY updated_at DESC`, kind)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}
	defer func() { _ = rows.Close() }()

	var out []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
		}
		out = append(out, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}
	return out, nil
}

// Delete removes the entity under (kind, id). Deleting a missing entity is
// not an error.
func (s *Store) Delete(ctx context.Context, kind, id string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}
	return nil
}

// SaveActiveBook writes the single-slot resume pointer.
func (s *Store) SaveActiveBook(ctx context.Context, state interface{}) error {
	data, err := json.Marshal(state)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to marshal active book state")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_state (slot, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		activeBookSlot, string(data), time.Now().UTC())
	if err != nil {
		return contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}
	return nil
}

// LoadActiveBook reads the resume pointer into dest. Returns
// ErrRecordNotFound when no book is active.
func (s *Store) LoadActiveBook(ctx context.Context, dest interface{}) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM session_state WHERE slot = ?`, activeBookSlot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return contextutils.WrapError(contextutils.ErrRecordNotFound, "no active book")
	}
	if err != nil {
		return contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return contextutils.WrapErrorf(err, "failed to unmarshal active book state")
	}
	return nil
}

// ClearActiveBook removes the resume pointer.
func (s *Store) ClearActiveBook(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_state WHERE slot = ?`, activeBookSlot)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrStoreQuery, err.Error())
	}
	return nil
}
