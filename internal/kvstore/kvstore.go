// Package kvstore is a reference implementation of the key-value store
// collaborator that owns HASH/JSON document bodies by key, which
// command.Manager only ever reads back through two narrow seams —
// command.DocSource (FT.ALTER's rebuild-and-replay) and
// shardexec.Loader (FT.SEARCH's LOAD clause and FT.AGGREGATE's
// LoadStage). It exists for tests and the example binary, not as part
// of the command surface itself.
//
// Backed by a database/sql.DB opened against the modernc.org/sqlite
// driver, WAL pragmas set once at open, and plain
// ExecContext/QueryRowContext calls rather than an ORM — just
// prefix-scannable key storage, no FTS5 or schema-migration machinery.
package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kailas-cloud/ftsearch/internal/schema"
	"github.com/kailas-cloud/ftsearch/internal/shard"
)

const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	key        TEXT PRIMARY KEY,
	shard_id   TEXT NOT NULL,
	hash_fields TEXT,
	json_doc   BLOB
);
CREATE INDEX IF NOT EXISTS documents_shard_id ON documents(shard_id);
`

// Store is a single sqlite-backed key-value table keyed by document key,
// with HASH fields serialized as a JSON object and JSON documents stored
// as their raw bytes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite database at path. Pass
// ":memory:" for an ephemeral store, the common case in tests.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	} else {
		dsn += "&_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("kvstore: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("kvstore: create schema: %w", err)
	}
	db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutHash upserts a HASH document's fields under key, owned by shardID.
func (s *Store) PutHash(ctx context.Context, shardID, key string, fields map[string]string) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("kvstore: marshal hash fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (key, shard_id, hash_fields, json_doc) VALUES (?, ?, ?, NULL)
		 ON CONFLICT(key) DO UPDATE SET shard_id=excluded.shard_id, hash_fields=excluded.hash_fields, json_doc=NULL`,
		key, shardID, string(b))
	return err
}

// PutJSON upserts a JSON document's raw bytes under key, owned by shardID.
func (s *Store) PutJSON(ctx context.Context, shardID, key string, doc []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (key, shard_id, hash_fields, json_doc) VALUES (?, ?, NULL, ?)
		 ON CONFLICT(key) DO UPDATE SET shard_id=excluded.shard_id, hash_fields=NULL, json_doc=excluded.json_doc`,
		key, shardID, doc)
	return err
}

// Delete removes key, if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key)
	return err
}

// Scan implements command.DocSource: every key under prefix owned by
// shardID, shaped for Alter's rescan callback. kind selects which
// column is read back — HASH rows ignore json_doc and vice versa,
// matching how shard.Shard.Alter only passes rescan the kind the
// index's own Definition.DocKind expects.
func (s *Store) Scan(shardID, prefix string, kind schema.DocKind) []shard.RawDoc {
	rows, err := s.db.Query(
		`SELECT key, hash_fields, json_doc FROM documents WHERE shard_id = ? AND key LIKE ? || '%'`,
		shardID, prefix)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []shard.RawDoc
	for rows.Next() {
		var key string
		var hashFields sql.NullString
		var jsonDoc []byte
		if err := rows.Scan(&key, &hashFields, &jsonDoc); err != nil {
			continue
		}
		doc := shard.RawDoc{Key: key}
		switch kind {
		case schema.DocHash:
			if hashFields.Valid {
				var fields map[string]string
				if err := json.Unmarshal([]byte(hashFields.String), &fields); err == nil {
					doc.HashFields = fields
				}
			}
		case schema.DocJSON:
			doc.JSON = jsonDoc
		}
		out = append(out, doc)
	}
	return out
}

// Loader implements a shardexec.Loader-compatible function: looks a key
// up regardless of shard, returning whichever of hashFields/jsonDoc was
// stored for it. Used by FT.SEARCH's LOAD clause and FT.AGGREGATE's
// LoadStage to backfill fields the index itself doesn't retain.
func (s *Store) Loader(key string) (map[string]string, []byte, bool) {
	var hashFields sql.NullString
	var jsonDoc []byte
	err := s.db.QueryRow(`SELECT hash_fields, json_doc FROM documents WHERE key = ?`, key).
		Scan(&hashFields, &jsonDoc)
	if err != nil {
		return nil, nil, false
	}
	if hashFields.Valid {
		var fields map[string]string
		if err := json.Unmarshal([]byte(hashFields.String), &fields); err != nil {
			return nil, nil, false
		}
		return fields, nil, true
	}
	return nil, jsonDoc, true
}
