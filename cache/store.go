// Package cache provides a content-addressed, sqlite-backed store of
// parsed-bytecode-module summaries, so repeated reads of the same buffer
// skip straight to a cached result.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Hash computes the content-addressing key for a bytecode buffer.
func Hash(buf []byte) [32]byte {
	return sha256.Sum256(buf)
}

// Summary is the cached shape of a successful parse: enough to answer
// "have I seen this exact buffer before, and what did it contain" without
// re-running the reader.
type Summary struct {
	Version       uint64
	Producer      string
	NumOperations int
	Dialects      []string
}

// Store indexes Summary values by content hash in a local sqlite
// database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS summaries (
			hash TEXT PRIMARY KEY,
			version INTEGER NOT NULL,
			producer TEXT NOT NULL,
			num_operations INTEGER NOT NULL,
			dialects TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func hashKey(h [32]byte) string { return fmt.Sprintf("%x", h) }

// Put records the summary for the given content hash, overwriting any
// prior entry for the same hash (the content is identical by definition,
// but the summary schema may have changed between reader versions).
func (s *Store) Put(hash [32]byte, summary Summary) error {
	dialects := strings.Join(summary.Dialects, ",")
	_, err := s.db.Exec(`
		INSERT INTO summaries (hash, version, producer, num_operations, dialects)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			version=excluded.version,
			producer=excluded.producer,
			num_operations=excluded.num_operations,
			dialects=excluded.dialects
	`, hashKey(hash), summary.Version, summary.Producer, summary.NumOperations, dialects)
	if err != nil {
		return fmt.Errorf("cache: storing summary: %w", err)
	}
	return nil
}

// Get returns the cached summary for hash, and whether it was present.
func (s *Store) Get(hash [32]byte) (Summary, bool, error) {
	row := s.db.QueryRow(`SELECT version, producer, num_operations, dialects FROM summaries WHERE hash = ?`, hashKey(hash))

	var summary Summary
	var dialects string
	err := row.Scan(&summary.Version, &summary.Producer, &summary.NumOperations, &dialects)
	if err == sql.ErrNoRows {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, fmt.Errorf("cache: loading summary: %w", err)
	}
	if dialects != "" {
		summary.Dialects = strings.Split(dialects, ",")
	}
	return summary, true, nil
}

// String renders a summary as JSON.
func (s Summary) String() string {
	b, err := json.Marshal(s)
	if err != nil {
		type summaryAlias Summary
		return fmt.Sprintf("%+v", summaryAlias(s))
	}
	return string(b)
}
