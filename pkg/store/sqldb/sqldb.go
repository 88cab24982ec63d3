// Package sqldb implements a document-database store on SQLite: one row
// per record with the serialized document in a JSON column, queried
// through the json_extract function so equality matches can be pushed
// down into the database instead of scanning in the client.
package sqldb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/itemdex/pkg/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS items (
    name TEXT PRIMARY KEY,
    doc  TEXT NOT NULL
);
`

// Store holds item records as JSON documents in a SQLite table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the items table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error { return s.db.Close() }

// ClearCache is a no-op; reads always hit the database.
func (s *Store) ClearCache() {}

// AllRecords returns every stored record in key order.
func (s *Store) AllRecords() ([]store.Entry, error) {
	rows, err := s.db.Query(`SELECT name, doc FROM items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Get retrieves the record stored under key.
func (s *Store) Get(key string) (store.Record, error) {
	var doc string
	err := s.db.QueryRow(`SELECT doc FROM items WHERE name = ?`, key).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", key, err)
	}
	return decodeDoc(key, doc)
}

// Save stores rec under key.
func (s *Store) Save(key string, rec store.Record, insert bool) error {
	doc, err := json.Marshal(map[string]any(rec))
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", key, err)
	}
	if insert {
		_, err = s.db.Exec(`INSERT INTO items (name, doc) VALUES (?, ?)`, key, string(doc))
		if err != nil && strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("%w: %q", store.ErrDuplicate, key)
		}
		if err != nil {
			return fmt.Errorf("inserting %q: %w", key, err)
		}
		return nil
	}
	res, err := s.db.Exec(`UPDATE items SET doc = ? WHERE name = ?`, string(doc), key)
	if err != nil {
		return fmt.Errorf("updating %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	return nil
}

// Delete removes the record stored under key.
func (s *Store) Delete(key string) error {
	res, err := s.db.Exec(`DELETE FROM items WHERE name = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	return nil
}

// Find pushes an equality match down into SQLite via json_extract. The
// client hands this only scalar filter values; records missing a filtered
// field never match since json_extract yields NULL for them.
func (s *Store) Find(match map[string]any) ([]store.Entry, error) {
	query := `SELECT name, doc FROM items`
	var (
		clauses []string
		args    []any
	)
	for key, value := range match {
		clauses = append(clauses, `json_extract(doc, ?) = ?`)
		args = append(args, "$."+key, value)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]store.Entry, error) {
	var entries []store.Entry
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec, err := decodeDoc(key, doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, store.Entry{Key: key, Record: rec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return entries, nil
}

func decodeDoc(key, doc string) (store.Record, error) {
	var rec store.Record
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return nil, fmt.Errorf("decoding record %q: %w", key, err)
	}
	return rec, nil
}
