// Package jsonfile implements the file-backed JSON store: the whole
// record set is one serialized document on disk, read wholesale and
// rewritten wholesale on mutation. Writes are staged to a temporary file
// and atomically renamed into place, so an interruption mid-write cannot
// leave a truncated store behind.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/itemdex/pkg/store"
)

// Store keeps all records in a single JSON document mapping name to
// record. Reads are served from an in-memory cache until ClearCache is
// called; concurrent writers from other processes are therefore only
// observed after an invalidation.
type Store struct {
	mu    sync.RWMutex
	path  string
	cache map[string]store.Record
	log   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for cache and write diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns a store reading and writing the JSON document at path. The
// file is not touched until the first operation; a missing file reads as
// an empty store.
func New(path string, opts ...Option) *Store {
	s := &Store{path: path, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Path returns the location of the backing document.
func (s *Store) Path() string { return s.path }

// Initialize writes an empty database document. It refuses to clobber an
// existing non-empty file.
func (s *Store) Initialize() error {
	if fi, err := os.Stat(s.path); err == nil && fi.Size() > 0 {
		return fmt.Errorf("file %s already exists, cannot initialize a new database", s.path)
	}
	return s.write(map[string]store.Record{})
}

// ClearCache drops the in-memory copy of the document so the next read
// loads it from disk again.
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// AllRecords returns every stored record, keyed by name, in sorted key
// order.
func (s *Store) AllRecords() ([]store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(db))
	for k := range db {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]store.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, store.Entry{Key: k, Record: db[k].Clone()})
	}
	return entries, nil
}

// Get retrieves the record stored under key.
func (s *Store) Get(key string) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	rec, ok := db[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	return rec.Clone(), nil
}

// Save stores rec under key and rewrites the document. Unknown fields in
// rec round-trip untouched.
func (s *Store) Save(key string, rec store.Record, insert bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.loadLocked()
	if err != nil {
		return err
	}
	_, exists := db[key]
	if insert && exists {
		return fmt.Errorf("%w: %q", store.ErrDuplicate, key)
	}
	if !insert && !exists {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	next := copyDocument(db)
	next[key] = rec.Clone()
	return s.writeLocked(next)
}

// Delete removes the record stored under key and rewrites the document.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.loadLocked()
	if err != nil {
		return err
	}
	if _, ok := db[key]; !ok {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	next := copyDocument(db)
	delete(next, key)
	return s.writeLocked(next)
}

// copyDocument shallow-copies the document map. Mutations are staged on
// the copy so a failed write leaves the cache agreeing with disk.
func copyDocument(db map[string]store.Record) map[string]store.Record {
	out := make(map[string]store.Record, len(db)+1)
	for k, v := range db {
		out[k] = v
	}
	return out
}

// loadLocked returns the cached document, reading it from disk on a cache
// miss. A missing file is an empty store. Caller holds s.mu.
func (s *Store) loadLocked() (map[string]store.Record, error) {
	if s.cache != nil {
		return s.cache, nil
	}
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.log.Debug("database file absent, starting empty", "path", s.path)
		s.cache = make(map[string]store.Record)
		return s.cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	db := make(map[string]store.Record)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &db); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", s.path, err)
		}
	}
	s.cache = db
	return db, nil
}

// writeLocked persists db and keeps it as the cache. Caller holds s.mu.
func (s *Store) writeLocked(db map[string]store.Record) error {
	if err := s.write(db); err != nil {
		return err
	}
	s.cache = db
	return nil
}

// write stages the document to a uniquely named temp file in the same
// directory, syncs it, and renames it over the previous document. The
// temp file is removed on every failure path.
func (s *Store) write(db map[string]store.Record) error {
	data, err := json.MarshalIndent(db, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding database: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmpName := filepath.Join(dir, fmt.Sprintf("_%s_%s", uuid.NewString()[:8], filepath.Base(s.path)))
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publishing %s: %w", s.path, err)
	}
	return nil
}
