// Package boltdb implements a document-database store on bbolt: one
// msgpack-encoded document per record, keyed by name in a single bucket.
// Every operation reads straight from the database file, so the store
// keeps no cache to invalidate.
package boltdb

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/mesh-intelligence/itemdex/pkg/store"
)

var bucketItems = []byte("items")

// Store holds item records in one bbolt bucket.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt database at path and
// ensures the items bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketItems)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating items bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// ClearCache is a no-op; reads always hit the database.
func (s *Store) ClearCache() {}

// AllRecords returns every stored record in key order.
func (s *Store) AllRecords() ([]store.Entry, error) {
	var entries []store.Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(v)
			if err != nil {
				return fmt.Errorf("decoding record %q: %w", k, err)
			}
			entries = append(entries, store.Entry{Key: string(k), Record: rec})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Get retrieves the record stored under key.
func (s *Store) Get(key string) (store.Record, error) {
	var rec store.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketItems).Get([]byte(key))
		if raw == nil {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		var err error
		rec, err = decodeRecord(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save stores rec under key.
func (s *Store) Save(key string, rec store.Record, insert bool) error {
	raw, err := msgpack.Marshal(map[string]any(rec))
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		exists := b.Get([]byte(key)) != nil
		if insert && exists {
			return fmt.Errorf("%w: %q", store.ErrDuplicate, key)
		}
		if !insert && !exists {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		return b.Put([]byte(key), raw)
	})
}

// Delete removes the record stored under key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		if b.Get([]byte(key)) == nil {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		return b.Delete([]byte(key))
	})
}

// decodeRecord unpacks a stored document into a Record with string keys
// throughout, the shape the rest of the system works in.
func decodeRecord(raw []byte) (store.Record, error) {
	var m map[string]any
	if err := msgpack.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return store.Record(normalize(m).(map[string]any)), nil
}

// normalize rewrites msgpack's map[any]any nesting into map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}
