// Package store defines the Store interface that backends of the itemdex
// metadata index implement, along with the Record form in which item
// containers are persisted and the errors every backend shares.
//
// A Store is a key-value adapter over serialized item records. Stores
// never enforce schema; all validation happens above them, at the
// client/container boundary.
package store

import "errors"

// Record is the serialized form of one item container: a flat mapping of
// field name to scalar, sequence, or mapping value.
type Record map[string]any

// Clone returns a deep copy of the record, covering the JSON-shaped
// nesting records carry.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Entry pairs a record with the key it is stored under. Keys are unique
// within one store only; a fan-out composition may surface the same key
// from several stores.
type Entry struct {
	Key    string
	Record Record
}

// Store operation errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store is a storage adapter providing record CRUD and iteration.
type Store interface {
	// AllRecords returns every stored (key, record) pair.
	AllRecords() ([]Entry, error)

	// Get retrieves the record stored under key.
	// Returns ErrNotFound if no record exists with that key.
	Get(key string) (Record, error)

	// Save stores rec under key. With insert set, an existing key is an
	// ErrDuplicate; without it, a missing key is an ErrNotFound.
	Save(key string, rec Record, insert bool) error

	// Delete removes the record stored under key.
	// Returns ErrNotFound if no record exists with that key.
	Delete(key string) error

	// ClearCache drops any internal read cache so the next read observes
	// the backing storage. Stores without a cache treat this as a no-op.
	ClearCache()
}

// Finder is implemented by stores that can push an equality match down
// into their query engine instead of having the client scan AllRecords.
type Finder interface {
	Find(match map[string]any) ([]Entry, error)
}
