// Package multi implements the fan-out store: several stores composed
// into one logical view. Reads merge every store's records; writes and
// deletes route to the store that owns the key, or to a designated
// default store for keys no store holds yet.
package multi

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/itemdex/pkg/store"
)

// Store composes the given stores in priority order. The first store is
// the default destination for new keys unless another is designated.
type Store struct {
	stores []store.Store
	def    store.Store
}

// Option configures a Store.
type Option func(*Store)

// WithDefault designates the store that receives inserts of keys no
// composed store currently owns.
func WithDefault(def store.Store) Option {
	return func(s *Store) { s.def = def }
}

// New composes stores into one logical store. At least one store is
// required.
func New(stores []store.Store, opts ...Option) (*Store, error) {
	if len(stores) == 0 {
		return nil, errors.New("fan-out store needs at least one store")
	}
	s := &Store{stores: stores, def: stores[0]}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// AllRecords concatenates every composed store's entries in composition
// order. Keys are only unique within one store, so a key held by several
// stores surfaces once per store, as separate entries.
func (s *Store) AllRecords() ([]store.Entry, error) {
	var merged []store.Entry
	for _, sub := range s.stores {
		entries, err := sub.AllRecords()
		if err != nil {
			return nil, err
		}
		merged = append(merged, entries...)
	}
	return merged, nil
}

// Get returns the record from the first composed store holding key.
func (s *Store) Get(key string) (store.Record, error) {
	for _, sub := range s.stores {
		rec, err := sub.Get(key)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
}

// Save routes the write to the store owning key; an insert of a key no
// store owns goes to the default store.
func (s *Store) Save(key string, rec store.Record, insert bool) error {
	owner, err := s.owner(key)
	if err != nil {
		return err
	}
	if owner == nil {
		if !insert {
			return fmt.Errorf("%w: %q", store.ErrNotFound, key)
		}
		return s.def.Save(key, rec, true)
	}
	if insert {
		return fmt.Errorf("%w: %q", store.ErrDuplicate, key)
	}
	return owner.Save(key, rec, false)
}

// Delete routes the delete to the store owning key.
func (s *Store) Delete(key string) error {
	owner, err := s.owner(key)
	if err != nil {
		return err
	}
	if owner == nil {
		return fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}
	return owner.Delete(key)
}

// ClearCache fans the invalidation out to every composed store.
func (s *Store) ClearCache() {
	for _, sub := range s.stores {
		sub.ClearCache()
	}
}

// owner returns the first composed store holding key, or nil when none
// does.
func (s *Store) owner(key string) (store.Store, error) {
	for _, sub := range s.stores {
		_, err := sub.Get(key)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}
