package client

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/itemdex/pkg/load"
	"github.com/mesh-intelligence/itemdex/pkg/store"
	"github.com/mesh-intelligence/itemdex/pkg/types"
)

// Result is one search hit: either a SearchResult wrapping a well-formed
// container or an InvalidResult wrapping a record that could not be
// resolved into one. Neither construction path raises; Err distinguishes
// the two.
type Result interface {
	// Metadata returns the raw backend record for the hit.
	Metadata() store.Record

	// Err returns the error that made the record malformed, or nil for a
	// well-formed hit.
	Err() error
}

// SearchResult wraps one well-formed hit. The container can be keyed for
// metadata, iterated, or instantiated through a Loader.
type SearchResult struct {
	item     *types.Item
	metadata store.Record

	mu  sync.Mutex
	obj any
}

func newSearchResult(item *types.Item, rec store.Record) *SearchResult {
	return &SearchResult{item: item, metadata: rec}
}

// Item returns the resolved container.
func (r *SearchResult) Item() *types.Item { return r.item }

// Metadata returns the raw backend record.
func (r *SearchResult) Metadata() store.Record { return r.metadata.Clone() }

// Err always returns nil for a well-formed hit.
func (r *SearchResult) Err() error { return nil }

// Value looks up one metadata field by key.
func (r *SearchResult) Value(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// Keys returns the hit's metadata keys in sorted order.
func (r *SearchResult) Keys() []string { return sortedKeys(r.metadata) }

// Load instantiates the container through the given loader. The built
// object is memoized on the result, so repeated calls return the same
// instance.
func (r *SearchResult) Load(loader *load.Loader) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.obj != nil {
		return r.obj, nil
	}
	obj, err := loader.FromItem(r.item)
	if err != nil {
		return nil, err
	}
	r.obj = obj
	return obj, nil
}

func (r *SearchResult) String() string {
	return fmt.Sprintf("SearchResult(name=%s)", r.item.Name())
}

// InvalidResult wraps a hit whose stored record could not be turned into
// its declared container. It supports key-based metadata lookup and
// iteration but never instantiation; the instigating error is preserved
// for inspection.
type InvalidResult struct {
	metadata store.Record
	err      error
}

func newInvalidResult(rec store.Record, err error) *InvalidResult {
	return &InvalidResult{metadata: rec, err: err}
}

// Metadata returns the raw backend record.
func (r *InvalidResult) Metadata() store.Record { return r.metadata.Clone() }

// Err returns the error that prevented container resolution.
func (r *InvalidResult) Err() error { return r.err }

// Value looks up one metadata field by key.
func (r *InvalidResult) Value(key string) (any, bool) {
	v, ok := r.metadata[key]
	return v, ok
}

// Keys returns the hit's metadata keys in sorted order.
func (r *InvalidResult) Keys() []string { return sortedKeys(r.metadata) }

func (r *InvalidResult) String() string {
	return fmt.Sprintf("InvalidResult(name=%v, err=%v)", r.metadata[types.KeyName], r.err)
}

func sortedKeys(rec store.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
