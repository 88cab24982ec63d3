// Package client orchestrates one or more stores behind a single façade:
// cached reads, unified search (equality, numeric range, regex), CRUD
// with schema validation, and mapping-style access to the record set.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/itemdex/pkg/store"
	"github.com/mesh-intelligence/itemdex/pkg/types"
)

// Client-side metadata stamped onto every saved record.
const (
	attrType     = "type"
	attrCreation = "creation"
	attrLastEdit = "last_edit"
)

// clientAttrs are stripped from an item's serialized content before fresh
// values are stamped on at save time.
var clientAttrs = []string{attrType, attrCreation, attrLastEdit}

// Client errors.
var (
	ErrNoMatch   = errors.New("no item matched the search criteria")
	ErrAmbiguous = errors.New("more than one item matched the search criteria")
)

// Client mediates access to a Store, resolving raw records into schema-
// typed containers through a Registry.
type Client struct {
	backend  store.Store
	registry *types.Registry
	log      *slog.Logger

	mu     sync.Mutex
	retain int
}

// Option configures a Client.
type Option func(*Client)

// WithRegistry substitutes the schema registry the client resolves record
// types through. Defaults to types.DefaultRegistry.
func WithRegistry(r *types.Registry) Option {
	return func(c *Client) { c.registry = r }
}

// WithLogger sets the logger used for per-record diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client over the given store.
func New(backend store.Store, opts ...Option) *Client {
	c := &Client{
		backend:  backend,
		registry: types.DefaultRegistry,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Store returns the underlying store.
func (c *Client) Store() store.Store { return c.backend }

// RetainCache runs fn with the store's read cache held open: the cache is
// cleared once on entry and once on every exit path, and the implicit
// per-operation invalidation is suppressed for the dynamic extent of fn.
// Repeated searches inside fn therefore observe one stable snapshot even
// if another process mutates the backend meanwhile. Nesting is allowed;
// the cache refreshes when the outermost scope ends.
func (c *Client) RetainCache(fn func() error) error {
	c.mu.Lock()
	if c.retain == 0 {
		c.backend.ClearCache()
	}
	c.retain++
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.retain--
		if c.retain == 0 {
			c.backend.ClearCache()
		}
		c.mu.Unlock()
	}()

	return fn()
}

// maybeClearCache invalidates the store cache unless a retain-cache scope
// is open.
func (c *Client) maybeClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retain == 0 {
		c.backend.ClearCache()
	}
}

// CreateItem builds a container of the named registered type from keyword
// values. The item exists only in memory until Add persists it.
func (c *Client) CreateItem(typeName string, values map[string]any) (*types.Item, error) {
	schema, err := c.registry.Resolve(typeName)
	if err != nil {
		return nil, err
	}
	return types.New(schema, values)
}

// Add validates the item and persists it as a new record. An existing
// record under the same name is rejected with store.ErrDuplicate.
func (c *Client) Add(item *types.Item) error {
	return c.persist(item, true)
}

// Save validates the item and persists it over its existing record.
func (c *Client) Save(item *types.Item) error {
	return c.persist(item, false)
}

// Remove deletes the item's record from the store. The in-memory
// container stays valid but is no longer linked to storage.
func (c *Client) Remove(item *types.Item) error {
	name := item.Name()
	if name == "" {
		return &types.MissingError{Schema: item.Schema().Name(), Fields: []string{types.KeyName}}
	}
	c.log.Info("removing item", "name", name)
	return c.backend.Delete(name)
}

// persist validates, stamps client-side metadata, writes the item's
// record under its name, and mirrors the stamps back onto the item.
func (c *Client) persist(item *types.Item, insert bool) error {
	if err := item.Validate(); err != nil {
		return err
	}
	post := store.Record(item.Post())

	// Carry creation through updates, stamp it on inserts.
	creation, _ := post[attrCreation].(string)
	if creation == "" {
		creation = time.Now().Format(time.RFC3339)
	}
	for _, key := range clientAttrs {
		delete(post, key)
	}
	post[attrType] = item.Schema().Name()
	post[attrCreation] = creation
	post[attrLastEdit] = time.Now().Format(time.RFC3339)

	name := item.Name()
	c.log.Info("storing item", "name", name, "insert", insert)
	if err := c.backend.Save(name, post, insert); err != nil {
		return err
	}

	// Stamp the attrs back onto the container so repeated saves of the
	// same in-memory item keep their creation time.
	for _, key := range clientAttrs {
		if err := item.Set(key, post[key]); err != nil {
			return err
		}
	}
	return nil
}

// itemFromRecord resolves a raw record into a container via the record's
// declared type. The client attrs travel along as extraneous fields so a
// later save round-trips them.
func (c *Client) itemFromRecord(rec store.Record) (*types.Item, error) {
	typeName, ok := rec[attrType].(string)
	if !ok || typeName == "" {
		return nil, fmt.Errorf("%w: record %v declares no type", types.ErrUnknownType, rec[types.KeyName])
	}
	schema, err := c.registry.Resolve(typeName)
	if err != nil {
		return nil, err
	}
	item, err := types.New(schema, rec.Clone())
	if err != nil {
		return nil, err
	}
	// A stored record that leaves a mandatory entry unset is malformed
	// even though construction tolerates it.
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// wrapEntries resolves each record into a Result. A record that cannot be
// resolved becomes an InvalidResult carrying the instigating error; the
// batch never aborts on a bad record.
func (c *Client) wrapEntries(entries []store.Entry) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		item, err := c.itemFromRecord(e.Record)
		if err != nil {
			c.log.Warn("entry is malformed", "name", e.Key, "err", err)
			results = append(results, newInvalidResult(e.Record, err))
			continue
		}
		results = append(results, newSearchResult(item, e.Record))
	}
	return results
}

// Get returns the single Result stored under name, malformed records
// included. Returns store.ErrNotFound when no record exists.
func (c *Client) Get(name string) (Result, error) {
	c.maybeClearCache()
	rec, err := c.backend.Get(name)
	if err != nil {
		return nil, err
	}
	item, err := c.itemFromRecord(rec)
	if err != nil {
		return newInvalidResult(rec, err), nil
	}
	return newSearchResult(item, rec), nil
}

// Find returns the single well-formed item matching the filters.
// Returns ErrNoMatch when nothing matches and ErrAmbiguous when more
// than one record does.
func (c *Client) Find(filters map[string]any) (*SearchResult, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w: no search criteria given", ErrNoMatch)
	}
	results, err := c.Search(filters)
	if err != nil {
		return nil, err
	}
	var found *SearchResult
	for _, r := range results {
		sr, ok := r.(*SearchResult)
		if !ok {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguous
		}
		found = sr
	}
	if found == nil {
		return nil, ErrNoMatch
	}
	return found, nil
}

// Keys returns every stored record name.
func (c *Client) Keys() ([]string, error) {
	c.maybeClearCache()
	entries, err := c.backend.AllRecords()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys, nil
}

// Items returns every well-formed container in the store. Malformed
// records are skipped; use Search to see them as InvalidResults.
func (c *Client) Items() ([]*types.Item, error) {
	results, err := c.Search(nil)
	if err != nil {
		return nil, err
	}
	items := make([]*types.Item, 0, len(results))
	for _, r := range results {
		if sr, ok := r.(*SearchResult); ok {
			items = append(items, sr.Item())
		}
	}
	return items, nil
}

// Len returns the number of well-formed containers in the store.
func (c *Client) Len() (int, error) {
	items, err := c.Items()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Contains reports whether any record, well-formed or not, is stored
// under name.
func (c *Client) Contains(name string) (bool, error) {
	c.maybeClearCache()
	_, err := c.backend.Get(name)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ValidateAll audits every stored record and returns the names of those
// that fail container resolution or mandatory-field validation.
func (c *Client) ValidateAll() ([]string, error) {
	c.maybeClearCache()
	entries, err := c.backend.AllRecords()
	if err != nil {
		return nil, err
	}
	var bad []string
	for _, e := range entries {
		if _, err := c.itemFromRecord(e.Record); err != nil {
			c.log.Warn("validation failed", "name", e.Key, "err", err)
			bad = append(bad, e.Key)
		}
	}
	return bad, nil
}

// ChoicesForField lists the distinct values stored under field across all
// well-formed items. Returns ErrNoMatch when no item carries the field.
func (c *Client) ChoicesForField(field string) ([]any, error) {
	items, err := c.Items()
	if err != nil {
		return nil, err
	}
	var choices []any
	for _, it := range items {
		v, ok := it.Get(field)
		if !ok || v == nil {
			continue
		}
		dup := false
		for _, c := range choices {
			if valuesEqual(c, v) {
				dup = true
				break
			}
		}
		if !dup {
			choices = append(choices, v)
		}
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("%w: no entries found with field %q", ErrNoMatch, field)
	}
	return choices, nil
}
