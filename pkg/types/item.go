package types

import (
	"fmt"
	"reflect"
	"sort"
)

// Item is one schema-typed container: declared entry values plus an open
// bag of extraneous key/value pairs that did not correspond to any
// declared entry. Extraneous data is preserved verbatim through saves and
// round-trips.
//
// Items compare by their full serialized content, not by identity.
type Item struct {
	schema     *Schema
	values     map[string]any
	extra      map[string]any
	extraOrder []string
}

// New constructs an Item from keyword values. Declared keys run through
// their entry's enforcement; unset declared keys take the entry default.
// Unknown keys are not rejected: they land in the extraneous bag, in
// sorted order for determinism. Values are deep-copied inbound, so later
// caller mutations of the input do not reach the item.
func New(schema *Schema, values map[string]any) (*Item, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrBadSchema)
	}
	it := &Item{
		schema: schema,
		values: make(map[string]any, len(schema.entries)),
		extra:  make(map[string]any),
	}
	seen := make(map[string]bool, len(values))
	for _, e := range schema.entries {
		v, ok := values[e.Key]
		if !ok {
			it.values[e.Key] = cloneValue(e.Default)
			continue
		}
		seen[e.Key] = true
		coerced, err := e.EnforceValue(v)
		if err != nil {
			return nil, err
		}
		it.values[e.Key] = cloneValue(coerced)
	}
	var unknown []string
	for k := range values {
		if !seen[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		it.extra[k] = cloneValue(values[k])
		it.extraOrder = append(it.extraOrder, k)
	}
	return it, nil
}

// Schema returns the schema variant this item was built from.
func (it *Item) Schema() *Schema { return it.schema }

// Get returns the value stored under key, declared or extraneous.
func (it *Item) Get(key string) (any, bool) {
	if _, ok := it.schema.index[key]; ok {
		return it.values[key], true
	}
	v, ok := it.extra[key]
	return v, ok
}

// Set stores a value under key. Declared keys run through enforcement;
// anything else goes to the extraneous bag.
func (it *Item) Set(key string, value any) error {
	if e, ok := it.schema.Entry(key); ok {
		coerced, err := e.EnforceValue(value)
		if err != nil {
			return err
		}
		it.values[key] = cloneValue(coerced)
		return nil
	}
	if _, ok := it.extra[key]; !ok {
		it.extraOrder = append(it.extraOrder, key)
	}
	it.extra[key] = cloneValue(value)
	return nil
}

// Keys returns all keys in serialization order: declared entries in
// schema order, then extraneous keys in insertion order.
func (it *Item) Keys() []string {
	out := make([]string, 0, len(it.values)+len(it.extra))
	out = append(out, it.schema.Keys()...)
	out = append(out, it.extraOrder...)
	return out
}

// Post serializes the item to a flat mapping of every declared and
// extraneous field. Values are deep-copied so the caller cannot mutate
// the item through the result.
func (it *Item) Post() map[string]any {
	out := make(map[string]any, len(it.values)+len(it.extra))
	for k, v := range it.values {
		out[k] = cloneValue(v)
	}
	for k, v := range it.extra {
		out[k] = cloneValue(v)
	}
	return out
}

// Validate re-runs every entry's enforcement against the current values
// and reports mandatory entries that remain unset. Called by the client
// before any save.
func (it *Item) Validate() error {
	var missing []string
	for _, e := range it.schema.entries {
		v := it.values[e.Key]
		if !e.Optional && v == nil {
			missing = append(missing, e.Key)
			continue
		}
		if _, err := e.EnforceValue(v); err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		return &MissingError{Schema: it.schema.name, Fields: missing}
	}
	return nil
}

// Equal reports whether two items serialize to identical content.
func (it *Item) Equal(other *Item) bool {
	if other == nil {
		return false
	}
	return reflect.DeepEqual(it.Post(), other.Post())
}

// Clone returns an independent item with the same schema and content.
func (it *Item) Clone() *Item {
	cp, err := New(it.schema, it.Post())
	if err != nil {
		// Values already passed enforcement once; a second pass cannot fail.
		panic(err)
	}
	cp.extraOrder = append([]string(nil), it.extraOrder...)
	return cp
}

// Name returns the item's record identity.
func (it *Item) Name() string {
	s, _ := it.values[KeyName].(string)
	return s
}

// DeviceClass returns the registered class or factory name, if any.
func (it *Item) DeviceClass() string {
	s, _ := it.values[KeyDeviceClass].(string)
	return s
}

// Args returns the positional constructor values.
func (it *Item) Args() []any {
	l, _ := it.values[KeyArgs].([]any)
	return l
}

// Kwargs returns the keyword constructor values.
func (it *Item) Kwargs() map[string]any {
	m, _ := it.values[KeyKwargs].(map[string]any)
	return m
}

// Active reports whether the item is marked as deployed.
func (it *Item) Active() bool {
	b, _ := it.values[KeyActive].(bool)
	return b
}

// cloneValue deep-copies the JSON-shaped values items carry: scalars,
// []any slices, and map[string]any mappings.
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
