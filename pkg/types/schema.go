package types

import "fmt"

// Schema is an ordered, ahead-of-time composed list of EntryInfo
// descriptors defining one item variant. Schemas are immutable after
// construction; variants are derived with Extend.
type Schema struct {
	name    string
	entries []EntryInfo
	index   map[string]int
}

// Keys every item schema provides, regardless of variant.
const (
	KeyName          = "name"
	KeyDeviceClass   = "device_class"
	KeyArgs          = "args"
	KeyKwargs        = "kwargs"
	KeyActive        = "active"
	KeyDocumentation = "documentation"
	KeyPrefix        = "prefix"
)

// NewSchema builds a schema from an ordered list of entries.
// Returns ErrBadSchema when an entry has an empty or duplicate key, or
// when a declared default fails the entry's own enforcement. Defaults on
// mandatory entries are discarded: an unset mandatory entry is detected
// by its value remaining nil.
func NewSchema(name string, entries ...EntryInfo) (*Schema, error) {
	s := &Schema{
		name:    name,
		entries: make([]EntryInfo, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("%w: %s declares an entry with no key", ErrBadSchema, name)
		}
		if _, dup := s.index[e.Key]; dup {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrBadSchema, name, e.Key)
		}
		if !e.Optional {
			e.Default = nil
		}
		if _, err := e.EnforceValue(e.Default); err != nil {
			return nil, fmt.Errorf("%w: default for %s.%s fails its own enforcement: %v",
				ErrBadSchema, name, e.Key, err)
		}
		s.index[e.Key] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Extend derives a new schema from the receiver. Entries whose key already
// exists in the parent replace the parent's entry in place, narrowing it;
// entries with new keys append after the parent's. A child can never
// remove a parent entry.
func (s *Schema) Extend(name string, entries ...EntryInfo) (*Schema, error) {
	merged := make([]EntryInfo, len(s.entries))
	copy(merged, s.entries)
	for _, e := range entries {
		if i, ok := s.index[e.Key]; ok {
			merged[i] = e
		} else {
			merged = append(merged, e)
		}
	}
	return NewSchema(name, merged...)
}

// Name returns the schema variant name used in stored records and the
// registry.
func (s *Schema) Name() string { return s.name }

// Entries returns a copy of the ordered entry list.
func (s *Schema) Entries() []EntryInfo {
	out := make([]EntryInfo, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry looks up a single entry by key.
func (s *Schema) Entry(key string) (EntryInfo, bool) {
	i, ok := s.index[key]
	if !ok {
		return EntryInfo{}, false
	}
	return s.entries[i], true
}

// Keys returns the declared entry keys in schema order.
func (s *Schema) Keys() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Key
	}
	return out
}

// Mandatory returns the keys of entries that must be set before a save.
func (s *Schema) Mandatory() []string {
	var out []string
	for _, e := range s.entries {
		if !e.Optional {
			out = append(out, e.Key)
		}
	}
	return out
}

// mustSchema backs the built-in schema declarations, where a construction
// error is a programming mistake.
func mustSchema(s *Schema, err error) *Schema {
	if err != nil {
		panic(err)
	}
	return s
}

// itemSchema and deviceSchema are the built-in variants.
var (
	itemSchema = mustSchema(NewSchema("Item",
		EntryInfo{
			Key:     KeyName,
			Doc:     "Shorthand identifier-style name for the item",
			Enforce: Matches(Identifier),
		},
		EntryInfo{
			Key:      KeyDeviceClass,
			Doc:      "Registered class or factory that represents the item",
			Optional: true,
			Enforce:  AsString(),
		},
		EntryInfo{
			Key:      KeyArgs,
			Doc:      "Positional arguments to pass to device_class",
			Optional: true,
			Default:  []any{},
			Enforce:  AsList(),
		},
		EntryInfo{
			Key:      KeyKwargs,
			Doc:      "Keyword arguments to pass to device_class",
			Optional: true,
			Default:  map[string]any{},
			Enforce:  AsMap(),
		},
		EntryInfo{
			Key:      KeyActive,
			Doc:      "Whether the item is actively deployed",
			Optional: true,
			Default:  true,
			Enforce:  AsBool(),
		},
		EntryInfo{
			Key:      KeyDocumentation,
			Doc:      "Relevant documentation for the item",
			Optional: true,
			Enforce:  AsString(),
		},
	))

	deviceSchema = mustSchema(itemSchema.Extend("Device",
		EntryInfo{
			Key:     KeyPrefix,
			Doc:     "Base address shared by the device's records",
			Enforce: AsString(),
		},
		EntryInfo{
			Key:      KeyArgs,
			Doc:      "Positional arguments to pass to device_class",
			Optional: true,
			Default:  []any{"{{prefix}}"},
			Enforce:  AsList(),
		},
		EntryInfo{
			Key:      KeyKwargs,
			Doc:      "Keyword arguments to pass to device_class",
			Optional: true,
			Default:  map[string]any{"name": "{{name}}"},
			Enforce:  AsMap(),
		},
	))
)

// ItemSchema returns the base schema: the smallest description of an
// object that can be indexed.
func ItemSchema() *Schema { return itemSchema }

// DeviceSchema returns the instrument-flavored schema: ItemSchema plus a
// mandatory prefix, with args and kwargs defaults templated on it.
func DeviceSchema() *Schema { return deviceSchema }
