package types

// EntryInfo declares one named, validated attribute of an item schema.
//
// Entries are assembled into a Schema ahead of time; a schema variant is a
// static list of these descriptors, not a runtime-generated type. All
// entries are optional unless Optional is set to false, in which case the
// entry carries no default and the client refuses to save an item that
// leaves it unset.
type EntryInfo struct {
	// Key names the entry within the schema and the stored record.
	Key string

	// Doc is a short human-readable description of the entry.
	Doc string

	// Optional marks the entry as not required for a save. Mandatory
	// entries (Optional=false) never carry a default; any Default set on
	// one is discarded at schema construction.
	Optional bool

	// Default is the value the entry takes when the caller supplies none.
	Default any

	// Enforce constrains accepted values. Nil accepts anything.
	Enforce Enforce

	// EnforceDoc explains the enforcement rule. It is attached to any
	// validation failure for diagnostics.
	EnforceDoc string

	// OmitDefaultKwarg drops this entry from a constructor's keyword
	// arguments when its value equals Default, so defaulted settings do
	// not clutter instantiation.
	OmitDefaultKwarg bool
}

// EnforceValue runs the entry's enforcement rule against a value and
// returns the possibly-coerced result. Nil is always accepted. Failures
// come back as an *EnforceError carrying the entry key and EnforceDoc.
func (e EntryInfo) EnforceValue(value any) (any, error) {
	if e.Enforce == nil || value == nil {
		return value, nil
	}
	v, err := e.Enforce.Check(e.Key, value)
	if err != nil {
		return nil, &EnforceError{Key: e.Key, Value: value, Doc: e.EnforceDoc, Err: err}
	}
	return v, nil
}

// AsOptional returns a copy of the entry with Optional set to true. Useful
// when narrowing a parent schema's entry without retyping it.
func (e EntryInfo) AsOptional() EntryInfo {
	e.Optional = true
	return e
}

// WithDefault returns a copy of the entry with a new default value.
func (e EntryInfo) WithDefault(value any) EntryInfo {
	e.Default = value
	return e
}

// WithEnforce returns a copy of the entry with a new enforcement rule.
func (e EntryInfo) WithEnforce(enf Enforce) EntryInfo {
	e.Enforce = enf
	return e
}
