package client

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/mesh-intelligence/itemdex/pkg/store"
)

// Search returns every record where each filter key's stored value equals
// the filter value. An integer filter value also matches an equal
// floating-point stored value (a deliberate compatibility rule; the
// reverse does not hold). Malformed records come back as InvalidResults;
// the batch never aborts. A nil filter matches everything.
func (c *Client) Search(filters map[string]any) ([]Result, error) {
	c.maybeClearCache()
	entries, err := c.findEntries(filters)
	if err != nil {
		return nil, err
	}
	return c.wrapEntries(entries), nil
}

// SearchRange returns records whose numeric value under key falls in
// [start, end), further narrowed by equality filters.
func (c *Client) SearchRange(key string, start, end float64, filters map[string]any) ([]Result, error) {
	if start >= end {
		return nil, fmt.Errorf("invalid range: %v >= %v", start, end)
	}
	if _, clash := filters[key]; clash {
		return nil, fmt.Errorf("cannot filter on %q and range over it at once", key)
	}
	c.maybeClearCache()
	entries, err := c.findEntries(filters)
	if err != nil {
		return nil, err
	}
	var hits []store.Entry
	for _, e := range entries {
		v, ok := asFloat(e.Record[key])
		if ok && start <= v && v < end {
			hits = append(hits, e)
		}
	}
	return c.wrapEntries(hits), nil
}

// SearchRegex returns records where every named field's stringified value
// fully matches the given pattern. Matching is case-insensitive.
func (c *Client) SearchRegex(patterns map[string]string) ([]Result, error) {
	compiled := make(map[string]*regexp.Regexp, len(patterns))
	for key, pat := range patterns {
		re, err := regexp.Compile(`(?i)\A(?:` + pat + `)\z`)
		if err != nil {
			return nil, fmt.Errorf("pattern for %q: %w", key, err)
		}
		compiled[key] = re
	}

	c.maybeClearCache()
	entries, err := c.backend.AllRecords()
	if err != nil {
		return nil, err
	}
	var hits []store.Entry
	for _, e := range entries {
		match := len(compiled) > 0
		for key, re := range compiled {
			v, ok := e.Record[key]
			if !ok || !re.MatchString(fmt.Sprint(v)) {
				match = false
				break
			}
		}
		if match {
			hits = append(hits, e)
		}
	}
	return c.wrapEntries(hits), nil
}

// findEntries fetches the entries matching the equality filters. String
// filters are pushed down when the store supports it; everything else is
// applied client-side so the numeric compatibility rule stays in one
// place.
func (c *Client) findEntries(filters map[string]any) ([]store.Entry, error) {
	var (
		entries []store.Entry
		err     error
	)
	pushdown, rest := splitPushdown(filters)
	if finder, ok := c.backend.(store.Finder); ok && len(pushdown) > 0 {
		entries, err = finder.Find(pushdown)
	} else {
		rest = filters
		entries, err = c.backend.AllRecords()
	}
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return entries, nil
	}
	var hits []store.Entry
	for _, e := range entries {
		if matchesFilters(e.Record, rest) {
			hits = append(hits, e)
		}
	}
	return hits, nil
}

// splitPushdown separates string-valued equality filters, which any
// Finder evaluates identically to the client, from the rest.
func splitPushdown(filters map[string]any) (pushdown map[string]any, rest map[string]any) {
	pushdown = make(map[string]any)
	rest = make(map[string]any)
	for k, v := range filters {
		if _, ok := v.(string); ok {
			pushdown[k] = v
		} else {
			rest[k] = v
		}
	}
	return pushdown, rest
}

// matchesFilters reports whether every filter key is present in the
// record with an equal value.
func matchesFilters(rec store.Record, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := rec[key]
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

// valuesEqual compares a filter value against a stored value. Integer
// widths are interchangeable, and an integer filter matches an equal
// float stored value. A float filter does not match an integer stored
// value; the asymmetry is a preserved compatibility rule.
func valuesEqual(filter, stored any) bool {
	if reflect.DeepEqual(filter, stored) {
		return true
	}
	fi, ok := asInt64(filter)
	if !ok {
		return false
	}
	if si, ok := asInt64(stored); ok {
		return fi == si
	}
	if sf, ok := asFloat(stored); ok {
		return float64(fi) == sf
	}
	return false
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		return int64(t), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	switch t := v.(type) {
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}
