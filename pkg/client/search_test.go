package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/itemdex/pkg/store/sqldb"
	"github.com/mesh-intelligence/itemdex/pkg/types"
)

func TestSearchEquality(t *testing.T) {
	c := newTestClient(t)
	addItem(t, c, "Item", map[string]any{"name": "motor_1", "beamline": "MFX"})
	addItem(t, c, "Item", map[string]any{"name": "motor_2", "beamline": "MFX"})
	addItem(t, c, "Item", map[string]any{"name": "det_1", "beamline": "XPP"})

	tests := []struct {
		name    string
		filters map[string]any
		want    int
	}{
		{name: "single field", filters: map[string]any{"beamline": "MFX"}, want: 2},
		{name: "conjunction", filters: map[string]any{"beamline": "MFX", "name": "motor_2"}, want: 1},
		{name: "no hits", filters: map[string]any{"beamline": "CXI"}, want: 0},
		{name: "missing field never matches", filters: map[string]any{"serial": "123"}, want: 0},
		{name: "nil filters match everything", filters: nil, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := c.Search(tt.filters)
			require.NoError(t, err)
			assert.Len(t, results, tt.want)
		})
	}
}

func TestSearchIntFilterMatchesStoredFloat(t *testing.T) {
	c := newTestClient(t)
	// the JSON store reads numbers back as float64
	addItem(t, c, "Item", map[string]any{"name": "motor_1", "position": 10})

	results, err := c.Search(map[string]any{"position": 10})
	require.NoError(t, err)
	assert.Len(t, results, 1, "an integer filter matches an equal stored float")

	results, err = c.Search(map[string]any{"position": 10.0})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = c.Search(map[string]any{"position": 10.5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestValuesEqualAsymmetry(t *testing.T) {
	tests := []struct {
		name   string
		filter any
		stored any
		want   bool
	}{
		{name: "identical strings", filter: "a", stored: "a", want: true},
		{name: "int widths interchangeable", filter: int64(3), stored: 3, want: true},
		{name: "int filter matches float stored", filter: 3, stored: 3.0, want: true},
		{name: "float filter does not match int stored", filter: 3.0, stored: 3, want: false},
		{name: "unequal numbers", filter: 3, stored: 4.0, want: false},
		{name: "string never matches number", filter: "3", stored: 3, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.filter, tt.stored))
		})
	}
}

func TestSearchRange(t *testing.T) {
	c := newTestClient(t)
	for name, pos := range map[string]int{"a": 1, "b": 5, "c": 9, "d": 15} {
		addItem(t, c, "Item", map[string]any{"name": name, "position": pos})
	}

	results, err := c.SearchRange("position", 4, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var names []string
	for _, r := range results {
		names = append(names, r.Metadata()["name"].(string))
	}
	assert.ElementsMatch(t, []string{"b", "c"}, names)

	// the start bound is inclusive, the end bound is not
	results, err = c.SearchRange("position", 5, 9, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Metadata()["name"])
}

func TestSearchRangeRejectsBadArguments(t *testing.T) {
	c := newTestClient(t)

	_, err := c.SearchRange("position", 10, 4, nil)
	assert.Error(t, err, "an empty interval is a caller mistake")

	_, err = c.SearchRange("position", 4, 10, map[string]any{"position": 5})
	assert.Error(t, err, "the range key cannot also be an equality filter")
}

func TestSearchRangeSkipsNonNumeric(t *testing.T) {
	c := newTestClient(t)
	addItem(t, c, "Item", map[string]any{"name": "a", "position": "north"})
	addItem(t, c, "Item", map[string]any{"name": "b", "position": 5})

	results, err := c.SearchRange("position", 0, 100, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Metadata()["name"])
}

func TestSearchRegex(t *testing.T) {
	c := newTestClient(t)
	addItem(t, c, "Item", map[string]any{"name": "dev_1"})
	addItem(t, c, "Item", map[string]any{"name": "dev_22"})
	addItem(t, c, "Item", map[string]any{"name": "device_1"})

	tests := []struct {
		name     string
		patterns map[string]string
		want     []string
	}{
		{
			name:     "full match only",
			patterns: map[string]string{"name": "dev_[0-9]+"},
			want:     []string{"dev_1", "dev_22"},
		},
		{
			name:     "case insensitive",
			patterns: map[string]string{"name": "DEV_1"},
			want:     []string{"dev_1"},
		},
		{
			name:     "missing field never matches",
			patterns: map[string]string{"serial": ".*"},
			want:     nil,
		},
		{
			name:     "no patterns no hits",
			patterns: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := c.SearchRegex(tt.patterns)
			require.NoError(t, err)
			var names []string
			for _, r := range results {
				names = append(names, r.Metadata()["name"].(string))
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestSearchPushdownMatchesClientSide(t *testing.T) {
	backend, err := sqldb.Open(filepath.Join(t.TempDir(), "items.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	c := New(backend, WithRegistry(types.NewRegistry()))

	addItem(t, c, "Item", map[string]any{"name": "motor_1", "beamline": "MFX", "position": 10})
	addItem(t, c, "Item", map[string]any{"name": "motor_2", "beamline": "XPP", "position": 10})

	// the string filter goes to the database, the numeric one stays
	// client-side so both evaluate under the same rules
	results, err := c.Search(map[string]any{"beamline": "MFX", "position": 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "motor_1", results[0].Metadata()["name"])
}

func TestSearchRegexRejectsBadPattern(t *testing.T) {
	c := newTestClient(t)
	_, err := c.SearchRegex(map[string]string{"name": "("})
	assert.Error(t, err)
}

func TestSearchRegexStringifiesValues(t *testing.T) {
	c := newTestClient(t)
	addItem(t, c, "Item", map[string]any{"name": "motor_1", "position": 42})

	results, err := c.SearchRegex(map[string]string{"position": "42"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
