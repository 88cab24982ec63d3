package sqldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/itemdex/pkg/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "items.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveGetDelete(t *testing.T) {
	s := newTestStore(t)

	rec := store.Record{"name": "motor_1", "type": "Item", "active": true}
	require.NoError(t, s.Save("motor_1", rec, true))

	got, err := s.Get("motor_1")
	require.NoError(t, err)
	assert.Equal(t, "motor_1", got["name"])
	assert.Equal(t, true, got["active"])

	err = s.Save("motor_1", rec, true)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	err = s.Save("ghost", rec, false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	rec["active"] = false
	require.NoError(t, s.Save("motor_1", rec, false))
	got, err = s.Get("motor_1")
	require.NoError(t, err)
	assert.Equal(t, false, got["active"])

	require.NoError(t, s.Delete("motor_1"))
	_, err = s.Get("motor_1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete("motor_1"), store.ErrNotFound)
}

func TestAllRecordsKeyOrder(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.Save(name, store.Record{"name": name}, true))
	}

	entries, err := s.AllRecords()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].Key)
	assert.Equal(t, "mid", entries[1].Key)
	assert.Equal(t, "zeta", entries[2].Key)
}

func TestFindPushdown(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("motor_1", store.Record{"name": "motor_1", "beamline": "MFX"}, true))
	require.NoError(t, s.Save("motor_2", store.Record{"name": "motor_2", "beamline": "MFX"}, true))
	require.NoError(t, s.Save("det_1", store.Record{"name": "det_1", "beamline": "XPP"}, true))
	require.NoError(t, s.Save("bare", store.Record{"name": "bare"}, true))

	tests := []struct {
		name  string
		match map[string]any
		want  []string
	}{
		{
			name:  "single field",
			match: map[string]any{"beamline": "MFX"},
			want:  []string{"motor_1", "motor_2"},
		},
		{
			name:  "conjunction",
			match: map[string]any{"beamline": "MFX", "name": "motor_2"},
			want:  []string{"motor_2"},
		},
		{
			name:  "no hits",
			match: map[string]any{"beamline": "CXI"},
			want:  nil,
		},
		{
			name:  "empty match returns everything",
			match: nil,
			want:  []string{"bare", "det_1", "motor_1", "motor_2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.Find(tt.match)
			require.NoError(t, err)
			var keys []string
			for _, e := range entries {
				keys = append(keys, e.Key)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestFindSkipsRecordsMissingField(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save("bare", store.Record{"name": "bare"}, true))

	entries, err := s.Find(map[string]any{"beamline": "MFX"})
	require.NoError(t, err)
	assert.Empty(t, entries, "json_extract yields NULL for missing fields")
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.sqlite")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("motor_1", store.Record{"name": "motor_1"}, true))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("motor_1")
	require.NoError(t, err)
	assert.Equal(t, "motor_1", got["name"])
}
