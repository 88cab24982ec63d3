package boltdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/itemdex/pkg/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "items.db"))
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

func TestNestedValuesNormalize(t *testing.T) {
	s := newTestStore(t)

	rec := store.Record{
		"name":   "det_1",
		"kwargs": map[string]any{"name": "det_1", "depth": []any{"a", "b"}},
	}
	require.NoError(t, s.Save("det_1", rec, true))

	got, err := s.Get("det_1")
	require.NoError(t, err)

	kwargs, ok := got["kwargs"].(map[string]any)
	require.True(t, ok, "nested mappings decode with string keys")
	assert.Equal(t, "det_1", kwargs["name"])
	assert.Equal(t, []any{"a", "b"}, kwargs["depth"])
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")

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
