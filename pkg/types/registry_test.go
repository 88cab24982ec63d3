package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"Device", "Item"}, r.Names())

	s, err := r.Resolve("Item")
	require.NoError(t, err)
	assert.Equal(t, "Item", s.Name())

	_, err = r.Resolve("Spectrometer")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistryRegisterOverrides(t *testing.T) {
	r := NewRegistry()

	custom, err := ItemSchema().Extend("Item",
		EntryInfo{Key: "beamline", Optional: true, Enforce: AsString()},
	)
	require.NoError(t, err)

	r.Register("Item", custom)

	s, err := r.Resolve("Item")
	require.NoError(t, err)
	_, ok := s.Entry("beamline")
	assert.True(t, ok, "last registration wins")
}

func TestRegistryRegistrarsRunLazily(t *testing.T) {
	r := NewRegistry()

	ran := 0
	r.AddRegistrar(func(r *Registry) {
		ran++
		s, err := ItemSchema().Extend("Motor",
			EntryInfo{Key: "travel", Optional: true, Enforce: AsFloat()},
		)
		require.NoError(t, err)
		r.Register("Motor", s)
	})
	assert.Zero(t, ran, "registrar must not run before first access")

	s, err := r.Resolve("Motor")
	require.NoError(t, err)
	assert.Equal(t, "Motor", s.Name())
	assert.Equal(t, 1, ran)

	// further access does not rerun registrars
	_, err = r.Resolve("Motor")
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
}

func TestRegistryAddRegistrarAfterLoad(t *testing.T) {
	r := NewRegistry()
	r.Names() // forces the load

	r.AddRegistrar(func(r *Registry) {
		s, err := NewSchema("Late", EntryInfo{Key: "name"})
		require.NoError(t, err)
		r.Register("Late", s)
	})

	_, err := r.Resolve("Late")
	assert.NoError(t, err, "registrars added after load run immediately")
}
