package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]KV{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestKVRoundTrip(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set("recentSearches", []byte(`["Paris"]`)))
			require.NoError(t, kv.Set("recentSearches", []byte(`["Lima","Paris"]`)))

			got, err := kv.Get("recentSearches")
			require.NoError(t, err)
			assert.Equal(t, `["Lima","Paris"]`, string(got))
		})
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, s.Set("k", value))
	value[0] = 'z'

	got, err := s.Get("k")
	require.NoError(t, err)
	got[1] = 'z'

	again, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("recentSearches", []byte(`["Oslo"]`)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("recentSearches")
	require.NoError(t, err)
	assert.Equal(t, `["Oslo"]`, string(got))
}
