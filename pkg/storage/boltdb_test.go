package storage

import (
	"testing"

	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, sealer *security.Sealer) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir(), sealer)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestSealer(t *testing.T) *security.Sealer {
	t.Helper()
	sealer, err := security.NewSealerFromPassword("test-password")
	require.NoError(t, err)
	return sealer
}

// TestSetGet tests round trips of each value shape
func TestSetGet(t *testing.T) {
	pem := "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"

	tests := []struct {
		name  string
		value any
	}{
		{name: "string", value: "hello"},
		{name: "multi-line string", value: pem},
		{name: "integer", value: 42},
		{name: "list", value: []any{"a", "b"}},
	}

	for _, sealed := range []bool{false, true} {
		t.Run(map[bool]string{false: "plain", true: "sealed"}[sealed], func(t *testing.T) {
			var sealer *security.Sealer
			if sealed {
				sealer = newTestSealer(t)
			}
			store := newTestStore(t, sealer)

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					require.NoError(t, store.Set(tt.name, tt.value))

					got, err := store.Get(tt.name)
					require.NoError(t, err)
					assert.Equal(t, tt.value, got)
				})
			}
		})
	}
}

// TestSetGetMapKeepsOrder tests that mappings come back ordered
func TestSetGetMapKeepsOrder(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("m", pillar.MapOf("zeta", "1", "alpha", "2")))

	got, err := store.Get("m")
	require.NoError(t, err)
	m, ok := got.(*pillar.Map)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha"}, m.Keys())
}

// TestSetOverwrites tests that a second set replaces the value
func TestSetOverwrites(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("k", "first"))
	require.NoError(t, store.Set("k", "second"))

	got, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

// TestSetEmptyKey tests that empty keys are rejected
func TestSetEmptyKey(t *testing.T) {
	store := newTestStore(t, nil)
	assert.Error(t, store.Set("", "v"))
}

// TestGetMissing tests the not found error
func TestGetMissing(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

// TestDelete tests removal
func TestDelete(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Delete("k"))

	_, err := store.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, store.Delete("k"), ErrKeyNotFound)
}

// TestList tests listing in key order with seal state
func TestList(t *testing.T) {
	store := newTestStore(t, newTestSealer(t))

	require.NoError(t, store.Set("b", "2"))
	require.NoError(t, store.Set("a", "1"))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)
	assert.True(t, entries[0].Sealed)
	assert.False(t, entries[0].UpdatedAt.IsZero())
}

// TestSealedWithoutKey tests reading sealed values without a sealer
func TestSealedWithoutKey(t *testing.T) {
	dir := t.TempDir()

	sealed, err := NewBoltStore(dir, newTestSealer(t))
	require.NoError(t, err)
	require.NoError(t, sealed.Set("secret", "value"))
	require.NoError(t, sealed.Close())

	plain, err := NewBoltStore(dir, nil)
	require.NoError(t, err)
	defer plain.Close()

	_, err = plain.Get("secret")
	assert.ErrorIs(t, err, ErrSealed)
}

// TestReopen tests that values persist across opens
func TestReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewBoltStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Close())

	store, err = NewBoltStore(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

// TestLookupResolve tests the store as a resolver collaborator
func TestLookupResolve(t *testing.T) {
	store := newTestStore(t, newTestSealer(t))
	require.NoError(t, store.Set("certs/example.com/cert", "CERT"))
	require.NoError(t, store.Set("certs/example.com/key", "KEY"))

	m := pillar.MapOf("sites", pillar.MapOf(
		"example.com", pillar.MapOf(
			"backend", "http://127.0.0.1:5000",
			"cert_pillar", "certs/example.com/cert",
			"key_pillar", "certs/example.com/key",
		),
	))

	resolved, err := pillar.Resolve(m, store.Lookup)
	require.NoError(t, err)

	sites, _ := resolved.Get("sites")
	site, _ := sites.(*pillar.Map).Get("example.com")
	cert, _ := site.(*pillar.Map).Get("cert")
	key, _ := site.(*pillar.Map).Get("key")
	assert.Equal(t, "CERT", cert)
	assert.Equal(t, "KEY", key)

	_, err = pillar.Resolve(pillar.MapOf("cert_pillar", "missing"), store.Lookup)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
