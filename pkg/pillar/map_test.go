package pillar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestParseYAMLKeepsOrder tests that mapping order survives decoding
func TestParseYAMLKeepsOrder(t *testing.T) {
	data := []byte(`
zeta: 1
alpha:
  second: two
  first: one
502: numeric key
list:
  - a
  - b: c
`)
	m, err := ParseYAML(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "502", "list"}, m.Keys())

	alpha, _ := m.Get("alpha")
	assert.Equal(t, []string{"second", "first"}, alpha.(*Map).Keys())

	zeta, _ := m.Get("zeta")
	assert.Equal(t, 1, zeta)

	list, _ := m.Get("list")
	items := list.([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0])
	assert.Equal(t, MapOf("b", "c"), items[1])
}

// TestParseYAMLEmpty tests that an empty document is an empty map
func TestParseYAMLEmpty(t *testing.T) {
	m, err := ParseYAML(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

// TestParseYAMLRejectsNonMapping tests top-level type checking
func TestParseYAMLRejectsNonMapping(t *testing.T) {
	_, err := ParseYAML([]byte("- a\n- b\n"))
	assert.Error(t, err)
}

// TestParseYAMLMergeKey tests anchors and merge keys
func TestParseYAMLMergeKey(t *testing.T) {
	data := []byte(`
base: &base
  backend: http://127.0.0.1:5000
  acme: true
example.com:
  <<: *base
  acme: false
`)
	m, err := ParseYAML(data)
	require.NoError(t, err)

	site, _ := m.Get("example.com")
	backend, _ := site.(*Map).Get("backend")
	acme, _ := site.(*Map).Get("acme")
	assert.Equal(t, "http://127.0.0.1:5000", backend)
	assert.Equal(t, false, acme)
}

// TestParseJSONC tests comment and trailing comma stripping
func TestParseJSONC(t *testing.T) {
	data := []byte(`{
		// sites
		"b.com": {"backend": "http://10.0.0.1"},
		"a.com": {"backend": "http://10.0.0.2",}, /* trailing */
	}`)
	m, err := ParseJSONC(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.com", "a.com"}, m.Keys())
}

// TestMapMarshalOrder tests ordered YAML and JSON encoding
func TestMapMarshalOrder(t *testing.T) {
	m := MapOf("z", 1, "a", MapOf("k", true, "b", nil))

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "z: 1\na:\n    k: true\n    b: null\n", string(out))

	js, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":{"k":true,"b":null}}`, string(js))
}

// TestMapSetDelete tests key bookkeeping
func TestMapSetDelete(t *testing.T) {
	m := MapOf("a", 1, "b", 2, "c", 3)
	m.Set("b", 20)
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())

	m.Delete("a")
	m.Delete("missing")
	assert.Equal(t, []string{"b", "c"}, m.Keys())
	v, _ := m.Get("b")
	assert.Equal(t, 20, v)
}

// TestMerge tests last-overlay-wins layering
func TestMerge(t *testing.T) {
	defaults := map[string]string{"X-Frame-Options": "DENY", "Expect-CT": "max-age=0"}
	global := map[string]string{"Expect-CT": "max-age=60"}
	site := map[string]string{"Expect-CT": "", "Referrer-Policy": "strict-origin"}

	merged := Merge(defaults, global, nil, site)

	assert.Equal(t, map[string]string{
		"X-Frame-Options": "DENY",
		"Expect-CT":       "",
		"Referrer-Policy": "strict-origin",
	}, merged)

	// Overlays are never aliased
	merged["X-Frame-Options"] = "changed"
	assert.Equal(t, "DENY", defaults["X-Frame-Options"])
}

// TestScalarHelpers tests scalar coercion helpers
func TestScalarHelpers(t *testing.T) {
	n, ok := Int("502")
	assert.True(t, ok)
	assert.Equal(t, 502, n)

	_, ok = Int("abc")
	assert.False(t, ok)

	b, ok := Bool(false)
	assert.True(t, ok)
	assert.False(t, b)

	s, ok := String(30)
	assert.True(t, ok)
	assert.Equal(t, "30", s)

	_, ok = String(MapOf())
	assert.False(t, ok)
}

// TestDecodeValue tests decoding of standalone values
func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = DecodeValue([]byte("- a\n- b\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	v, err = DecodeValue([]byte("z: 1\na: 2\n"))
	require.NoError(t, err)
	m, ok := v.(*Map)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a"}, m.Keys())

	v, err = DecodeValue(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
