package sitespec

import (
	"testing"

	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) *pillar.Map {
	t.Helper()
	m, err := pillar.ParseYAML([]byte(doc))
	require.NoError(t, err)
	return m
}

func normalize(t *testing.T, doc string) *types.Pillar {
	t.Helper()
	p, err := Normalize(mustParse(t, doc))
	require.NoError(t, err)
	return p
}

// TestNormalizeBackendShorthands tests that every backend shorthand yields the same site
func TestNormalizeBackendShorthands(t *testing.T) {
	forms := map[string]string{
		"backend": `
example.com:
  backend: http://127.0.0.1:5000
`,
		"backends string": `
example.com:
  backends:
    /: http://127.0.0.1:5000
`,
		"backends upstream": `
example.com:
  backends:
    /:
      upstream: http://127.0.0.1:5000
`,
		"backends upstreams": `
example.com:
  backends:
    /:
      upstreams:
        - http://127.0.0.1:5000
`,
	}

	for name, doc := range forms {
		t.Run(name, func(t *testing.T) {
			p := normalize(t, doc)
			require.NoError(t, Validate(p))
			require.Len(t, p.Sites, 1)

			site := p.Sites[0]
			assert.Equal(t, "example.com", site.Domain)
			require.Len(t, site.Locations, 1)
			assert.Equal(t, "/", site.Locations[0].Path)
			assert.Equal(t, []string{"http://127.0.0.1:5000"}, site.Locations[0].Upstreams)
		})
	}
}

// TestNormalizeRedirect tests redirect shorthand and defaults
func TestNormalizeRedirect(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		path     string
		expected types.Redirect
	}{
		{
			name: "site plain",
			doc: `
example.com:
  redirect: https://foo.com
`,
			path:     "/",
			expected: types.Redirect{URL: "https://foo.com", Status: 301, IncludeURI: true},
		},
		{
			name: "site detailed",
			doc: `
example.com:
  redirect:
    url: https://foo.com
    status: 302
    include_uri: false
`,
			path:     "/",
			expected: types.Redirect{URL: "https://foo.com", Status: 302, IncludeURI: false},
		},
		{
			name: "site without optionals",
			doc: `
example.com:
  redirect:
    url: https://foo.com
    status: 307
`,
			path:     "/",
			expected: types.Redirect{URL: "https://foo.com", Status: 307, IncludeURI: true},
		},
		{
			name: "location plain",
			doc: `
example.com:
  backends:
    /: http://127.0.0.1:5000
    /foo:
      redirect: https://foo.com
`,
			path:     "/foo",
			expected: types.Redirect{URL: "https://foo.com", Status: 301, IncludeURI: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := normalize(t, tt.doc)
			require.NoError(t, Validate(p))

			loc := p.Sites[0].Location(tt.path)
			require.NotNil(t, loc)
			require.NotNil(t, loc.Redirect)
			assert.Equal(t, tt.expected, *loc.Redirect)
		})
	}
}

// TestNormalizeSortsSitesAndLocations tests output ordering independent of input order
func TestNormalizeSortsSitesAndLocations(t *testing.T) {
	p := normalize(t, `
zeta.com:
  backends:
    /z: http://127.0.0.1:1
    /: http://127.0.0.1:2
    /a: http://127.0.0.1:3
alpha.com:
  backend: http://127.0.0.1:4
`)

	require.Len(t, p.Sites, 2)
	assert.Equal(t, "alpha.com", p.Sites[0].Domain)
	assert.Equal(t, "zeta.com", p.Sites[1].Domain)

	var paths []string
	for _, loc := range p.Sites[1].Locations {
		paths = append(paths, loc.Path)
	}
	assert.Equal(t, []string{"/", "/a", "/z"}, paths)
}

// TestNormalizeCertificates tests the three certificate forms
func TestNormalizeCertificates(t *testing.T) {
	t.Run("literal", func(t *testing.T) {
		p := normalize(t, `
example.com:
  backend: http://127.0.0.1:5000
  cert: FOOCERT
  key: FOOKEY
`)
		require.NoError(t, Validate(p))
		assert.Equal(t, []types.CertificatePair{{
			Cert: types.CertificateSource{Contents: "FOOCERT"},
			Key:  types.CertificateSource{Contents: "FOOKEY"},
		}}, p.Sites[0].Certificates)
	})

	t.Run("reference", func(t *testing.T) {
		p := normalize(t, `
example.com:
  backend: http://127.0.0.1:5000
  cert_pillar: some:pillar:key
  key_pillar: other:pillar:key
`)
		require.NoError(t, Validate(p))
		assert.Equal(t, []types.CertificatePair{{
			Cert: types.CertificateSource{Reference: "some:pillar:key"},
			Key:  types.CertificateSource{Reference: "other:pillar:key"},
		}}, p.Sites[0].Certificates)
	})

	t.Run("list", func(t *testing.T) {
		p := normalize(t, `
example.com:
  backend: http://127.0.0.1:5000
  certs:
    - cert_pillar: pillar:rsa:cert
      key_pillar: pillar:rsa:key
    - cert_pillar: pillar:ecdsa:cert
      key_pillar: pillar:ecdsa:key
`)
		require.NoError(t, Validate(p))
		certs := p.Sites[0].Certificates
		require.Len(t, certs, 2)
		assert.Equal(t, "pillar:rsa:cert", certs[0].Cert.Reference)
		assert.Equal(t, "pillar:ecdsa:key", certs[1].Key.Reference)
	})
}

// TestNormalizeRateLimitClonesCoveringLocation tests that a rate-limited path gets its own location
func TestNormalizeRateLimitClonesCoveringLocation(t *testing.T) {
	p := normalize(t, `
example.com:
  rate_limit:
    zones:
      default:
        size: 10m
        rate: 60r/m
        key: $cookie_session
      sensitive:
        rate: 10r/m
    backends:
      /:
        zone: default
        burst: 30
      /login:
        zone: sensitive
        burst: 5
        nodelay: false
  backend: http://127.0.0.1:5000
`)
	require.NoError(t, Validate(p))

	site := p.Sites[0]
	require.Len(t, site.Locations, 2)

	root := site.Location("/")
	login := site.Location("/login")
	require.NotNil(t, root)
	require.NotNil(t, login)

	assert.Equal(t, root.Upstreams, login.Upstreams)
	assert.Equal(t, &types.RateLimitRef{Zone: "default", Burst: 30, NoDelay: true}, root.RateLimit)
	assert.Equal(t, &types.RateLimitRef{Zone: "sensitive", Burst: 5, NoDelay: false}, login.RateLimit)

	assert.Equal(t, types.RateLimitZone{Name: "default", Size: "10m", Rate: "60r/m", Key: "$cookie_session"},
		site.RateLimitZones["default"])
	assert.Equal(t, types.RateLimitZone{Name: "sensitive", Size: "1m", Rate: "10r/m", Key: "$binary_remote_addr"},
		site.RateLimitZones["sensitive"])
}

// TestNormalizeLocationRateLimitWins tests that a location's own rate limit beats the site entry
func TestNormalizeLocationRateLimitWins(t *testing.T) {
	p := normalize(t, `
rate_limit:
  zones:
    global:
      rate: 5r/s
example.com:
  rate_limit:
    backends:
      /:
        zone: global
        burst: 1
  backends:
    /:
      upstream: http://127.0.0.1:5000
      rate_limit:
        zone: global
        burst: 9
`)
	require.NoError(t, Validate(p))
	assert.Equal(t, 9, p.Sites[0].Location("/").RateLimit.Burst)
}

// TestNormalizeErrorPages tests string and mapping error pages with string and integer codes
func TestNormalizeErrorPages(t *testing.T) {
	p := normalize(t, `
error_pages:
  '429': '429 loading {{ site }}'
  502:
    content_type: application/json
    content: '{"error": 502}'
example.com:
  backend: http://127.0.0.1:5000
`)

	assert.Equal(t, map[int]types.ErrorPage{
		429: {Content: "429 loading {{ site }}", ContentType: "text/html"},
		502: {Content: `{"error": 502}`, ContentType: "application/json"},
	}, p.Global.ErrorPages)
}

// TestNormalizeHeaders tests that empty header values are kept
func TestNormalizeHeaders(t *testing.T) {
	p := normalize(t, `
add_headers:
  Expect-CT: max-age=60
example.com:
  backend: http://127.0.0.1:5000
  add_headers:
    Expect-CT: ''
    Referrer-Policy: strict-origin-when-cross-origin
`)

	assert.Equal(t, map[string]string{"Expect-CT": "max-age=60"}, p.Global.Headers)
	assert.Equal(t, map[string]string{
		"Expect-CT":       "",
		"Referrer-Policy": "strict-origin-when-cross-origin",
	}, p.Sites[0].Headers)
}

// TestNormalizeExtraLocationConfig tests that passthrough fragments are kept as given
func TestNormalizeExtraLocationConfig(t *testing.T) {
	p := normalize(t, `
example.com:
  backends:
    /:
      upstream: http://127.0.0.1:5000
      extra_location_config:
        - list-of-dicts: 'yes'
bar.com:
  backends:
    /:
      upstream: http://127.0.0.1:5001
      extra_location_config:
        plain-dict: 'yes'
`)

	list, ok := p.Sites[1].Location("/").ExtraConfig.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, pillar.MapOf("list-of-dicts", "yes"), list[0])

	dict, ok := p.Sites[0].Location("/").ExtraConfig.(*pillar.Map)
	require.True(t, ok)
	assert.Equal(t, pillar.MapOf("plain-dict", "yes"), dict)
}

// TestNormalizeInvalidField tests shape errors
func TestNormalizeInvalidField(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "site not a mapping",
			doc:  "example.com: [1, 2]\n",
		},
		{
			name: "bad error code",
			doc: `
example.com:
  backend: http://127.0.0.1
  error_pages:
    teapot: nope
`,
		},
		{
			name: "zone without rate",
			doc: `
example.com:
  backend: http://127.0.0.1
  rate_limit:
    zones:
      default:
        size: 10m
`,
		},
		{
			name: "non boolean acme",
			doc: `
example.com:
  backend: http://127.0.0.1
  acme: sometimes
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(mustParse(t, tt.doc))
			assert.ErrorIs(t, err, types.ErrInvalidField)
		})
	}
}

// TestValidate tests rejected alias combinations
func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		kind     error
		location string
		fields   []string
	}{
		{
			name:   "empty site",
			doc:    "example.com: {}\n",
			kind:   types.ErrMissingLocationSource,
			fields: []string{"backend", "backends", "redirect"},
		},
		{
			name: "backend and backends",
			doc: `
example.com:
  backend: http://127.0.0.1
  backends:
    /: http://127.0.0.1
`,
			kind:   types.ErrConflictingAliasFields,
			fields: []string{"backend", "backends"},
		},
		{
			name: "upstream and upstreams",
			doc: `
example.com:
  backends:
    /:
      upstream: http://10.10.10.10
      upstreams: [http://10.10.10.11]
`,
			kind:     types.ErrConflictingAliasFields,
			location: "/",
			fields:   []string{"upstream", "upstreams"},
		},
		{
			name: "backend and redirect",
			doc: `
example.com:
  backend: http://127.0.0.1
  redirect: https://foo.com
`,
			kind:   types.ErrConflictingAliasFields,
			fields: []string{"backend", "redirect"},
		},
		{
			name: "location without source",
			doc: `
example.com:
  backends:
    /:
      upstream_keepalive: 4
`,
			kind:     types.ErrMissingLocationSource,
			location: "/",
			fields:   []string{"upstream", "upstreams", "redirect"},
		},
		{
			name: "cert literal and reference",
			doc: `
example.com:
  backend: http://127.0.0.1
  cert: FOO
  cert_pillar: foo:cert
  key: BAR
`,
			kind:   types.ErrConflictingAliasFields,
			fields: []string{"cert", "cert_pillar"},
		},
		{
			name: "cert and certs",
			doc: `
example.com:
  backend: http://127.0.0.1
  cert: FOO
  key: BAR
  certs:
    - cert: A
      key: B
`,
			kind:   types.ErrConflictingAliasFields,
			fields: []string{"cert", "certs"},
		},
		{
			name: "cert without key",
			doc: `
example.com:
  backend: http://127.0.0.1
  cert: FOO
`,
			kind:   types.ErrIncompleteCertificate,
			fields: []string{"cert", "key"},
		},
		{
			name: "proxy client cert without key",
			doc: `
example.com:
  backends:
    /:
      upstream: https://10.0.0.1
      client_cert: FOO
`,
			kind:     types.ErrIncompleteCertificate,
			location: "/",
			fields:   []string{"client_cert", "client_key"},
		},
		{
			name: "unknown zone",
			doc: `
example.com:
  backend: http://127.0.0.1
  rate_limit:
    backends:
      /:
        zone: missing
`,
			kind:     types.ErrUnknownRateLimitZone,
			location: "/",
			fields:   []string{"rate_limit"},
		},
		{
			name: "zone redefined by another site",
			doc: `
a.com:
  backend: http://127.0.0.1
  rate_limit:
    zones:
      default: {rate: 1r/s}
    backends:
      /: {zone: default}
b.com:
  backend: http://127.0.0.1
  rate_limit:
    zones:
      default: {rate: 2r/s}
    backends:
      /: {zone: default}
`,
			kind:     types.ErrConflictingRateLimitZone,
			location: "/",
			fields:   []string{"rate_limit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := normalize(t, tt.doc)
			err := Validate(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.location, verr.Location)
			assert.Equal(t, tt.fields, verr.Fields)
			assert.NotEmpty(t, verr.Site)
		})
	}
}

// TestValidateSharedZoneSameDefinition tests that identical zone definitions may be shared
func TestValidateSharedZoneSameDefinition(t *testing.T) {
	p := normalize(t, `
rate_limit:
  zones:
    default: {rate: 1r/s}
a.com:
  backend: http://127.0.0.1
  rate_limit:
    backends:
      /: {zone: default}
b.com:
  backend: http://127.0.0.1
  rate_limit:
    backends:
      /: {zone: default}
`)
	assert.NoError(t, Validate(p))
}
