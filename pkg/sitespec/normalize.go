package sitespec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
)

// Reserved top-level pillar keys. Every other top-level key is a domain.
const (
	KeyHeaders    = "add_headers"
	KeyErrorPages = "error_pages"
	KeyRateLimit  = "rate_limit"
)

// Site-level shorthand fields recorded in SiteSpec.Declared
var siteAliases = []string{
	"backend", "backends", "redirect",
	"cert", "key", "cert_pillar", "key_pillar", "certs",
	"acme",
}

// Location-level shorthand fields recorded in LocationSpec.Declared
var locationAliases = []string{"upstream", "upstreams", "redirect"}

// Normalize canonicalizes every supported shorthand of a pillar into one
// SiteSpec per domain. Shape errors (a mapping where a string is
// expected, a non-numeric error code) are reported as InvalidField;
// alias conflicts are left for Validate, which reads the Declared lists.
//
// Sites come back sorted by domain and locations sorted by path, so the
// result never depends on source key order.
func Normalize(m *pillar.Map) (*types.Pillar, error) {
	p := &types.Pillar{Global: &types.GlobalSpec{}}
	if m == nil {
		return p, nil
	}

	for _, key := range m.Keys() {
		value, _ := m.Get(key)

		switch key {
		case KeyHeaders:
			h, err := headers(value)
			if err != nil {
				return nil, invalid("", "", key, "%v", err)
			}
			p.Global.Headers = h

		case KeyErrorPages:
			pages, err := errorPages(value)
			if err != nil {
				return nil, invalid("", "", key, "%v", err)
			}
			p.Global.ErrorPages = pages

		case KeyRateLimit:
			rl, err := mapping(value)
			if err != nil {
				return nil, invalid("", "", key, "%v", err)
			}
			zones, err := rateLimitZones(get(rl, "zones"))
			if err != nil {
				return nil, invalid("", "", key+".zones", "%v", err)
			}
			p.Global.RateLimitZones = zones

		default:
			site, err := normalizeSite(key, value)
			if err != nil {
				return nil, err
			}
			p.Sites = append(p.Sites, site)
		}
	}

	sort.Slice(p.Sites, func(i, j int) bool {
		return p.Sites[i].Domain < p.Sites[j].Domain
	})
	return p, nil
}

func normalizeSite(domain string, value any) (*types.SiteSpec, error) {
	m, err := mapping(value)
	if err != nil {
		return nil, invalid(domain, "", "", "site must be a mapping: %v", err)
	}

	site := &types.SiteSpec{Domain: domain}
	for _, alias := range siteAliases {
		if m.Has(alias) {
			site.Declared = append(site.Declared, alias)
		}
	}

	if v, ok := m.Get("backends"); ok {
		backends, err := mapping(v)
		if err != nil {
			return nil, invalid(domain, "", "backends", "%v", err)
		}
		for _, path := range backends.Keys() {
			raw, _ := backends.Get(path)
			loc, err := normalizeLocation(domain, path, raw)
			if err != nil {
				return nil, err
			}
			site.Locations = append(site.Locations, loc)
		}
	}

	// backend: X is backends: {"/": X}
	if v, ok := m.Get("backend"); ok && site.Location("/") == nil {
		loc, err := normalizeLocation(domain, "/", v)
		if err != nil {
			return nil, err
		}
		site.Locations = append(site.Locations, loc)
	}

	if v, ok := m.Get("redirect"); ok && site.Location("/") == nil {
		redirect, err := normalizeRedirect(v)
		if err != nil {
			return nil, invalid(domain, "", "redirect", "%v", err)
		}
		site.Locations = append(site.Locations, &types.LocationSpec{
			Path:     "/",
			Redirect: redirect,
			Declared: []string{"redirect"},
		})
	}

	if site.Headers, err = headers(get(m, "add_headers")); err != nil {
		return nil, invalid(domain, "", "add_headers", "%v", err)
	}
	if site.ErrorPages, err = errorPages(get(m, "error_pages")); err != nil {
		return nil, invalid(domain, "", "error_pages", "%v", err)
	}
	if err := normalizeCertificates(site, m); err != nil {
		return nil, err
	}
	if site.ClientCert, err = source(m, "client_cert"); err != nil {
		return nil, invalid(domain, "", "client_cert", "%v", err)
	}
	if site.ACME, err = boolField(m, "acme", false); err != nil {
		return nil, invalid(domain, "", "acme", "%v", err)
	}
	if site.Nested, err = boolField(m, "nested", false); err != nil {
		return nil, invalid(domain, "", "nested", "%v", err)
	}

	if v, ok := m.Get("rate_limit"); ok {
		if err := normalizeSiteRateLimit(site, v); err != nil {
			return nil, err
		}
	}

	sort.Slice(site.Locations, func(i, j int) bool {
		return site.Locations[i].Path < site.Locations[j].Path
	})
	return site, nil
}

func normalizeLocation(domain, path string, value any) (*types.LocationSpec, error) {
	loc := &types.LocationSpec{Path: path}

	// A bare string is {upstream: <address>}
	if addr, ok := value.(string); ok {
		loc.Upstreams = []string{addr}
		loc.Declared = []string{"upstream"}
		return loc, nil
	}

	m, err := mapping(value)
	if err != nil {
		return nil, invalid(domain, path, "", "location must be an address or a mapping: %v", err)
	}

	for _, alias := range locationAliases {
		if m.Has(alias) {
			loc.Declared = append(loc.Declared, alias)
		}
	}

	if v, ok := m.Get("upstream"); ok {
		addr, ok := pillar.String(v)
		if !ok {
			return nil, invalid(domain, path, "upstream", "expected an address, got %T", v)
		}
		loc.Upstreams = append(loc.Upstreams, addr)
	}

	if v, ok := m.Get("upstreams"); ok {
		addrs, err := stringList(v)
		if err != nil {
			return nil, invalid(domain, path, "upstreams", "%v", err)
		}
		loc.Upstreams = append(loc.Upstreams, addrs...)
	}

	if v, ok := m.Get("redirect"); ok {
		if loc.Redirect, err = normalizeRedirect(v); err != nil {
			return nil, invalid(domain, path, "redirect", "%v", err)
		}
	}

	if v, ok := m.Get("upstream_keepalive"); ok {
		n, ok := pillar.Int(v)
		if !ok {
			return nil, invalid(domain, path, "upstream_keepalive", "expected an integer, got %v", v)
		}
		loc.Keepalive = n
	}
	if loc.LeastConn, err = boolField(m, "upstream_least_conn", false); err != nil {
		return nil, invalid(domain, path, "upstream_least_conn", "%v", err)
	}
	if loc.Headers, err = headers(get(m, "add_headers")); err != nil {
		return nil, invalid(domain, path, "add_headers", "%v", err)
	}
	if v, ok := m.Get("extra_location_config"); ok && v != nil {
		loc.ExtraConfig = pillar.CloneValue(v)
	}
	if loc.TrustRoot, err = source(m, "upstream_trust_root"); err != nil {
		return nil, invalid(domain, path, "upstream_trust_root", "%v", err)
	}
	if v, ok := m.Get("upstream_hostname"); ok {
		host, ok := pillar.String(v)
		if !ok {
			return nil, invalid(domain, path, "upstream_hostname", "expected a string, got %T", v)
		}
		loc.UpstreamHostname = host
	}
	if loc.ClientCert, err = source(m, "client_cert"); err != nil {
		return nil, invalid(domain, path, "client_cert", "%v", err)
	}
	if loc.ClientKey, err = source(m, "client_key"); err != nil {
		return nil, invalid(domain, path, "client_key", "%v", err)
	}
	if v, ok := m.Get("rate_limit"); ok {
		if loc.RateLimit, err = rateLimitRef(v); err != nil {
			return nil, invalid(domain, path, "rate_limit", "%v", err)
		}
	}

	return loc, nil
}

// normalizeRedirect accepts a bare URL or a detailed mapping. Missing
// status defaults to 301 and missing include_uri to true.
func normalizeRedirect(value any) (*types.Redirect, error) {
	r := &types.Redirect{Status: types.DefaultRedirectStatus, IncludeURI: true}

	if url, ok := value.(string); ok {
		r.URL = url
		return r, nil
	}

	m, err := mapping(value)
	if err != nil {
		return nil, err
	}

	if v, ok := m.Get("url"); ok {
		url, ok := pillar.String(v)
		if !ok {
			return nil, fmt.Errorf("url: expected a string, got %T", v)
		}
		r.URL = url
	}
	if v, ok := m.Get("status"); ok {
		status, ok := pillar.Int(v)
		if !ok {
			return nil, fmt.Errorf("status: expected an integer, got %v", v)
		}
		r.Status = status
	}
	if r.IncludeURI, err = boolField(m, "include_uri", true); err != nil {
		return nil, err
	}
	return r, nil
}

// normalizeCertificates folds cert/key and cert_pillar/key_pillar into
// the first pair, followed by the pairs of a certs list
func normalizeCertificates(site *types.SiteSpec, m *pillar.Map) error {
	if m.Has("cert") || m.Has("key") || m.Has("cert_pillar") || m.Has("key_pillar") {
		pair, err := certificatePair(m)
		if err != nil {
			return invalid(site.Domain, "", "cert", "%v", err)
		}
		site.Certificates = append(site.Certificates, pair)
	}

	v, ok := m.Get("certs")
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return invalid(site.Domain, "", "certs", "expected a list, got %T", v)
	}
	for i, item := range items {
		entry, err := mapping(item)
		if err != nil {
			return invalid(site.Domain, "", "certs", "entry %d: %v", i+1, err)
		}
		pair, err := certificatePair(entry)
		if err != nil {
			return invalid(site.Domain, "", "certs", "entry %d: %v", i+1, err)
		}
		site.Certificates = append(site.Certificates, pair)
	}
	return nil
}

func certificatePair(m *pillar.Map) (types.CertificatePair, error) {
	var pair types.CertificatePair
	cert, err := source(m, "cert")
	if err != nil {
		return pair, err
	}
	key, err := source(m, "key")
	if err != nil {
		return pair, err
	}
	if cert != nil {
		pair.Cert = *cert
	}
	if key != nil {
		pair.Key = *key
	}
	return pair, nil
}

// source reads a field given either literally or as a _pillar
// reference. When both forms are present both are kept so validation
// can report the conflict.
func source(m *pillar.Map, field string) (*types.CertificateSource, error) {
	var src types.CertificateSource
	if v, ok := m.Get(field); ok && v != nil {
		s, ok := pillar.String(v)
		if !ok {
			return nil, fmt.Errorf("%s: expected a string, got %T", field, v)
		}
		src.Contents = s
	}
	if v, ok := m.Get(field + pillar.Suffix); ok && v != nil {
		s, ok := pillar.String(v)
		if !ok {
			return nil, fmt.Errorf("%s%s: expected a reference, got %T", field, pillar.Suffix, v)
		}
		src.Reference = s
	}
	if src.Contents == "" && src.Reference == "" {
		return nil, nil
	}
	return &src, nil
}

// normalizeSiteRateLimit reads rate_limit.zones and rate_limit.backends.
// A backends path without a location of its own gets a copy of the
// location with the longest matching prefix, so it proxies to the same
// upstream under its own limit.
func normalizeSiteRateLimit(site *types.SiteSpec, value any) error {
	rl, err := mapping(value)
	if err != nil {
		return invalid(site.Domain, "", "rate_limit", "%v", err)
	}

	if site.RateLimitZones, err = rateLimitZones(get(rl, "zones")); err != nil {
		return invalid(site.Domain, "", "rate_limit.zones", "%v", err)
	}

	v, ok := rl.Get("backends")
	if !ok || v == nil {
		return nil
	}
	backends, err := mapping(v)
	if err != nil {
		return invalid(site.Domain, "", "rate_limit.backends", "%v", err)
	}

	for _, path := range backends.Keys() {
		raw, _ := backends.Get(path)
		ref, err := rateLimitRef(raw)
		if err != nil {
			return invalid(site.Domain, path, "rate_limit.backends", "%v", err)
		}

		loc := site.Location(path)
		if loc == nil {
			loc = cloneCovering(site, path)
			site.Locations = append(site.Locations, loc)
		} else if loc.RateLimit != nil {
			continue
		}
		loc.RateLimit = ref
	}
	return nil
}

// cloneCovering copies the location whose path is the longest prefix of
// path. Without one the result has no source and fails validation.
func cloneCovering(site *types.SiteSpec, path string) *types.LocationSpec {
	var covering *types.LocationSpec
	for _, loc := range site.Locations {
		if strings.HasPrefix(path, loc.Path) && (covering == nil || len(loc.Path) > len(covering.Path)) {
			covering = loc
		}
	}
	if covering == nil {
		return &types.LocationSpec{Path: path}
	}

	clone := *covering
	clone.Path = path
	clone.RateLimit = nil
	clone.Upstreams = append([]string(nil), covering.Upstreams...)
	clone.Declared = append([]string(nil), covering.Declared...)
	clone.Headers = pillar.Merge(covering.Headers)
	clone.ExtraConfig = pillar.CloneValue(covering.ExtraConfig)
	if covering.Redirect != nil {
		r := *covering.Redirect
		clone.Redirect = &r
	}
	return &clone
}

func rateLimitRef(value any) (*types.RateLimitRef, error) {
	m, err := mapping(value)
	if err != nil {
		return nil, err
	}

	ref := &types.RateLimitRef{}
	zone, ok := pillar.String(get(m, "zone"))
	if !ok || zone == "" {
		return nil, fmt.Errorf("zone is required")
	}
	ref.Zone = zone

	if v, ok := m.Get("burst"); ok {
		burst, ok := pillar.Int(v)
		if !ok {
			return nil, fmt.Errorf("burst: expected an integer, got %v", v)
		}
		ref.Burst = burst
	}
	if ref.NoDelay, err = boolField(m, "nodelay", true); err != nil {
		return nil, err
	}
	return ref, nil
}

func rateLimitZones(value any) (map[string]types.RateLimitZone, error) {
	if value == nil {
		return nil, nil
	}
	m, err := mapping(value)
	if err != nil {
		return nil, err
	}

	zones := make(map[string]types.RateLimitZone, m.Len())
	for _, name := range m.Keys() {
		raw, _ := m.Get(name)
		def, err := mapping(raw)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", name, err)
		}

		zone := types.RateLimitZone{
			Name: name,
			Size: types.DefaultRateLimitSize,
			Key:  types.DefaultRateLimitKey,
		}
		if s, ok := pillar.String(get(def, "size")); ok && s != "" {
			zone.Size = s
		}
		if s, ok := pillar.String(get(def, "key")); ok && s != "" {
			zone.Key = s
		}
		rate, ok := pillar.String(get(def, "rate"))
		if !ok || rate == "" {
			return nil, fmt.Errorf("zone %s: rate is required", name)
		}
		zone.Rate = rate
		zones[name] = zone
	}
	return zones, nil
}

// errorPages accepts code: "<content>" or code: {content, content_type}.
// Codes may be written as integers or strings.
func errorPages(value any) (map[int]types.ErrorPage, error) {
	if value == nil {
		return nil, nil
	}
	m, err := mapping(value)
	if err != nil {
		return nil, err
	}

	pages := make(map[int]types.ErrorPage, m.Len())
	for _, key := range m.Keys() {
		code, err := strconv.Atoi(key)
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("invalid status code %q", key)
		}

		raw, _ := m.Get(key)
		page := types.ErrorPage{ContentType: types.DefaultErrorPageContentType}
		if content, ok := raw.(string); ok {
			page.Content = content
			pages[code] = page
			continue
		}

		def, err := mapping(raw)
		if err != nil {
			return nil, fmt.Errorf("error page %d: %w", code, err)
		}
		content, ok := pillar.String(get(def, "content"))
		if !ok {
			return nil, fmt.Errorf("error page %d: content is required", code)
		}
		page.Content = content
		if ct, ok := pillar.String(get(def, "content_type")); ok && ct != "" {
			page.ContentType = ct
		}
		pages[code] = page
	}
	return pages, nil
}

// headers reads an add_headers mapping. Null values become the empty
// string, which is kept as a value of its own.
func headers(value any) (map[string]string, error) {
	if value == nil {
		return nil, nil
	}
	m, err := mapping(value)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, m.Len())
	for _, name := range m.Keys() {
		raw, _ := m.Get(name)
		if raw == nil {
			out[name] = ""
			continue
		}
		s, ok := pillar.String(raw)
		if !ok {
			return nil, fmt.Errorf("header %s: expected a string, got %T", name, raw)
		}
		out[name] = s
	}
	return out, nil
}

func mapping(value any) (*pillar.Map, error) {
	switch v := value.(type) {
	case *pillar.Map:
		return v, nil
	case nil:
		return pillar.NewMap(), nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", value)
	}
}

func get(m *pillar.Map, key string) any {
	v, _ := m.Get(key)
	return v
}

func stringList(value any) ([]string, error) {
	if s, ok := value.(string); ok {
		return []string{s}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of addresses, got %T", value)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := pillar.String(item)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected an address, got %T", i+1, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func boolField(m *pillar.Map, key string, def bool) (bool, error) {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return def, nil
	}
	b, ok := pillar.Bool(v)
	if !ok {
		return false, fmt.Errorf("%s: expected a boolean, got %v", key, v)
	}
	return b, nil
}

func invalid(site, location, field, format string, args ...any) error {
	var fields []string
	if field != "" {
		fields = []string{field}
	}
	return types.NewValidationError(types.KindInvalidField, site, location, fields...).WithDetail(format, args...)
}
