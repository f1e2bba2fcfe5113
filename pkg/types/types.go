package types

// Pillar is the normalized form of a whole pillar document
type Pillar struct {
	Global *GlobalSpec
	Sites  []*SiteSpec // Sorted by domain
}

// GlobalSpec holds overrides that apply to every site
type GlobalSpec struct {
	Headers        map[string]string
	ErrorPages     map[int]ErrorPage
	RateLimitZones map[string]RateLimitZone
}

// SiteSpec represents one proxied domain
type SiteSpec struct {
	Domain         string
	Locations      []*LocationSpec // Sorted by path, never empty after normalization
	Headers        map[string]string
	RateLimitZones map[string]RateLimitZone
	ErrorPages     map[int]ErrorPage
	Certificates   []CertificatePair
	ClientCert     *CertificateSource // CA bundle used to verify incoming clients
	ACME           bool
	Nested         bool

	// Declared lists the shorthand fields present in the source, in the
	// order they were seen. Only validation reads it.
	Declared []string
}

// Location returns the location with the given path, or nil
func (s *SiteSpec) Location(path string) *LocationSpec {
	for _, loc := range s.Locations {
		if loc.Path == path {
			return loc
		}
	}
	return nil
}

// LocationSpec represents one path within a site
type LocationSpec struct {
	Path      string
	Upstreams []string // Raw addresses, each optionally followed by directive arguments
	Keepalive int
	LeastConn bool
	Redirect  *Redirect
	Headers   map[string]string

	// ExtraConfig is an opaque list or mapping passed to the renderer unchanged
	ExtraConfig any

	TrustRoot        *CertificateSource
	UpstreamHostname string
	ClientCert       *CertificateSource // Presented to the upstream
	ClientKey        *CertificateSource
	RateLimit        *RateLimitRef

	Declared []string
}

// IsRedirect reports whether the location answers with a redirect
func (l *LocationSpec) IsRedirect() bool {
	return l.Redirect != nil
}

// Redirect describes a redirect target
type Redirect struct {
	URL        string `yaml:"url" json:"url"`
	Status     int    `yaml:"status" json:"status"`
	IncludeURI bool   `yaml:"include_uri" json:"include_uri"`
}

// DefaultRedirectStatus is used when a redirect omits its status
const DefaultRedirectStatus = 301

// CertificateSource is either inline content or a reference into the
// secret store. Exactly one field is set.
type CertificateSource struct {
	Contents  string
	Reference string
}

// IsReference reports whether the source defers to the secret store
func (c *CertificateSource) IsReference() bool {
	return c.Reference != ""
}

// CertificatePair is one certificate and its private key
type CertificatePair struct {
	Cert CertificateSource
	Key  CertificateSource
}

// RateLimitZone defines a shared request-rate accounting zone
type RateLimitZone struct {
	Name string
	Size string
	Rate string
	Key  string
}

const (
	DefaultRateLimitSize = "1m"
	DefaultRateLimitKey  = "$binary_remote_addr"
)

// RateLimitRef applies a zone to a location
type RateLimitRef struct {
	Zone    string
	Burst   int
	NoDelay bool
}

// ErrorPage is a custom response body for one status code
type ErrorPage struct {
	Content     string
	ContentType string
}

// DefaultErrorPageContentType is used for error pages given as plain strings
const DefaultErrorPageContentType = "text/html"

// UpstreamServer is one member of an upstream pool
type UpstreamServer struct {
	Hostname  string `yaml:"hostname" json:"hostname"`
	Port      int    `yaml:"port" json:"port"`
	Arguments string `yaml:"arguments,omitempty" json:"arguments,omitempty"`
}

// UpstreamPool is a set of servers proxied to as one target. Pools are
// shared between every location, in any site, whose addresses are
// identical.
type UpstreamPool struct {
	Identifier       string           `yaml:"identifier" json:"identifier"`
	Servers          []UpstreamServer `yaml:"servers" json:"servers"`
	Keepalive        int              `yaml:"keepalive,omitempty" json:"keepalive,omitempty"`
	LeastConn        bool             `yaml:"least_conn" json:"least_conn"`
	UseUpstreamBlock bool             `yaml:"use_upstream_block" json:"use_upstream_block"`
	Scheme           string           `yaml:"scheme" json:"scheme"`
	Path             string           `yaml:"path" json:"path"`
}
