package compiler

// Options configures where compiled resources land on the target host
// and which proxy version they are rendered for
type Options struct {
	// PlatformVersion is the proxy version, e.g. "1.18.0". Empty means
	// unknown, which disables version gated features.
	PlatformVersion string

	SitesDir     string // Site configuration files
	ConfDir      string // Shared http-level configuration (upstreams, zones)
	SSLDir       string // Certificates and trust roots
	PrivateDir   string // Private keys
	ErrorPageDir string
	ACMEDir      string // Live certificates maintained by the ACME client

	// DefaultTrustRoot is the bundle used to verify https upstreams that
	// have no trust root of their own. It is copied from
	// DefaultTrustRootSource.
	DefaultTrustRoot       string
	DefaultTrustRootSource string
}

// DefaultOptions returns the standard nginx layout
func DefaultOptions() Options {
	return Options{
		SitesDir:               "/etc/nginx/sites-enabled",
		ConfDir:                "/etc/nginx/conf.d",
		SSLDir:                 "/etc/nginx/ssl",
		PrivateDir:             "/etc/nginx/private",
		ErrorPageDir:           "/etc/nginx/html",
		ACMEDir:                "/etc/letsencrypt/live",
		DefaultTrustRoot:       "/etc/nginx/ssl/all-certs.pem",
		DefaultTrustRootSource: "/etc/ssl/certs/ca-certificates.crt",
	}
}

// Templates the downstream engine renders site, upstream and zone files with
const (
	SiteTemplate      = "tls-terminator/nginx/site"
	UpstreamTemplate  = "tls-terminator/nginx/upstream"
	RateLimitTemplate = "tls-terminator/nginx/rate-limit-zones"
)
