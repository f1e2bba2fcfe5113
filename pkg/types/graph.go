package types

import (
	"encoding/json"
	"sort"
)

// ResourceKind identifies what a resource definition asks the state
// engine to do
type ResourceKind string

const (
	ResourceKindFile     ResourceKind = "file"
	ResourceKindSite     ResourceKind = "site"
	ResourceKindFirewall ResourceKind = "firewall"
	ResourceKindInclude  ResourceKind = "include"
)

// Resource is one named entry of the graph. Kind selects which of the
// payload fields is set; site resources are files whose context is a
// *SiteContext.
type Resource struct {
	Kind     ResourceKind   `yaml:"kind" json:"kind"`
	File     *FileResource  `yaml:"file,omitempty" json:"file,omitempty"`
	Firewall *FirewallRule  `yaml:"firewall,omitempty" json:"firewall,omitempty"`
	Include  *IncludeMarker `yaml:"include,omitempty" json:"include,omitempty"`
}

// SiteContext returns the template context of a site resource, or nil
func (r *Resource) SiteContext() *SiteContext {
	if r == nil || r.File == nil {
		return nil
	}
	ctx, _ := r.File.Context.(*SiteContext)
	return ctx
}

// FileResource is a managed file. Contents and ContentsRef are mutually
// exclusive: literal material stays literal and references stay
// references so the state engine resolves them itself.
type FileResource struct {
	Path        string `yaml:"path" json:"path"`
	Source      string `yaml:"source,omitempty" json:"source,omitempty"`
	Template    string `yaml:"template,omitempty" json:"template,omitempty"`
	Contents    string `yaml:"contents,omitempty" json:"contents,omitempty"`
	ContentsRef string `yaml:"contents_pillar,omitempty" json:"contents_pillar,omitempty"`
	Mode        string `yaml:"mode,omitempty" json:"mode,omitempty"`
	MakeDirs    bool   `yaml:"makedirs,omitempty" json:"makedirs,omitempty"`
	Context     any    `yaml:"context,omitempty" json:"context,omitempty"`
}

// SiteContext is everything the site template needs to render one
// server block
type SiteContext struct {
	Site         string                   `yaml:"site" json:"site"`
	Locations    []*LocationContext       `yaml:"locations" json:"locations"`
	Upstreams    map[string]*UpstreamPool `yaml:"upstreams" json:"upstreams"`
	Headers      map[string]string        `yaml:"headers" json:"headers"`
	ErrorPages   map[int]ErrorPageRef     `yaml:"error_pages" json:"error_pages"`
	Certificates []CertificatePaths       `yaml:"certificates" json:"certificates"`
	ClientCert   string                   `yaml:"client_cert,omitempty" json:"client_cert,omitempty"`
	ACME         bool                     `yaml:"acme" json:"acme"`
	Nested       bool                     `yaml:"nested" json:"nested"`
}

// Location returns the location entry for path, or nil
func (c *SiteContext) Location(path string) *LocationContext {
	for _, loc := range c.Locations {
		if loc.Path == path {
			return loc
		}
	}
	return nil
}

// LocationContext is one entry of the site's location table
type LocationContext struct {
	Path                string            `yaml:"path" json:"path"`
	UpstreamIdentifier  string            `yaml:"upstream_identifier,omitempty" json:"upstream_identifier,omitempty"`
	ProxyTarget         string            `yaml:"proxy_target,omitempty" json:"proxy_target,omitempty"`
	Protocol            string            `yaml:"protocol,omitempty" json:"protocol,omitempty"`
	Headers             map[string]string `yaml:"headers" json:"headers"`
	Redirect            *Redirect         `yaml:"redirect,omitempty" json:"redirect,omitempty"`
	RateLimit           string            `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`
	ExtraLocationConfig any               `yaml:"extra_location_config,omitempty" json:"extra_location_config,omitempty"`
	UpstreamTrustRoot   string            `yaml:"upstream_trust_root,omitempty" json:"upstream_trust_root,omitempty"`
	UpstreamHostname    string            `yaml:"upstream_hostname,omitempty" json:"upstream_hostname,omitempty"`
	ProxyClientCertPath string            `yaml:"proxy_client_cert_path,omitempty" json:"proxy_client_cert_path,omitempty"`
	ProxyClientKeyPath  string            `yaml:"proxy_client_key_path,omitempty" json:"proxy_client_key_path,omitempty"`
}

// ErrorPageRef points the site at a rendered error page
type ErrorPageRef struct {
	Path        string `yaml:"path" json:"path"`
	ContentType string `yaml:"content_type" json:"content_type"`
}

// CertificatePaths is where one certificate pair lands on disk
type CertificatePaths struct {
	Cert string `yaml:"cert" json:"cert"`
	Key  string `yaml:"key" json:"key"`
}

// RateLimitContext is the template context of the shared zone file
type RateLimitContext struct {
	Zones []string `yaml:"rate_limit_zones" json:"rate_limit_zones"`
}

// FirewallRule is an append-style packet filter rule
type FirewallRule struct {
	Family      string `yaml:"family" json:"family"`
	Table       string `yaml:"table" json:"table"`
	Chain       string `yaml:"chain" json:"chain"`
	Proto       string `yaml:"proto" json:"proto"`
	Destination string `yaml:"destination" json:"destination"`
	DPorts      string `yaml:"dports" json:"dports"`
	Match       string `yaml:"match" json:"match"`
	Comment     string `yaml:"comment" json:"comment"`
	Jump        string `yaml:"jump" json:"jump"`
	Save        bool   `yaml:"save" json:"save"`
}

// IncludeMarker lists optional collaborator states to pull in
type IncludeMarker struct {
	States []string `yaml:"states" json:"states"`
}

// ResourceGraph maps globally unique resource names to definitions
type ResourceGraph struct {
	Resources map[string]*Resource
}

// NewResourceGraph creates an empty graph
func NewResourceGraph() *ResourceGraph {
	return &ResourceGraph{Resources: make(map[string]*Resource)}
}

// Get returns the named resource, or nil
func (g *ResourceGraph) Get(name string) *Resource {
	return g.Resources[name]
}

// Has reports whether the named resource exists
func (g *ResourceGraph) Has(name string) bool {
	_, ok := g.Resources[name]
	return ok
}

// Len returns the number of resources
func (g *ResourceGraph) Len() int {
	return len(g.Resources)
}

// Names returns all resource names in sorted order
func (g *ResourceGraph) Names() []string {
	names := make([]string, 0, len(g.Resources))
	for name := range g.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CountByKind tallies resources per kind
func (g *ResourceGraph) CountByKind() map[ResourceKind]int {
	counts := make(map[ResourceKind]int)
	for _, r := range g.Resources {
		counts[r.Kind]++
	}
	return counts
}

// WithPrefix returns a graph whose resource names carry prefix.
// Definitions are shared, not copied.
func (g *ResourceGraph) WithPrefix(prefix string) *ResourceGraph {
	out := &ResourceGraph{Resources: make(map[string]*Resource, len(g.Resources))}
	for name, r := range g.Resources {
		out.Resources[prefix+name] = r
	}
	return out
}

// MarshalYAML emits the graph as a mapping of name to definition
func (g *ResourceGraph) MarshalYAML() (interface{}, error) {
	return g.Resources, nil
}

// MarshalJSON emits the graph as an object of name to definition
func (g *ResourceGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Resources)
}
