package sitespec

import (
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
)

// Validate rejects mutually exclusive or incomplete alias combinations.
// It runs on normalized input and reports the first defect found, with
// sites checked in domain order and locations in path order.
func Validate(p *types.Pillar) error {
	zones := newZoneTracker()
	global := p.Global
	if global == nil {
		global = &types.GlobalSpec{}
	}

	for _, site := range p.Sites {
		if err := validateSite(site); err != nil {
			return err
		}

		effective := pillar.Merge(global.RateLimitZones, site.RateLimitZones)
		for _, loc := range site.Locations {
			if err := validateLocation(site.Domain, loc); err != nil {
				return err
			}
			if loc.RateLimit != nil {
				if err := zones.reference(site.Domain, loc, effective); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateSite(site *types.SiteSpec) error {
	declared := toSet(site.Declared)
	conflict := func(a, b string) error {
		return types.NewValidationError(types.KindConflictingAliasFields, site.Domain, "", a, b).
			WithDetail("%s and %s are mutually exclusive", a, b)
	}

	if declared["backend"] && declared["backends"] {
		return conflict("backend", "backends")
	}
	if declared["redirect"] {
		if declared["backend"] {
			return conflict("backend", "redirect")
		}
		if declared["backends"] {
			return conflict("backends", "redirect")
		}
	}
	if !declared["backend"] && !declared["backends"] && !declared["redirect"] {
		return types.NewValidationError(types.KindMissingLocationSource, site.Domain, "", "backend", "backends", "redirect").
			WithDetail("site declares no backend, backends or redirect")
	}
	if len(site.Locations) == 0 {
		return types.NewValidationError(types.KindMissingLocationSource, site.Domain, "", "backends").
			WithDetail("backends is empty")
	}

	shorthand := ""
	for _, f := range []string{"cert", "key", "cert_pillar", "key_pillar"} {
		if declared[f] {
			shorthand = f
			break
		}
	}
	if shorthand != "" && declared["certs"] {
		return conflict(shorthand, "certs")
	}
	if declared["acme"] && site.ACME && len(site.Certificates) > 0 {
		if declared["certs"] {
			return conflict("acme", "certs")
		}
		return conflict("acme", shorthand)
	}

	for i, pair := range site.Certificates {
		if err := validatePairSource(site.Domain, i+1, &pair.Cert, "cert"); err != nil {
			return err
		}
		if err := validatePairSource(site.Domain, i+1, &pair.Key, "key"); err != nil {
			return err
		}
	}

	return validateSource(site.Domain, "", site.ClientCert, "client_cert")
}

func validateLocation(domain string, loc *types.LocationSpec) error {
	declared := toSet(loc.Declared)
	conflict := func(a, b string) error {
		return types.NewValidationError(types.KindConflictingAliasFields, domain, loc.Path, a, b).
			WithDetail("%s and %s are mutually exclusive", a, b)
	}

	if declared["upstream"] && declared["upstreams"] {
		return conflict("upstream", "upstreams")
	}
	if declared["redirect"] {
		if declared["upstream"] {
			return conflict("upstream", "redirect")
		}
		if declared["upstreams"] {
			return conflict("upstreams", "redirect")
		}
	}
	if len(loc.Upstreams) == 0 && loc.Redirect == nil {
		return types.NewValidationError(types.KindMissingLocationSource, domain, loc.Path, "upstream", "upstreams", "redirect").
			WithDetail("location declares no upstream or redirect")
	}

	if loc.Redirect != nil && loc.Redirect.URL == "" {
		return types.NewValidationError(types.KindInvalidField, domain, loc.Path, "redirect").
			WithDetail("redirect url is required")
	}
	if loc.Keepalive < 0 {
		return types.NewValidationError(types.KindInvalidField, domain, loc.Path, "upstream_keepalive").
			WithDetail("keepalive must not be negative, got %d", loc.Keepalive)
	}
	if loc.RateLimit != nil && loc.RateLimit.Burst < 0 {
		return types.NewValidationError(types.KindInvalidField, domain, loc.Path, "rate_limit").
			WithDetail("burst must not be negative, got %d", loc.RateLimit.Burst)
	}

	for _, s := range []struct {
		src   *types.CertificateSource
		field string
	}{
		{loc.TrustRoot, "upstream_trust_root"},
		{loc.ClientCert, "client_cert"},
		{loc.ClientKey, "client_key"},
	} {
		if err := validateSource(domain, loc.Path, s.src, s.field); err != nil {
			return err
		}
	}

	if (loc.ClientCert == nil) != (loc.ClientKey == nil) {
		return types.NewValidationError(types.KindIncompleteCertificate, domain, loc.Path, "client_cert", "client_key").
			WithDetail("client_cert and client_key must be given together")
	}
	return nil
}

func validateSource(domain, path string, src *types.CertificateSource, field string) error {
	if src != nil && src.Contents != "" && src.Reference != "" {
		return types.NewValidationError(types.KindConflictingAliasFields, domain, path, field, field+pillar.Suffix).
			WithDetail("%s is given both literally and as a reference", field)
	}
	return nil
}

func validatePairSource(domain string, index int, src *types.CertificateSource, field string) error {
	if src.Contents == "" && src.Reference == "" {
		return types.NewValidationError(types.KindIncompleteCertificate, domain, "", "cert", "key").
			WithDetail("certificate %d has no %s", index, field)
	}
	if src.Contents != "" && src.Reference != "" {
		return types.NewValidationError(types.KindConflictingAliasFields, domain, "", field, field+pillar.Suffix).
			WithDetail("certificate %d: %s is given both literally and as a reference", index, field)
	}
	return nil
}

// zoneTracker checks that every referenced zone exists and that one zone
// name means one definition across all sites. Zones share the proxy's
// global namespace.
type zoneTracker struct {
	defs   map[string]types.RateLimitZone
	owners map[string]string
}

func newZoneTracker() *zoneTracker {
	return &zoneTracker{
		defs:   make(map[string]types.RateLimitZone),
		owners: make(map[string]string),
	}
}

func (z *zoneTracker) reference(domain string, loc *types.LocationSpec, effective map[string]types.RateLimitZone) error {
	name := loc.RateLimit.Zone
	zone, ok := effective[name]
	if !ok {
		return types.NewValidationError(types.KindUnknownRateLimitZone, domain, loc.Path, "rate_limit").
			WithDetail("zone %q is not defined", name)
	}

	if prev, seen := z.defs[name]; seen && prev != zone {
		return types.NewValidationError(types.KindConflictingRateLimitZone, domain, loc.Path, "rate_limit").
			WithDetail("zone %q is already defined differently by %s", name, z.owners[name])
	}
	if _, seen := z.defs[name]; !seen {
		z.defs[name] = zone
		z.owners[name] = domain
	}
	return nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
