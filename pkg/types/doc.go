/*
Package types defines the data model shared by the terminator packages.

There are two halves. The input half is the normalized pillar:

	Pillar
	 ├─ GlobalSpec        headers, error pages and rate limit zones for every site
	 └─ SiteSpec (1..n)   one proxied domain
	     └─ LocationSpec (1..n)
	          upstream pool | redirect

The output half is the resource graph handed to the state engine:

	ResourceGraph
	 └─ name → Resource
	      file      managed file (certificates, error pages, upstream blocks, site context)
	      firewall  outbound packet filter rule
	      include   optional collaborator states such as certbot

Resource names are pure functions of the input. Compiling the same pillar
twice gives graphs that compare equal with reflect.DeepEqual, which is what
lets the state engine re-apply them idempotently.

# Upstream pools

An UpstreamPool is identified by

	<domain>-<primary-host>_<digest6>

where digest6 is six hex characters derived from the scheme, the ordered
host:port list and the path. Locations in different sites with the same
addresses point at the same *UpstreamPool.

# Errors

Every input defect is a *ValidationError carrying its ErrorKind, the site,
the location and the offending fields. Each kind unwraps to a sentinel:

	if errors.Is(err, types.ErrConflictingAliasFields) {
		...
	}
*/
package types
