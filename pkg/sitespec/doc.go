/*
Package sitespec turns a raw pillar into validated site specifications.

# Normalization

Normalize accepts every shorthand a pillar may use and produces one
canonical SiteSpec per domain:

	backend: X                  ==  backends: {"/": X}
	backends: {"/": "addr"}     ==  backends: {"/": {upstream: "addr"}}
	upstream: "addr"            ==  upstreams: ["addr"]
	redirect: "url"             ==  redirect: {url: "url", status: 301, include_uri: true}
	cert: C, key: K             ==  certs: [{cert: C, key: K}]

A top-level redirect without backends produces a single "/" location.
Paths listed under rate_limit.backends that have no location of their
own copy the location with the longest matching prefix.

The reserved top-level keys add_headers, error_pages and rate_limit hold
global settings; every other key is a domain.

# Validation

Validate rejects inputs that cannot be compiled. Each failure is a
*types.ValidationError that names the site, the location and the field
pair involved, and matches its kind with errors.Is:

	err := sitespec.Validate(spec)
	if errors.Is(err, types.ErrConflictingAliasFields) {
		...
	}

Validation always runs before upstream identifiers are derived, so an
invalid pillar never yields a partial resource graph.
*/
package sitespec
