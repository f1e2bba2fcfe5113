/*
Package compiler builds the resource graph of a TLS terminator from a
pillar.

# Pipeline

	pillar.Map ─► sitespec.Normalize ─► sitespec.Validate ─► build ─► types.ResourceGraph
	                                                            │
	                                         upstream.Registry ─┤ (pool ids, cross-site dedup)
	                                         firewall.Set ──────┘ (outbound rules)

Compile runs the whole pipeline; Build starts from an already validated
*types.Pillar. Neither performs I/O, and a Compiler holds nothing but
options, so one Compiler may serve concurrent compilations.

# Resources

Names are unprefixed; callers usually apply ResourceGraph.WithPrefix.

	<site>-nginx-site                 site file, context *types.SiteContext
	upstream-<pool>                   named upstream block, once per pool
	<site>-certs-<n>-cert / -key      serving certificates, n from 1
	<site>-client-cert                CA bundle for incoming client certificates
	<pool>-proxy-client-cert / -key   certificate presented to the upstream
	<pool>-<hostname>                 custom upstream trust root
	default-trust-root                shared bundle, only when some location uses it
	outgoing-<family>-to-<dest>-port-<port>
	rate-limit-zones                  zone lines in first-reference order
	<site>-error-page-<code>          built-in < global < site error pages
	include                           collaborator states (certbot with ACME)

Certificate material keeps the form it was given in: literal content
lands in contents, a _pillar reference in contents_pillar.

# Determinism

Sites are processed in domain order and locations in path order. The
first site in that order names a shared upstream pool, and rate limit
zones are listed in the order that walk first references them. Compiling
the same pillar twice, or the same pillar written in another key order,
yields structurally equal graphs.

# Example

	c := compiler.New(compiler.DefaultOptions())
	graph, err := c.Compile(m)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			// operator error: fix the pillar
		}
		return err
	}
	out, _ := yaml.Marshal(graph.WithPrefix("tls-terminator-"))
*/
package compiler
