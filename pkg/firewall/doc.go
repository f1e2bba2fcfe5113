/*
Package firewall derives the outbound filter rules a terminator host needs
to reach its backends.

Every upstream server is classified by address family. Literal addresses
produce one rule for their own family; hostnames produce an any-address
rule for both IPv4 and IPv6 since resolution happens inside the proxy.
Loopback servers need no rule.

	set := firewall.NewSet()
	for _, pool := range registry.Pools() {
		set.AddPool(pool)
	}
	for _, d := range set.Destinations() {
		graph.Resources[d.Name()] = &types.Resource{
			Kind:     types.ResourceKindFirewall,
			Firewall: firewall.Rule(d),
		}
	}
*/
package firewall
