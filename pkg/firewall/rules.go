package firewall

import (
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/cuemby/terminator/pkg/types"
)

// Family is an IP address family
type Family string

const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// AnyDestination matches every address of a family
const AnyDestination = "0/0"

// Destination is one outbound (family, address, port) triple
type Destination struct {
	Family  Family
	Address string
	Port    int
}

// Name is the resource name of the rule allowing traffic to d
func (d Destination) Name() string {
	return fmt.Sprintf("outgoing-%s-to-%s-port-%d", d.Family, d.Address, d.Port)
}

// Classify derives the outbound destinations needed to reach host:port.
//
// A literal address yields one destination of its own family. A hostname
// is resolved by the proxy at connection time and may land on either
// family, so it yields an any-destination entry for both. Loopback
// literals never leave the machine and yield nothing; external is false
// for them.
func Classify(host string, port int) (dests []Destination, external bool) {
	ip := net.ParseIP(host)
	if ip == nil {
		return []Destination{
			{Family: FamilyIPv4, Address: AnyDestination, Port: port},
			{Family: FamilyIPv6, Address: AnyDestination, Port: port},
		}, true
	}

	if ip.IsLoopback() {
		return nil, false
	}

	family := FamilyIPv6
	if ip.To4() != nil {
		family = FamilyIPv4
	}
	return []Destination{{Family: family, Address: ip.String(), Port: port}}, true
}

// Set accumulates distinct destinations
type Set struct {
	seen map[Destination]struct{}
}

// NewSet creates an empty destination set
func NewSet() *Set {
	return &Set{seen: make(map[Destination]struct{})}
}

// AddPool records the destinations of every server in pool
func (s *Set) AddPool(pool *types.UpstreamPool) {
	for _, server := range pool.Servers {
		dests, _ := Classify(server.Hostname, server.Port)
		for _, d := range dests {
			s.seen[d] = struct{}{}
		}
	}
}

// Destinations returns the distinct destinations sorted by family,
// address and port
func (s *Set) Destinations() []Destination {
	out := make([]Destination, 0, len(s.seen))
	for d := range s.seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		if out[i].Address != out[j].Address {
			return out[i].Address < out[j].Address
		}
		return out[i].Port < out[j].Port
	})
	return out
}

// Rule builds the filter rule allowing new outbound TCP connections to d
func Rule(d Destination) *types.FirewallRule {
	return &types.FirewallRule{
		Family:      string(d.Family),
		Table:       "filter",
		Chain:       "OUTPUT",
		Proto:       "tcp",
		Destination: d.Address,
		DPorts:      strconv.Itoa(d.Port),
		Match:       "comment",
		Comment:     "tls-terminator: Allow outgoing traffic to backends",
		Jump:        "ACCEPT",
		Save:        true,
	}
}
