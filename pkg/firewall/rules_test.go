package firewall

import (
	"testing"

	"github.com/cuemby/terminator/pkg/types"
	"github.com/cuemby/terminator/pkg/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassify tests family and destination derivation per backend address
func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		dests    []Destination
		external bool
	}{
		{
			name:    "hostname https",
			address: "https://example.com",
			dests: []Destination{
				{Family: FamilyIPv4, Address: "0/0", Port: 443},
				{Family: FamilyIPv6, Address: "0/0", Port: 443},
			},
			external: true,
		},
		{
			name:    "hostname explicit port",
			address: "https://example.com:8000",
			dests: []Destination{
				{Family: FamilyIPv4, Address: "0/0", Port: 8000},
				{Family: FamilyIPv6, Address: "0/0", Port: 8000},
			},
			external: true,
		},
		{
			name:     "ipv4 https",
			address:  "https://10.10.10.10",
			dests:    []Destination{{Family: FamilyIPv4, Address: "10.10.10.10", Port: 443}},
			external: true,
		},
		{
			name:     "ipv4 http explicit port",
			address:  "https://10.10.10.10:5000",
			dests:    []Destination{{Family: FamilyIPv4, Address: "10.10.10.10", Port: 5000}},
			external: true,
		},
		{
			name:     "ipv6",
			address:  "https://[2001:0db8:85a3:08d3:1319:8a2e:0370:7344]:8000",
			dests:    []Destination{{Family: FamilyIPv6, Address: "2001:db8:85a3:8d3:1319:8a2e:370:7344", Port: 8000}},
			external: true,
		},
		{
			name:     "ipv4 loopback",
			address:  "http://127.0.0.1",
			external: false,
		},
		{
			name:     "ipv4 loopback range",
			address:  "https://127.43.25.21",
			external: false,
		},
		{
			name:     "ipv6 loopback",
			address:  "https://[::1]:5000",
			external: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := upstream.Parse(tt.address)
			require.NoError(t, err)

			dests, external := Classify(addr.Host, addr.Port)
			assert.Equal(t, tt.external, external)
			assert.Equal(t, tt.dests, dests)
		})
	}
}

// TestDestinationName tests rule naming
func TestDestinationName(t *testing.T) {
	assert.Equal(t, "outgoing-ipv4-to-1.1.1.1-port-80", Destination{FamilyIPv4, "1.1.1.1", 80}.Name())
	assert.Equal(t, "outgoing-ipv6-to-0/0-port-443", Destination{FamilyIPv6, AnyDestination, 443}.Name())
}

// TestSetDeduplicates tests one destination per distinct triple
func TestSetDeduplicates(t *testing.T) {
	s := NewSet()
	s.AddPool(&types.UpstreamPool{Servers: []types.UpstreamServer{
		{Hostname: "app.bar.com", Port: 443},
		{Hostname: "other.bar.com", Port: 443},
		{Hostname: "2.2.2.2", Port: 8000},
	}})
	s.AddPool(&types.UpstreamPool{Servers: []types.UpstreamServer{
		{Hostname: "2.2.2.2", Port: 8000},
		{Hostname: "127.0.0.1", Port: 5000},
	}})

	assert.Equal(t, []Destination{
		{Family: FamilyIPv4, Address: "0/0", Port: 443},
		{Family: FamilyIPv4, Address: "2.2.2.2", Port: 8000},
		{Family: FamilyIPv6, Address: "0/0", Port: 443},
	}, s.Destinations())
}

// TestRule tests the emitted rule fields
func TestRule(t *testing.T) {
	rule := Rule(Destination{Family: FamilyIPv4, Address: "2.2.2.2", Port: 8000})
	assert.Equal(t, "ipv4", rule.Family)
	assert.Equal(t, "8000", rule.DPorts)
	assert.Equal(t, "2.2.2.2", rule.Destination)
	assert.Equal(t, "OUTPUT", rule.Chain)
	assert.Equal(t, "ACCEPT", rule.Jump)
}
