package upstream

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Descriptor is the canonical identity of an upstream pool. Server order
// is significant: weights and backup flags depend on it.
type Descriptor struct {
	Scheme  string
	Servers []string // host:port, in the order given
	Path    string
}

// NewDescriptor builds the descriptor for an ordered address list
func NewDescriptor(addrs []Address) Descriptor {
	d := Descriptor{Servers: make([]string, 0, len(addrs))}
	for i, a := range addrs {
		if i == 0 {
			d.Scheme = a.Scheme
			d.Path = a.Path
		}
		d.Servers = append(d.Servers, a.HostPort())
	}
	return d
}

// String is the canonical encoding that Digest hashes. Fields are
// separated by the ASCII unit separator, which cannot occur in a URL.
func (d Descriptor) String() string {
	return d.Scheme + "\x1f" + strings.Join(d.Servers, ",") + "\x1f" + d.Path
}

// Digest returns six hex characters of the BLAKE3 hash of the
// descriptor. The path only influences the digest and never appears in
// the identifier itself.
func (d Descriptor) Digest() string {
	sum := blake3.Sum256([]byte(d.String()))
	return hex.EncodeToString(sum[:3])
}

// Identifier formats a pool id as <domain>-<primary-host>_<digest6>.
// Colons in IPv6 hosts become dashes so the id stays usable as a file
// name and upstream block name.
func Identifier(domain, primaryHost, digest string) string {
	return fmt.Sprintf("%s-%s_%s", domain, strings.ReplaceAll(primaryHost, ":", "-"), digest)
}
