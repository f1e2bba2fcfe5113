package upstream

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Address is one parsed backend address
type Address struct {
	Scheme    string
	Host      string // Lowercased hostname or canonical IP literal, without brackets
	Port      int
	Path      string
	Arguments string // Trailing directive arguments such as "weight=2"
}

// defaultPorts maps supported schemes to their implied port
var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
}

// Parse splits an address of the form
//
//	scheme://host[:port][/path][ arguments...]
//
// IPv6 literals must be bracketed. The port defaults from the scheme.
func Parse(address string) (Address, error) {
	raw := strings.TrimSpace(address)
	if raw == "" {
		return Address{}, fmt.Errorf("empty backend address")
	}

	var args string
	if idx := strings.IndexAny(raw, " \t"); idx != -1 {
		args = strings.TrimSpace(raw[idx:])
		raw = raw[:idx]
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, fmt.Errorf("failed to parse backend %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	defaultPort, ok := defaultPorts[scheme]
	if !ok {
		return Address{}, fmt.Errorf("backend %q: unsupported scheme %q (want http or https)", raw, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return Address{}, fmt.Errorf("backend %q: missing host", raw)
	}
	if ip := net.ParseIP(host); ip != nil {
		host = ip.String()
	} else {
		host = strings.ToLower(host)
	}

	port := defaultPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return Address{}, fmt.Errorf("backend %q: invalid port %q", raw, p)
		}
	}

	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	return Address{
		Scheme:    scheme,
		Host:      host,
		Port:      port,
		Path:      path,
		Arguments: args,
	}, nil
}

// HostPort joins host and port, bracketing IPv6 literals
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// IP returns the host as an IP literal, or nil for hostnames
func (a Address) IP() net.IP {
	return net.ParseIP(a.Host)
}
