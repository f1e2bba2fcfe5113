package compiler

import (
	"strings"

	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
	"golang.org/x/mod/semver"
)

// First proxy version that forwards the request id to nested proxies
const nestedProxyMinVersion = "v1.15.0"

// ACMEState is the collaborator included when a site requests ACME
const ACMEState = "certbot"

func canonicalVersion(version string) string {
	return "v" + strings.TrimPrefix(version, "v")
}

func validVersion(version string) bool {
	return semver.IsValid(canonicalVersion(version))
}

func supportsNestedProxy(version string) bool {
	if version == "" || !validVersion(version) {
		return false
	}
	return semver.Compare(canonicalVersion(version), nestedProxyMinVersion) >= 0
}

// withRequestID appends the request id forwarding directive to a
// location's passthrough config, keeping whatever was there
func withRequestID(extra any) any {
	directive := pillar.MapOf("proxy_set_header", "X-Request-Id $http_x_request_id")

	switch v := extra.(type) {
	case nil:
		return []any{directive}
	case []any:
		return append(v, directive)
	default:
		return []any{v, directive}
	}
}

func includes(acme bool) *types.IncludeMarker {
	states := []string{}
	if acme {
		states = append(states, ACMEState)
	}
	return &types.IncludeMarker{States: states}
}
