package compiler

import (
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
)

var securityHeaders = map[string]string{
	"Strict-Transport-Security": "max-age=31536000",
	"X-Xss-Protection":          "1; mode=block",
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
}

// SecurityHeaders returns the headers every site sends unless overridden
func SecurityHeaders() map[string]string {
	return pillar.Merge(securityHeaders)
}

// siteHeaders layers security defaults < global < site. Locations add
// their own layer on top. An empty value is a value like any other and
// replaces the lower layer's.
func siteHeaders(global *types.GlobalSpec, site *types.SiteSpec) map[string]string {
	return pillar.Merge(securityHeaders, global.Headers, site.Headers)
}
