package compiler

import (
	"fmt"

	"github.com/cuemby/terminator/pkg/types"
)

// zoneLines collects zone definitions in first-reference order
type zoneLines struct {
	seen  map[string]bool
	lines []string
}

func newZoneLines() *zoneLines {
	return &zoneLines{seen: make(map[string]bool), lines: []string{}}
}

func (z *zoneLines) reference(zone types.RateLimitZone) {
	if z.seen[zone.Name] {
		return
	}
	z.seen[zone.Name] = true
	z.lines = append(z.lines, zoneDefinition(zone))
}

// Lines returns the zone definitions, never nil
func (z *zoneLines) Lines() []string {
	out := make([]string, len(z.lines))
	copy(out, z.lines)
	return out
}

// zoneDefinition renders "<key> zone=<name>:<size> rate=<rate>"
func zoneDefinition(zone types.RateLimitZone) string {
	size := zone.Size
	if size == "" {
		size = types.DefaultRateLimitSize
	}
	key := zone.Key
	if key == "" {
		key = types.DefaultRateLimitKey
	}
	return fmt.Sprintf("%s zone=%s:%s rate=%s", key, zone.Name, size, zone.Rate)
}

// rateLimitDirective renders "zone=<name> burst=<n>[ nodelay]"
func rateLimitDirective(ref *types.RateLimitRef) string {
	directive := fmt.Sprintf("zone=%s burst=%d", ref.Zone, ref.Burst)
	if ref.NoDelay {
		directive += " nodelay"
	}
	return directive
}
