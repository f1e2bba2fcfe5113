package pillar

// Merge layers overlays from lowest to highest precedence. The last
// overlay that sets a key wins; nil overlays are skipped. The result is
// a fresh map and never aliases any overlay.
//
// Values are copied as-is, so a zero value (an empty string header, for
// example) in a higher overlay replaces the lower one rather than being
// treated as unset.
func Merge[K comparable, V any](overlays ...map[K]V) map[K]V {
	size := 0
	for _, o := range overlays {
		if len(o) > size {
			size = len(o)
		}
	}

	out := make(map[K]V, size)
	for _, o := range overlays {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}
