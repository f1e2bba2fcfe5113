package pillar

import (
	"fmt"
	"strings"
)

// Suffix marks a key whose value is a reference into the secret store
// rather than a literal.
const Suffix = "_pillar"

// LookupFunc fetches the value stored under reference. Implementations
// own their retry and timeout behaviour.
type LookupFunc func(reference string) (any, error)

// IsReference reports whether key carries the indirection suffix
func IsReference(key string) bool {
	return strings.HasSuffix(key, Suffix) && len(key) > len(Suffix)
}

// StripSuffix removes the indirection suffix from key
func StripSuffix(key string) string {
	return strings.TrimSuffix(key, Suffix)
}

// Resolve returns a copy of m in which every key ending in Suffix is
// replaced by the stripped key mapped to the looked-up value. Sequence
// values are resolved element by element, in order. Nested mappings
// under plain keys are resolved recursively; everything else is copied.
//
// A reference that is not a scalar, or a list holding a non-scalar, is
// an error. The first lookup error is returned as-is and no partial
// result is produced. m is never modified.
func Resolve(m *Map, lookup LookupFunc) (*Map, error) {
	out := NewMap()
	for _, key := range m.Keys() {
		value, _ := m.Get(key)

		if IsReference(key) {
			resolved, err := resolveReference(key, value, lookup)
			if err != nil {
				return nil, err
			}
			out.Set(StripSuffix(key), resolved)
			continue
		}

		// A reference always wins over a literal of the same name
		if m.Has(key + Suffix) {
			continue
		}

		if nested, ok := value.(*Map); ok {
			resolved, err := Resolve(nested, lookup)
			if err != nil {
				return nil, err
			}
			out.Set(key, resolved)
			continue
		}

		out.Set(key, CloneValue(value))
	}
	return out, nil
}

func resolveReference(key string, value any, lookup LookupFunc) (any, error) {
	items, ok := value.([]any)
	if !ok {
		ref, ok := String(value)
		if !ok {
			return nil, fmt.Errorf("%s: reference must be a scalar, got %T", key, value)
		}
		return lookup(ref)
	}

	resolved := make([]any, 0, len(items))
	for i, item := range items {
		ref, ok := String(item)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: reference must be a scalar, got %T", key, i, item)
		}
		v, err := lookup(ref)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, v)
	}
	return resolved, nil
}
