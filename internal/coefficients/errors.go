package coefficients

import "errors"

// DefaultKey is the entry unknown identifiers resolve to in every keyed map
const DefaultKey = "Empty"

// ErrMissingCoefficient is returned by lookups on a table that failed to load
// or that lacks the requested entry.
var ErrMissingCoefficient = errors.New("missing coefficient")

func lookup[V any](m map[string]V, key string) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	v, ok := m[DefaultKey]
	return v, ok
}
