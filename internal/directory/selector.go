package directory

import "strings"

// matchesSelector reports whether a label map satisfies a flat
// "key=value,key=value" selector. All pairs must match. Pairs that do
// not contain exactly one '=' contribute no constraint, mirroring how
// the rest of the system treats selectors as best-effort filters.
func matchesSelector(labels map[string]string, selector string) bool {
	if selector == "" {
		return true
	}

	for _, pair := range strings.Split(selector, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if labels[key] != value {
			return false
		}
	}

	return true
}
