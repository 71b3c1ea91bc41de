package details

import "strings"

// MergeScopes space-joins the provided scope strings, deduplicating entries
// while preserving first-seen order.
func MergeScopes(scopes ...string) string {
	seen := make(map[string]struct{})
	var out []string

	for _, scope := range scopes {
		for _, entry := range strings.Fields(scope) {
			if _, ok := seen[entry]; ok {
				continue
			}
			seen[entry] = struct{}{}
			out = append(out, entry)
		}
	}

	return strings.Join(out, " ")
}

// ScopeContains reports whether the space-separated scope string contains
// the given entry.
func ScopeContains(scope, entry string) bool {
	for _, s := range strings.Fields(scope) {
		if s == entry {
			return true
		}
	}
	return false
}
