package query

import "strings"

// Matches implements the shared filter rule for CPU labels, user names
// and autocomplete candidates.
//
// An empty query matches everything. Both sides are case-folded; an
// exact match wins immediately, then substring containment, then the
// query is split on whitespace and every token must be a substring of
// the haystack. The token stage is order-independent, so "amd 7950"
// finds "AMD Ryzen 9 7950X".
func Matches(query, haystack string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	h := strings.ToLower(haystack)
	if q == h {
		return true
	}
	if strings.Contains(h, q) {
		return true
	}
	for _, token := range strings.Fields(q) {
		if !strings.Contains(h, token) {
			return false
		}
	}
	return true
}
