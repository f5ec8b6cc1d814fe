package domain

import "strings"

// NormalizeToken upper-cases and trims a token identifier.
func NormalizeToken(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeTokens normalises ids, dropping blanks and duplicates while keeping order.
func NormalizeTokens(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := NormalizeToken(s)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
