package utils

import "strings"

// CanonicalDomain returns a domain name in the console's canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot (the policy and record renderers add it back when the
//   unbound grammar requires one)
func CanonicalDomain(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}
