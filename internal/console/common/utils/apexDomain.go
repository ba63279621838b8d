package utils

import "golang.org/x/net/publicsuffix"

// ApexDomain reduces a name to its registrable (eTLD+1) domain, used to
// group query-log entries that only differ in subdomain.
func ApexDomain(name string) string {
	name = CanonicalDomain(name)
	apex, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return name // fall back to the original name if parsing fails
	}
	return apex
}
