package domain

import (
	"fmt"
	"net"
	"strings"
)

// LocalRecord maps a hostname to an address for the resolver's local zone.
// Hostname is the unique key within the record list.
type LocalRecord struct {
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
}

// NewLocalRecord normalizes and validates a record. The hostname is
// lowercased and stripped of trailing dots; the address must parse as an
// IPv4 address (local-data renders an A record).
func NewLocalRecord(hostname, ip string) (LocalRecord, error) {
	r := LocalRecord{
		Hostname: canonicalHostname(hostname),
		IP:       strings.TrimSpace(ip),
	}
	if err := r.Validate(); err != nil {
		return LocalRecord{}, err
	}
	return r, nil
}

// Validate checks hostname syntax and the address.
func (r LocalRecord) Validate() error {
	if r.Hostname == "" {
		return fmt.Errorf("hostname must not be empty")
	}
	if len(r.Hostname) > 255 {
		return fmt.Errorf("hostname exceeds 255 characters")
	}
	for _, label := range strings.Split(r.Hostname, ".") {
		if len(label) == 0 || len(label) > 63 {
			return fmt.Errorf("hostname %q has an invalid label", r.Hostname)
		}
	}
	if strings.ContainsAny(r.Hostname, " \t*") {
		return fmt.Errorf("hostname %q contains invalid characters", r.Hostname)
	}
	parsed := net.ParseIP(r.IP)
	if parsed == nil || parsed.To4() == nil {
		return fmt.Errorf("ip %q is not a valid IPv4 address", r.IP)
	}
	return nil
}

func canonicalHostname(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}
