package blocklist

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/ub-admin/internal/console/common/utils"
)

// skipDomains are well-known local/loopback hostnames that hosts-file
// lists carry for their own machine. They are never block candidates,
// regardless of source or whitelist.
var skipDomains = map[string]struct{}{
	"localhost":             {},
	"localhost.localdomain": {},
	"local":                 {},
	"broadcasthost":         {},
	"ip6-localhost":         {},
	"ip6-loopback":          {},
	"ip6-localnet":          {},
	"ip6-mcastprefix":       {},
	"ip6-allnodes":          {},
	"ip6-allrouters":        {},
	"ip6-allhosts":          {},
}

// ParseHosts extracts block candidates from hosts-file syntax: non-empty,
// non-comment lines whose first whitespace-delimited token is a null-route
// address contribute their second token, lowercased. Anything else is
// ignored; foreign lines are normal in published lists.
func ParseHosts(r io.Reader) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[0] != "0.0.0.0" && fields[0] != "127.0.0.1" {
			continue
		}
		domain := utils.CanonicalDomain(fields[1])
		if domain == "" {
			continue
		}
		if _, skip := skipDomains[domain]; skip {
			continue
		}
		out[domain] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
