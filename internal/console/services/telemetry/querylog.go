package telemetry

import (
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/haukened/ub-admin/internal/console/common/utils"
	"github.com/haukened/ub-admin/internal/console/domain"
)

// Tail sizes: entries views read the recent window, top-N views read a
// larger one for meaningful counts.
const (
	entriesTailBytes = 100 * 1024
	topTailBytes     = 2 * 1024 * 1024
	topDomainCount   = 25
)

// queryLineRe matches the resolver's query-log format:
//
//	[1700000000] unbound[123:0] info: 192.168.1.10 example.com. A IN
var queryLineRe = regexp.MustCompile(`\[(\d+)\]\s+unbound\[\d+:\d+\]\s+info:\s+(\S+)\s+(\S+)\s+(\S+)\s+(\S+)`)

// ParseQueryLog extracts structured entries from raw log text. Lines that
// do not match the query format (startup notices, errors) are skipped.
func ParseQueryLog(text string) []domain.QueryLogEntry {
	entries := []domain.QueryLogEntry{}
	for _, line := range strings.Split(text, "\n") {
		m := queryLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, domain.QueryLogEntry{
			Timestamp: ts,
			Client:    m[2],
			Domain:    strings.TrimSuffix(m[3], "."),
			Type:      m[4],
			Class:     m[5],
		})
	}
	return entries
}

// Entries returns the parsed tail of the query log. A missing log file
// (query logging disabled, or nothing logged yet) yields an empty slice.
func (s *Service) Entries() ([]domain.QueryLogEntry, error) {
	text, err := tailFile(s.queryLogPath, entriesTailBytes)
	if err != nil {
		return nil, err
	}
	return ParseQueryLog(text), nil
}

// TopDomains counts queries per exact domain over the recent log window
// and returns the busiest n, most-queried first.
func (s *Service) TopDomains(n int) ([]domain.DomainCount, error) {
	return s.topCounts(n, func(d string) string { return d })
}

// TopApexDomains is TopDomains with names grouped by registrable domain,
// so cdn.example.com and api.example.com count toward example.com.
func (s *Service) TopApexDomains(n int) ([]domain.DomainCount, error) {
	return s.topCounts(n, utils.ApexDomain)
}

func (s *Service) topCounts(n int, keyFn func(string) string) ([]domain.DomainCount, error) {
	if n <= 0 {
		n = topDomainCount
	}
	text, err := tailFile(s.queryLogPath, topTailBytes)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, entry := range ParseQueryLog(text) {
		counts[keyFn(entry.Domain)]++
	}

	out := make([]domain.DomainCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, domain.DomainCount{Domain: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Domain < out[j].Domain
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// tailFile reads up to maxBytes from the end of path, discarding the first
// partial line when the file was truncated mid-read. A missing file is
// empty, not an error.
func tailFile(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	if info.Size() > maxBytes {
		if _, err := f.Seek(info.Size()-maxBytes, io.SeekStart); err != nil {
			return "", err
		}
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	text := string(raw)
	if info.Size() > maxBytes {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		}
	}
	return text, nil
}
