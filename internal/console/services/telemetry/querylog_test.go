package telemetry

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/ub-admin/internal/console/domain"
)

func logLine(ts int64, client, name, qtype string) string {
	return fmt.Sprintf("[%d] unbound[123:0] info: %s %s %s IN\n", ts, client, name, qtype)
}

func TestParseQueryLog(t *testing.T) {
	text := logLine(1700000000, "192.168.1.10", "example.com.", "A") +
		"[1700000001] unbound[123:0] notice: init module 0: validator\n" +
		logLine(1700000002, "192.168.1.11", "cdn.example.net.", "AAAA")

	entries := ParseQueryLog(text)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.QueryLogEntry{
		Timestamp: 1700000000,
		Client:    "192.168.1.10",
		Domain:    "example.com",
		Type:      "A",
		Class:     "IN",
	}, entries[0])
	assert.Equal(t, "cdn.example.net", entries[1].Domain, "trailing dot stripped")
}

func TestParseQueryLog_NoMatches(t *testing.T) {
	entries := ParseQueryLog("notice: service started\nerror: bind failed\n")
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestEntries_MissingFileIsEmpty(t *testing.T) {
	svc, _, _ := newTestService(t, stubSource{})

	entries, err := svc.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntries(t *testing.T) {
	svc, _, queryLogPath := newTestService(t, stubSource{})
	require.NoError(t, os.WriteFile(queryLogPath, []byte(
		logLine(1700000000, "192.168.1.10", "example.com.", "A")), 0o644))

	entries, err := svc.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "example.com", entries[0].Domain)
}

func TestTopDomains(t *testing.T) {
	svc, _, queryLogPath := newTestService(t, stubSource{})

	var b strings.Builder
	for i := 0; i < 5; i++ {
		b.WriteString(logLine(1700000000+int64(i), "192.168.1.10", "busy.example.com.", "A"))
	}
	for i := 0; i < 3; i++ {
		b.WriteString(logLine(1700000100+int64(i), "192.168.1.11", "quiet.example.net.", "A"))
	}
	b.WriteString(logLine(1700000200, "192.168.1.12", "once.example.org.", "AAAA"))
	require.NoError(t, os.WriteFile(queryLogPath, []byte(b.String()), 0o644))

	top, err := svc.TopDomains(2)
	require.NoError(t, err)
	assert.Equal(t, []domain.DomainCount{
		{Domain: "busy.example.com", Count: 5},
		{Domain: "quiet.example.net", Count: 3},
	}, top)
}

func TestTopApexDomains_GroupsSubdomains(t *testing.T) {
	svc, _, queryLogPath := newTestService(t, stubSource{})

	text := logLine(1700000000, "192.168.1.10", "cdn.example.com.", "A") +
		logLine(1700000001, "192.168.1.10", "api.example.com.", "A") +
		logLine(1700000002, "192.168.1.10", "www.example.com.", "A") +
		logLine(1700000003, "192.168.1.11", "other.example.net.", "A")
	require.NoError(t, os.WriteFile(queryLogPath, []byte(text), 0o644))

	top, err := svc.TopApexDomains(10)
	require.NoError(t, err)
	assert.Equal(t, []domain.DomainCount{
		{Domain: "example.com", Count: 3},
		{Domain: "example.net", Count: 1},
	}, top)
}

func TestTailFile_SkipsPartialFirstLine(t *testing.T) {
	svc, _, queryLogPath := newTestService(t, stubSource{})

	// first line is longer than the others, then enough full lines that
	// the tail window is guaranteed to open mid-way through it
	var b strings.Builder
	b.WriteString(logLine(1700000000, "192.168.1.10", "cut-off.example.com.", "A"))
	kept := 0
	for b.Len() < entriesTailBytes+2 {
		b.WriteString(logLine(1700000001, "192.168.1.10", "kept.example.com.", "A"))
		kept++
	}
	require.NoError(t, os.WriteFile(queryLogPath, []byte(b.String()), 0o644))

	entries, err := svc.Entries()
	require.NoError(t, err)
	require.Len(t, entries, kept, "the line cut by the window start is discarded")
	for _, e := range entries {
		assert.Equal(t, "kept.example.com", e.Domain)
	}
}
