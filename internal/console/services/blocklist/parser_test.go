package blocklist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) map[string]struct{} {
	t.Helper()
	out, err := ParseHosts(strings.NewReader(text))
	require.NoError(t, err)
	return out
}

func TestParseHosts_BasicHostsSyntax(t *testing.T) {
	out := parse(t, "0.0.0.0 ads.example.com\n127.0.0.1 tracker.example.net\n")

	assert.Len(t, out, 2)
	assert.Contains(t, out, "ads.example.com")
	assert.Contains(t, out, "tracker.example.net")
}

func TestParseHosts_SkipsCommentsAndBlanks(t *testing.T) {
	out := parse(t, `
# This hosts file is a machine-generated list
#0.0.0.0 commented.example.com

0.0.0.0 ads.example.com
`)

	assert.Len(t, out, 1)
	assert.Contains(t, out, "ads.example.com")
}

func TestParseHosts_IgnoresNonNullRouteLines(t *testing.T) {
	out := parse(t, `
192.168.1.1 router.local
::1 v6-localhost
ads.example.org
0.0.0.0 ads.example.com
`)

	assert.Len(t, out, 1)
	assert.Contains(t, out, "ads.example.com")
}

func TestParseHosts_LowercasesDomains(t *testing.T) {
	out := parse(t, "0.0.0.0 ADS.Example.COM\n")

	assert.Contains(t, out, "ads.example.com")
	assert.NotContains(t, out, "ADS.Example.COM")
}

func TestParseHosts_ExcludesWellKnownLocalHostnames(t *testing.T) {
	out := parse(t, `
0.0.0.0 localhost
0.0.0.0 localhost.localdomain
0.0.0.0 local
0.0.0.0 broadcasthost
0.0.0.0 ip6-localhost
0.0.0.0 ip6-loopback
0.0.0.0 ads.example.com
`)

	assert.Len(t, out, 1)
	assert.Contains(t, out, "ads.example.com")
}

func TestParseHosts_DeduplicatesAcrossLines(t *testing.T) {
	out := parse(t, "0.0.0.0 ads.example.com\n127.0.0.1 ads.example.com\n")

	assert.Len(t, out, 1)
}

func TestParseHosts_LinesWithOnlyAnAddress(t *testing.T) {
	out := parse(t, "0.0.0.0\n0.0.0.0 ads.example.com\n")

	assert.Len(t, out, 1)
}

func TestParseHosts_EmptyInput(t *testing.T) {
	out := parse(t, "")
	assert.Empty(t, out)
}
