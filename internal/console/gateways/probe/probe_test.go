package probe

import (
	"context"
	"net"
	"testing"
	"time"

	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestResolver runs a miekg/dns server on a random localhost port that
// answers every A query with 192.0.2.1.
func startTestResolver(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &mdns.Server{
		PacketConn: pc,
		Handler: mdns.HandlerFunc(func(w mdns.ResponseWriter, req *mdns.Msg) {
			resp := new(mdns.Msg)
			resp.SetReply(req)
			rr, err := mdns.NewRR(req.Question[0].Name + " 60 IN A 192.0.2.1")
			if err == nil {
				resp.Answer = append(resp.Answer, rr)
			}
			_ = w.WriteMsg(resp)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestLookup_Success(t *testing.T) {
	addr := startTestResolver(t)
	p := New(addr, 2*time.Second)

	res, err := p.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "NOERROR", res.Rcode)
	assert.Len(t, res.Answers, 1)
	assert.Contains(t, res.Answers[0], "192.0.2.1")
	assert.GreaterOrEqual(t, res.RTT, time.Duration(0))
}

func TestLookup_NoResolver(t *testing.T) {
	// reserved port with nothing listening
	p := New("127.0.0.1:1", 200*time.Millisecond)

	_, err := p.Lookup(context.Background(), "example.com")
	assert.Error(t, err)
}
