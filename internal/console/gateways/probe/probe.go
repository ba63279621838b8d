// Package probe sends a live test query to the managed resolver so the
// console can tell "config applied" apart from "resolver actually
// answering".
package probe

import (
	"context"
	"fmt"
	"time"

	mdns "github.com/miekg/dns"
)

const defaultTimeout = 3 * time.Second

// Result is the outcome of one test query.
type Result struct {
	Rcode   string        `json:"rcode"`
	RTT     time.Duration `json:"rtt"`
	Answers []string      `json:"answers"`
}

// Prober issues DNS queries against a fixed resolver address.
type Prober struct {
	addr   string
	client *mdns.Client
}

// New returns a Prober for the resolver at addr (ip:port).
func New(addr string, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Prober{
		addr:   addr,
		client: &mdns.Client{Timeout: timeout},
	}
}

// Lookup sends an A query for name and returns the response code, round
// trip time, and the answer records as text.
func (p *Prober) Lookup(ctx context.Context, name string) (Result, error) {
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(name), mdns.TypeA)
	msg.RecursionDesired = true

	resp, rtt, err := p.client.ExchangeContext(ctx, msg, p.addr)
	if err != nil {
		return Result{}, fmt.Errorf("query %s via %s: %w", name, p.addr, err)
	}

	answers := make([]string, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		answers = append(answers, rr.String())
	}
	return Result{
		Rcode:   mdns.RcodeToString[resp.Rcode],
		RTT:     rtt,
		Answers: answers,
	}, nil
}
