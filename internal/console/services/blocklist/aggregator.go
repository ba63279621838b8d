// Package blocklist aggregates remote block sources into the resolver's
// policy file: fetch, parse, union, subtract the whitelist, render, reload.
// The aggregate is derived state, recomputed in full on every refresh.
package blocklist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/haukened/ub-admin/internal/console/common/clock"
	"github.com/haukened/ub-admin/internal/console/common/log"
	"github.com/haukened/ub-admin/internal/console/common/metrics"
	"github.com/haukened/ub-admin/internal/console/common/utils"
	"github.com/haukened/ub-admin/internal/console/domain"
	"github.com/haukened/ub-admin/internal/console/repos/docstore"
)

// Document-store keys for the aggregator's authoritative state.
const (
	docKeySources   = "blocklists"
	docKeyWhitelist = "whitelist"
	docKeyStatus    = "blocklist_status"
)

// Client-facing mutation errors, mapped to conflict/not-found upstream.
var (
	ErrDuplicate  = errors.New("already exists")
	ErrBadIndex   = errors.New("invalid index")
	ErrEmptyValue = errors.New("value cannot be empty")
)

// Fetcher downloads one source list.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Reloader tells the resolver to pick up a new policy file.
type Reloader interface {
	Reload(ctx context.Context) (string, bool)
}

// SourceView is a source joined with its most recent refresh status, for
// listing. Count and timestamp are unknown (nil) until the first refresh.
type SourceView struct {
	URL         string `json:"url"`
	Domains     *int   `json:"domains"`
	LastRefresh *int64 `json:"last_refresh"`
	Error       string `json:"error,omitempty"`
}

// Aggregator owns the source list, the whitelist, and the refresh cycle.
type Aggregator struct {
	docs       docstore.Store
	fetcher    Fetcher
	reloader   Reloader
	clk        clock.Clock
	policyPath string
	index      *Index
	logger     log.Logger
}

// New wires an Aggregator. index may be nil when fast lookups are not
// needed (tests).
func New(docs docstore.Store, fetcher Fetcher, reloader Reloader, clk clock.Clock, policyPath string, index *Index, logger log.Logger) *Aggregator {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Aggregator{
		docs:       docs,
		fetcher:    fetcher,
		reloader:   reloader,
		clk:        clk,
		policyPath: policyPath,
		index:      index,
		logger:     logger,
	}
}

// Sources lists configured sources in priority order, each joined with its
// latest status entry.
func (a *Aggregator) Sources() ([]SourceView, error) {
	urls, err := a.sourceURLs()
	if err != nil {
		return nil, err
	}
	status, err := a.statusMap()
	if err != nil {
		return nil, err
	}

	out := make([]SourceView, 0, len(urls))
	for _, url := range urls {
		view := SourceView{URL: url}
		if st, ok := status[url]; ok {
			domains, last := st.Domains, st.LastRefresh
			view.Domains = &domains
			view.LastRefresh = &last
			view.Error = st.Error
		}
		out = append(out, view)
	}
	return out, nil
}

// AddSource appends a source URL, enforcing uniqueness.
func (a *Aggregator) AddSource(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrEmptyValue
	}
	urls, err := a.sourceURLs()
	if err != nil {
		return err
	}
	for _, u := range urls {
		if u == url {
			return ErrDuplicate
		}
	}
	return docstore.PutJSON(a.docs, docKeySources, append(urls, url))
}

// RemoveSource deletes the source at index and prunes its status entry.
func (a *Aggregator) RemoveSource(index int) (string, error) {
	urls, err := a.sourceURLs()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(urls) {
		return "", ErrBadIndex
	}
	removed := urls[index]
	urls = append(urls[:index], urls[index+1:]...)
	if err := docstore.PutJSON(a.docs, docKeySources, urls); err != nil {
		return "", err
	}

	status, err := a.statusMap()
	if err != nil {
		return "", err
	}
	delete(status, removed)
	if err := docstore.PutJSON(a.docs, docKeyStatus, status); err != nil {
		return "", err
	}
	return removed, nil
}

// Whitelist lists whitelisted domains in insertion order.
func (a *Aggregator) Whitelist() ([]string, error) {
	var out []string
	if _, err := docstore.GetJSON(a.docs, docKeyWhitelist, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// AddWhitelist appends a domain to the whitelist, lowercased, enforcing
// uniqueness. The subtraction itself happens at render time during
// Refresh, not here.
func (a *Aggregator) AddWhitelist(name string) (string, error) {
	name = utils.CanonicalDomain(name)
	if name == "" {
		return "", ErrEmptyValue
	}
	list, err := a.Whitelist()
	if err != nil {
		return "", err
	}
	for _, d := range list {
		if d == name {
			return "", ErrDuplicate
		}
	}
	return name, docstore.PutJSON(a.docs, docKeyWhitelist, append(list, name))
}

// RemoveWhitelist deletes the whitelist entry at index.
func (a *Aggregator) RemoveWhitelist(index int) (string, error) {
	list, err := a.Whitelist()
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(list) {
		return "", ErrBadIndex
	}
	removed := list[index]
	list = append(list[:index], list[index+1:]...)
	if err := docstore.PutJSON(a.docs, docKeyWhitelist, list); err != nil {
		return "", err
	}
	return removed, nil
}

// Refresh rebuilds the aggregate from scratch: fetch every source, parse,
// union, record per-source status, subtract the whitelist, render the
// policy file sorted for determinism, and reload the resolver. A failing
// source contributes an error entry and zero domains; it never aborts the
// batch.
func (a *Aggregator) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	urls, err := a.sourceURLs()
	if err != nil {
		return domain.RefreshResult{}, err
	}
	status, err := a.statusMap()
	if err != nil {
		return domain.RefreshResult{}, err
	}

	aggregate := make(map[string]struct{})
	srcErrors := []domain.SourceError{}

	for _, url := range urls {
		now := a.clk.Now().Unix()
		body, ferr := a.fetcher.Fetch(ctx, url)
		if ferr == nil {
			var domains map[string]struct{}
			domains, ferr = ParseHosts(bytes.NewReader(body))
			if ferr == nil {
				for d := range domains {
					aggregate[d] = struct{}{}
				}
				status[url] = domain.SourceStatus{Domains: len(domains), LastRefresh: now}
				a.logger.Debug(map[string]any{"url": url, "domains": len(domains)}, "source refreshed")
				continue
			}
		}
		srcErrors = append(srcErrors, domain.SourceError{URL: url, Error: ferr.Error()})
		status[url] = domain.SourceStatus{Domains: 0, LastRefresh: now, Error: ferr.Error()}
		metrics.RefreshSourceErrors.Inc()
		a.logger.Warn(map[string]any{"url": url, "error": ferr.Error()}, "source refresh failed")
	}

	if err := docstore.PutJSON(a.docs, docKeyStatus, status); err != nil {
		return domain.RefreshResult{}, err
	}

	whitelist, err := a.Whitelist()
	if err != nil {
		return domain.RefreshResult{}, err
	}
	for _, d := range whitelist {
		delete(aggregate, utils.CanonicalDomain(d))
	}

	sorted := make([]string, 0, len(aggregate))
	for d := range aggregate {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	if err := a.writePolicy(sorted); err != nil {
		return domain.RefreshResult{}, err
	}
	if a.index != nil {
		a.index.Rebuild(sorted)
	}

	metrics.RefreshCycles.Inc()
	metrics.BlockedDomains.Set(float64(len(sorted)))

	_, reloadOK := a.reloader.Reload(ctx)
	a.logger.Info(map[string]any{
		"domains":   len(sorted),
		"errors":    len(srcErrors),
		"reload_ok": reloadOK,
	}, "blocklist refreshed")

	return domain.RefreshResult{
		DomainsBlocked: len(sorted),
		Errors:         srcErrors,
		ReloadOK:       reloadOK,
	}, nil
}

// writePolicy renders one exclusion directive per domain.
func (a *Aggregator) writePolicy(domains []string) error {
	var b strings.Builder
	for _, d := range domains {
		fmt.Fprintf(&b, "local-zone: %q always_refuse\n", d+".")
	}
	return os.WriteFile(a.policyPath, []byte(b.String()), 0o644)
}

func (a *Aggregator) sourceURLs() ([]string, error) {
	var urls []string
	if _, err := docstore.GetJSON(a.docs, docKeySources, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

func (a *Aggregator) statusMap() (map[string]domain.SourceStatus, error) {
	status := make(map[string]domain.SourceStatus)
	if _, err := docstore.GetJSON(a.docs, docKeyStatus, &status); err != nil {
		return nil, err
	}
	return status, nil
}
