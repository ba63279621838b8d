package domain

// SourceStatus is the per-source bookkeeping from the most recent refresh
// cycle, keyed by source URL in the status document.
type SourceStatus struct {
	// Domains is the number of domains this source contributed, zero when
	// the fetch failed.
	Domains int `json:"domains"`
	// LastRefresh is the unix timestamp of the last attempt.
	LastRefresh int64 `json:"last_refresh"`
	// Error carries the failure text, absent on success.
	Error string `json:"error,omitempty"`
}

// SourceError pairs a source URL with its failure text inside a
// RefreshResult.
type SourceError struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// RefreshResult is the outcome of one blocklist refresh cycle. Partial
// failure is normal: Errors lists the sources that failed while the
// aggregate was still rebuilt from the rest.
type RefreshResult struct {
	DomainsBlocked int           `json:"domains_blocked"`
	Errors         []SourceError `json:"errors"`
	ReloadOK       bool          `json:"reload_ok"`
}
