package domain

// QueryLogEntry is one parsed resolver query-log line.
type QueryLogEntry struct {
	// Timestamp is the query time as unix seconds.
	Timestamp int64 `json:"timestamp"`
	// Client is the querying address as logged.
	Client string `json:"client"`
	// Domain is the queried name with the trailing dot stripped.
	Domain string `json:"domain"`
	// Type is the query type (A, AAAA, ...).
	Type string `json:"type"`
	// Class is the query class (IN, ...).
	Class string `json:"class"`
}

// DomainCount is a domain with its query count, for top-N views.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}
