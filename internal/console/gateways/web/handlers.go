package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/haukened/ub-admin/internal/console/services/blocklist"
	"github.com/haukened/ub-admin/internal/console/services/records"
)

// optionSchema is the wire form of one settings option, keyed by option
// name in the config response.
type optionSchema struct {
	Type            string `json:"type"`
	Default         any    `json:"default"`
	Min             *int   `json:"min,omitempty"`
	Max             *int   `json:"max,omitempty"`
	RestartRequired bool   `json:"restart_required,omitempty"`
}

func urlIndex(r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	return idx, err == nil
}

// --- Statistics ---

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.telemetry.Snapshot(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "Failed to get stats",
			"detail": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// --- Configuration ---

func (s *Server) getConfig(w http.ResponseWriter, _ *http.Request) {
	cfg, err := s.pipeline.Load()
	if err != nil {
		s.internalError(w, err, "loading configuration")
		return
	}

	schema := make(map[string]optionSchema)
	for _, opt := range s.pipeline.Schema().Describe() {
		schema[opt.Key] = optionSchema{
			Type:            opt.Kind.String(),
			Default:         opt.Default,
			Min:             opt.Min,
			Max:             opt.Max,
			RestartRequired: opt.RestartRequired,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"config": cfg, "schema": schema})
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil || len(body) == 0 {
		s.writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "message": "No JSON body"})
		return
	}

	// submitted values merge onto the current configuration, so partial
	// updates are safe
	current, err := s.pipeline.Load()
	if err != nil {
		s.internalError(w, err, "loading configuration")
		return
	}
	for k, v := range body {
		current[k] = v
	}

	result, err := s.pipeline.Apply(r.Context(), current)
	if err != nil {
		s.internalError(w, err, "applying configuration")
		return
	}
	status := http.StatusOK
	if !result.Accepted {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, result)
}

// --- Blocklists ---

func (s *Server) listBlocklists(w http.ResponseWriter, _ *http.Request) {
	views, err := s.blocklists.Sources()
	if err != nil {
		s.internalError(w, err, "listing blocklists")
		return
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) addBlocklist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil || body.URL == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'url' field")
		return
	}

	switch err := s.blocklists.AddSource(body.URL); {
	case errors.Is(err, blocklist.ErrEmptyValue):
		s.writeError(w, http.StatusBadRequest, "URL cannot be empty")
	case errors.Is(err, blocklist.ErrDuplicate):
		s.writeError(w, http.StatusConflict, "URL already exists")
	case err != nil:
		s.internalError(w, err, "adding blocklist")
	default:
		s.writeJSON(w, http.StatusCreated, map[string]string{
			"status": "added",
			"url":    strings.TrimSpace(body.URL),
		})
	}
}

func (s *Server) removeBlocklist(w http.ResponseWriter, r *http.Request) {
	idx, ok := urlIndex(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Invalid index")
		return
	}
	removed, err := s.blocklists.RemoveSource(idx)
	switch {
	case errors.Is(err, blocklist.ErrBadIndex):
		s.writeError(w, http.StatusNotFound, "Invalid index")
	case err != nil:
		s.internalError(w, err, "removing blocklist")
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "url": removed})
	}
}

func (s *Server) refreshBlocklists(w http.ResponseWriter, r *http.Request) {
	result, err := s.blocklists.Refresh(r.Context())
	if err != nil {
		s.internalError(w, err, "refreshing blocklists")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// --- Whitelist ---

func (s *Server) listWhitelist(w http.ResponseWriter, _ *http.Request) {
	list, err := s.blocklists.Whitelist()
	if err != nil {
		s.internalError(w, err, "listing whitelist")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) addWhitelist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Domain string `json:"domain"`
	}
	if err := decodeBody(r, &body); err != nil || body.Domain == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'domain' field")
		return
	}

	added, err := s.blocklists.AddWhitelist(body.Domain)
	switch {
	case errors.Is(err, blocklist.ErrEmptyValue):
		s.writeError(w, http.StatusBadRequest, "Domain cannot be empty")
	case errors.Is(err, blocklist.ErrDuplicate):
		s.writeError(w, http.StatusConflict, "Domain already whitelisted")
	case err != nil:
		s.internalError(w, err, "adding whitelist entry")
	default:
		s.writeJSON(w, http.StatusCreated, map[string]string{"status": "added", "domain": added})
	}
}

func (s *Server) removeWhitelist(w http.ResponseWriter, r *http.Request) {
	idx, ok := urlIndex(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Invalid index")
		return
	}
	removed, err := s.blocklists.RemoveWhitelist(idx)
	switch {
	case errors.Is(err, blocklist.ErrBadIndex):
		s.writeError(w, http.StatusNotFound, "Invalid index")
	case err != nil:
		s.internalError(w, err, "removing whitelist entry")
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "removed", "domain": removed})
	}
}

// --- Local records ---

func (s *Server) listRecords(w http.ResponseWriter, _ *http.Request) {
	list, err := s.records.List()
	if err != nil {
		s.internalError(w, err, "listing local records")
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Hostname string `json:"hostname"`
		IP       string `json:"ip"`
	}
	if err := decodeBody(r, &body); err != nil || body.Hostname == "" || body.IP == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'hostname' and/or 'ip' field")
		return
	}

	rec, err := s.records.Add(r.Context(), body.Hostname, body.IP)
	switch {
	case errors.Is(err, records.ErrDuplicate):
		s.writeError(w, http.StatusConflict, "Hostname already exists")
	case err != nil:
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeJSON(w, http.StatusCreated, map[string]string{
			"status":   "added",
			"hostname": rec.Hostname,
			"ip":       rec.IP,
		})
	}
}

func (s *Server) removeRecord(w http.ResponseWriter, r *http.Request) {
	idx, ok := urlIndex(r)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Invalid index")
		return
	}
	removed, err := s.records.Remove(r.Context(), idx)
	switch {
	case errors.Is(err, records.ErrBadIndex):
		s.writeError(w, http.StatusNotFound, "Invalid index")
	case err != nil:
		s.internalError(w, err, "removing local record")
	default:
		s.writeJSON(w, http.StatusOK, map[string]string{
			"status":   "removed",
			"hostname": removed.Hostname,
		})
	}
}

// --- Cache ---

func (s *Server) flushCache(w http.ResponseWriter, r *http.Request) {
	output, ok := s.flusher.FlushAll(r.Context())
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "Failed to flush cache",
			"detail": output,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "flushed"})
}

func (s *Server) flushDomain(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Domain string `json:"domain"`
	}
	if err := decodeBody(r, &body); err != nil || strings.TrimSpace(body.Domain) == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'domain' field")
		return
	}
	domain := strings.TrimSpace(body.Domain)

	output, ok := s.flusher.FlushDomain(r.Context(), domain)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "Failed to flush domain",
			"detail": output,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "flushed", "domain": domain})
}

// --- Query log ---

func (s *Server) getQueryLog(w http.ResponseWriter, _ *http.Request) {
	entries, err := s.telemetry.Entries()
	if err != nil {
		s.internalError(w, err, "reading query log")
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getTopDomains(w http.ResponseWriter, r *http.Request) {
	n := 25
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	var counts any
	var err error
	if r.URL.Query().Get("group") == "apex" {
		counts, err = s.telemetry.TopApexDomains(n)
	} else {
		counts, err = s.telemetry.TopDomains(n)
	}
	if err != nil {
		s.internalError(w, err, "counting top domains")
		return
	}
	s.writeJSON(w, http.StatusOK, counts)
}

// --- Lookups ---

func (s *Server) getBlocked(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("domain")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'domain' parameter")
		return
	}
	if s.index == nil {
		s.writeError(w, http.StatusServiceUnavailable, "blocklist index not available")
		return
	}
	blocked, err := s.index.Blocked(name)
	if err != nil {
		s.internalError(w, err, "blocklist lookup")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"domain": name, "blocked": blocked})
}

func (s *Server) getProbe(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "Missing 'name' parameter")
		return
	}
	if s.prober == nil {
		s.writeError(w, http.StatusServiceUnavailable, "probe not available")
		return
	}
	result, err := s.prober.Lookup(r.Context(), name)
	if err != nil {
		s.writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":  "probe failed",
			"detail": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
