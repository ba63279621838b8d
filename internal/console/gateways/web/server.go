// Package web is the console's admin API: configuration, blocklists,
// whitelist, local records, cache control, statistics, and the query log,
// served as JSON over HTTP.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/ub-admin/internal/console/common/log"
	"github.com/haukened/ub-admin/internal/console/gateways/probe"
	"github.com/haukened/ub-admin/internal/console/services/blocklist"
	"github.com/haukened/ub-admin/internal/console/services/records"
	"github.com/haukened/ub-admin/internal/console/services/settings"
	"github.com/haukened/ub-admin/internal/console/services/telemetry"
)

// Flusher drops entries from the resolver cache.
type Flusher interface {
	FlushAll(ctx context.Context) (string, bool)
	FlushDomain(ctx context.Context, domain string) (string, bool)
}

// Prober issues a live test query against the resolver.
type Prober interface {
	Lookup(ctx context.Context, name string) (probe.Result, error)
}

// Server holds the services the API fronts.
type Server struct {
	pipeline   *settings.Pipeline
	blocklists *blocklist.Aggregator
	index      *blocklist.Index
	records    *records.Service
	telemetry  *telemetry.Service
	flusher    Flusher
	prober     Prober
	logger     log.Logger
}

// Options carries the Server's dependencies. Index and Prober are optional;
// their endpoints answer 503 when absent.
type Options struct {
	Pipeline   *settings.Pipeline
	Blocklists *blocklist.Aggregator
	Index      *blocklist.Index
	Records    *records.Service
	Telemetry  *telemetry.Service
	Flusher    Flusher
	Prober     Prober
	Logger     log.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Server{
		pipeline:   opts.Pipeline,
		blocklists: opts.Blocklists,
		index:      opts.Index,
		records:    opts.Records,
		telemetry:  opts.Telemetry,
		flusher:    opts.Flusher,
		prober:     opts.Prober,
		logger:     logger,
	}
}

// Router assembles the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.getStats)

		r.Get("/config", s.getConfig)
		r.Put("/config", s.putConfig)

		r.Get("/blocklists", s.listBlocklists)
		r.Post("/blocklists", s.addBlocklist)
		r.Delete("/blocklists/{idx}", s.removeBlocklist)
		r.Post("/blocklists/refresh", s.refreshBlocklists)

		r.Get("/whitelist", s.listWhitelist)
		r.Post("/whitelist", s.addWhitelist)
		r.Delete("/whitelist/{idx}", s.removeWhitelist)

		r.Get("/local-records", s.listRecords)
		r.Post("/local-records", s.addRecord)
		r.Delete("/local-records/{idx}", s.removeRecord)

		r.Post("/cache/flush", s.flushCache)
		r.Post("/cache/flush-domain", s.flushDomain)

		r.Get("/query-log", s.getQueryLog)
		r.Get("/top-domains", s.getTopDomains)

		r.Get("/blocked", s.getBlocked)
		r.Get("/probe", s.getProbe)
	})
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(map[string]any{"error": err.Error()}, "encoding response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, err error, msg string) {
	s.logger.Error(map[string]any{"error": err.Error()}, msg)
	s.writeError(w, http.StatusInternalServerError, msg)
}

// decodeBody unmarshals a JSON request body, rejecting empty or malformed
// input.
func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
