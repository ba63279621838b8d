package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/ub-admin/internal/console/common/clock"
	"github.com/haukened/ub-admin/internal/console/common/log"
	"github.com/haukened/ub-admin/internal/console/config"
	"github.com/haukened/ub-admin/internal/console/gateways/control"
	"github.com/haukened/ub-admin/internal/console/gateways/fetch"
	"github.com/haukened/ub-admin/internal/console/gateways/probe"
	"github.com/haukened/ub-admin/internal/console/gateways/web"
	"github.com/haukened/ub-admin/internal/console/repos/docstore"
	"github.com/haukened/ub-admin/internal/console/services/blocklist"
	"github.com/haukened/ub-admin/internal/console/services/records"
	"github.com/haukened/ub-admin/internal/console/services/settings"
	"github.com/haukened/ub-admin/internal/console/services/telemetry"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "ub-admind"

	defaultProbeTimeout    = 3 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the admin console
type Application struct {
	config    *config.AppConfig
	docs      docstore.Store
	server    *http.Server
	scheduler *blocklist.Scheduler
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.LogLevel,
		"http_port":     cfg.HTTPPort,
		"db_path":       cfg.DBPath,
		"unbound_conf":  cfg.UnboundConf,
		"refresh_hours": cfg.RefreshHours,
	}, "Starting unbound admin console")

	// Build application with all dependencies
	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Console failed")
	}

	log.Info(nil, "Admin console stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	// Create shared clock for consistent time across all components
	clk := &clock.RealClock{}

	// Initialize logger (already configured globally)
	logger := log.GetLogger()

	// Open the document store backing all authoritative console state
	docs, err := docstore.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	// Control channel to the running resolver
	channel := control.New(control.Options{
		ControlBin:     cfg.ControlBin,
		CheckconfBin:   cfg.CheckconfBin,
		CommandTimeout: time.Duration(cfg.ControlTimeoutSecs) * time.Second,
		CheckTimeout:   time.Duration(cfg.CheckTimeoutSecs) * time.Second,
		Logger:         logger,
	})

	paths := settings.Paths{
		UnboundConf:      cfg.UnboundConf,
		BlocklistConf:    cfg.BlocklistConf,
		LocalRecordsConf: cfg.LocalRecordsConf,
		QueryLog:         cfg.QueryLog,
	}

	// Settings pipeline; seed the live artifact from stored state so the
	// resolver always starts against a rendered configuration
	pipeline := settings.NewPipeline(settings.NewSchema(), docs, channel, paths, logger)
	if err := pipeline.Regenerate(); err != nil {
		return nil, fmt.Errorf("failed to regenerate resolver config: %w", err)
	}

	// Blocklist aggregation with its lookup index
	index, err := blocklist.NewIndex(cfg.BlocklistConf)
	if err != nil {
		return nil, fmt.Errorf("failed to create blocklist index: %w", err)
	}
	if err := index.Load(); err != nil {
		return nil, fmt.Errorf("failed to load blocklist index: %w", err)
	}
	fetcher := fetch.New(time.Duration(cfg.FetchTimeoutSecs) * time.Second)
	aggregator := blocklist.New(docs, fetcher, channel, clk, cfg.BlocklistConf, index, logger)
	scheduler := blocklist.NewScheduler(aggregator, time.Duration(cfg.RefreshHours)*time.Hour)

	// Local record overrides
	recordsService := records.New(docs, channel, cfg.LocalRecordsConf, logger)
	if err := recordsService.Regenerate(); err != nil {
		return nil, fmt.Errorf("failed to regenerate local records: %w", err)
	}

	// Telemetry over the control channel and the query log
	telemetryService := telemetry.New(channel, cfg.BlocklistConf, cfg.QueryLog, logger)

	// Admin API
	server := web.NewServer(web.Options{
		Pipeline:   pipeline,
		Blocklists: aggregator,
		Index:      index,
		Records:    recordsService,
		Telemetry:  telemetryService,
		Flusher:    channel,
		Prober:     probe.New(cfg.ResolverAddr, defaultProbeTimeout),
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Application{
		config:    cfg,
		docs:      docs,
		server:    httpServer,
		scheduler: scheduler,
	}, nil
}

// Run starts the console and blocks until context is cancelled
func (app *Application) Run(ctx context.Context) error {
	// Unattended blocklist refresh in the background
	go app.scheduler.Run(ctx)

	errChan := make(chan error, 1)
	go func() {
		log.Info(map[string]any{"address": app.server.Addr}, "Admin API started")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("admin API failed: %w", err)
	case <-ctx.Done():
	}

	log.Info(nil, "Shutdown initiated")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during HTTP shutdown")
	}

	if err := app.docs.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing document store")
		return err
	}

	log.Info(nil, "Graceful shutdown completed")
	return nil
}
