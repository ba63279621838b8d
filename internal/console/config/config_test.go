package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "prod" {
		t.Errorf("expected Env=prod, got %q", cfg.Env)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %q", cfg.LogLevel)
	}
	if cfg.HTTPPort != 2137 {
		t.Errorf("expected HTTPPort=2137, got %d", cfg.HTTPPort)
	}
	if cfg.DBPath != "/data/ub-admin.db" {
		t.Errorf("expected DBPath=/data/ub-admin.db, got %q", cfg.DBPath)
	}
	if cfg.UnboundConf != "/etc/unbound/unbound.conf" {
		t.Errorf("expected UnboundConf=/etc/unbound/unbound.conf, got %q", cfg.UnboundConf)
	}
	if cfg.BlocklistConf != "/etc/unbound/blocklist.conf" {
		t.Errorf("expected BlocklistConf=/etc/unbound/blocklist.conf, got %q", cfg.BlocklistConf)
	}
	if cfg.LocalRecordsConf != "/etc/unbound/local_records.conf" {
		t.Errorf("expected LocalRecordsConf=/etc/unbound/local_records.conf, got %q", cfg.LocalRecordsConf)
	}
	if cfg.QueryLog != "/data/unbound_queries.log" {
		t.Errorf("expected QueryLog=/data/unbound_queries.log, got %q", cfg.QueryLog)
	}
	if cfg.ControlBin != "unbound-control" || cfg.CheckconfBin != "unbound-checkconf" {
		t.Errorf("unexpected control binaries: %q / %q", cfg.ControlBin, cfg.CheckconfBin)
	}
	if cfg.RefreshHours != 24 {
		t.Errorf("expected RefreshHours=24, got %d", cfg.RefreshHours)
	}
	if cfg.ResolverAddr != "127.0.0.1:53" {
		t.Errorf("expected ResolverAddr=127.0.0.1:53, got %q", cfg.ResolverAddr)
	}
	if cfg.ControlTimeoutSecs != 5 || cfg.CheckTimeoutSecs != 10 || cfg.FetchTimeoutSecs != 30 {
		t.Errorf("unexpected timeout defaults: %d/%d/%d",
			cfg.ControlTimeoutSecs, cfg.CheckTimeoutSecs, cfg.FetchTimeoutSecs)
	}
}

func TestLoad_ValidOverrides(t *testing.T) {
	t.Setenv("UBADMIN_ENV", "dev")
	t.Setenv("UBADMIN_LOG_LEVEL", "debug")
	t.Setenv("UBADMIN_HTTP_PORT", "8080")
	t.Setenv("UBADMIN_DB_PATH", "/tmp/console.db")
	t.Setenv("UBADMIN_REFRESH_HOURS", "6")
	t.Setenv("UBADMIN_RESOLVER_ADDR", "127.0.0.1:5353")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Env != "dev" {
		t.Errorf("expected Env=dev, got %q", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %q", cfg.LogLevel)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected HTTPPort=8080, got %d", cfg.HTTPPort)
	}
	if cfg.DBPath != "/tmp/console.db" {
		t.Errorf("expected DBPath=/tmp/console.db, got %q", cfg.DBPath)
	}
	if cfg.RefreshHours != 6 {
		t.Errorf("expected RefreshHours=6, got %d", cfg.RefreshHours)
	}
	if cfg.ResolverAddr != "127.0.0.1:5353" {
		t.Errorf("expected ResolverAddr=127.0.0.1:5353, got %q", cfg.ResolverAddr)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad env", "UBADMIN_ENV", "staging"},
		{"bad log level", "UBADMIN_LOG_LEVEL", "verbose"},
		{"port out of range", "UBADMIN_HTTP_PORT", "70000"},
		{"refresh hours zero", "UBADMIN_REFRESH_HOURS", "0"},
		{"resolver addr missing port", "UBADMIN_RESOLVER_ADDR", "127.0.0.1"},
		{"resolver addr bad ip", "UBADMIN_RESOLVER_ADDR", "nonsense:53"},
		{"fetch timeout zero", "UBADMIN_FETCH_TIMEOUT_SECS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", tt.key, tt.value)
			} else if !strings.Contains(err.Error(), "validation failed") {
				t.Errorf("expected validation error, got: %v", err)
			}
		})
	}
}

func TestLoad_EnvLoaderError(t *testing.T) {
	orig := envLoader
	defer func() { envLoader = orig }()

	envLoader = func(k *koanf.Koanf) error {
		return errors.New("boom")
	}

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "error loading env") {
		t.Fatalf("expected env loader error, got: %v", err)
	}
}

func TestLoad_RegisterValidationError(t *testing.T) {
	orig := registerValidation
	defer func() { registerValidation = orig }()

	registerValidation = func(v *validator.Validate) error {
		return errors.New("register failed")
	}

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "error registering validation") {
		t.Fatalf("expected registration error, got: %v", err)
	}
}

func TestValidIPPort(t *testing.T) {
	// exercised indirectly via Load, but check edge cases directly
	v := validator.New()
	if err := v.RegisterValidation("ip_port", validIPPort); err != nil {
		t.Fatalf("RegisterValidation failed: %v", err)
	}

	type holder struct {
		Addr string `validate:"ip_port"`
	}

	valid := []string{"127.0.0.1:53", "192.168.1.10:5353", "[::1]:53"}
	for _, addr := range valid {
		if err := v.Struct(holder{Addr: addr}); err != nil {
			t.Errorf("expected %q to validate, got: %v", addr, err)
		}
	}

	invalid := []string{"", "127.0.0.1", ":53", "host:53", "127.0.0.1:0", "127.0.0.1:99999"}
	for _, addr := range invalid {
		if err := v.Struct(holder{Addr: addr}); err == nil {
			t.Errorf("expected %q to fail validation", addr)
		}
	}
}
