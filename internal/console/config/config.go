package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
// These describe where the console finds the resolver's files and binaries,
// not the resolver tunables themselves (those live in the settings schema).
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// HTTPPort is the port the admin API listens on.
	HTTPPort int `koanf:"http_port" validate:"required,gte=1,lt=65536"`

	// DBPath is the bbolt database file backing the document store.
	DBPath string `koanf:"db_path" validate:"required"`

	// UnboundConf is the live resolver configuration artifact.
	UnboundConf string `koanf:"unbound_conf" validate:"required"`

	// BlocklistConf is the rendered blocklist policy file.
	BlocklistConf string `koanf:"blocklist_conf" validate:"required"`

	// LocalRecordsConf is the rendered local-records file.
	LocalRecordsConf string `koanf:"local_records_conf" validate:"required"`

	// QueryLog is the resolver query log file the console tails.
	QueryLog string `koanf:"query_log" validate:"required"`

	// ControlBin and CheckconfBin name the unbound administration binaries.
	ControlBin   string `koanf:"control_bin" validate:"required"`
	CheckconfBin string `koanf:"checkconf_bin" validate:"required"`

	// RefreshHours is the unattended blocklist refresh interval.
	RefreshHours int `koanf:"refresh_hours" validate:"required,gte=1,lte=168"`

	// ControlTimeoutSecs and CheckTimeoutSecs bound control-channel commands
	// and syntax checks; FetchTimeoutSecs bounds a single blocklist download.
	ControlTimeoutSecs int `koanf:"control_timeout_secs" validate:"required,gte=1,lte=300"`
	CheckTimeoutSecs   int `koanf:"check_timeout_secs" validate:"required,gte=1,lte=300"`
	FetchTimeoutSecs   int `koanf:"fetch_timeout_secs" validate:"required,gte=1,lte=300"`

	// ResolverAddr is the resolver's listener in ip:port form, used by the
	// live test-query probe.
	ResolverAddr string `koanf:"resolver_addr" validate:"required,ip_port"`
}

// DEFAULT_APP_CONFIG defines the default application configuration for the
// console: container-friendly paths matching the add-on layout.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:              "prod",
	LogLevel:         "info",
	HTTPPort:         2137,
	DBPath:           "/data/ub-admin.db",
	UnboundConf:      "/etc/unbound/unbound.conf",
	BlocklistConf:    "/etc/unbound/blocklist.conf",
	LocalRecordsConf: "/etc/unbound/local_records.conf",
	QueryLog:         "/data/unbound_queries.log",
	ControlBin:       "unbound-control",
	CheckconfBin:     "unbound-checkconf",
	RefreshHours:     24,
	ResolverAddr:     "127.0.0.1:53",

	ControlTimeoutSecs: 5,
	CheckTimeoutSecs:   10,
	FetchTimeoutSecs:   30,
}

// validIPPort validates whether the provided field value is a valid IP
// address and port combination in "IP:Port" form.
func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || ip == "" || port == "" {
		return false
	}
	if net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

// envLoader loads environment variables with the prefix "UBADMIN_",
// lowercasing keys and stripping the prefix. Mockable in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "UBADMIN_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "UBADMIN_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG via the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the custom "ip_port" validator.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
