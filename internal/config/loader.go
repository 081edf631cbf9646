package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "editorbridge.yaml"

// EnvConfigFile overrides DefaultConfigFile when set.
const EnvConfigFile = "EDITORBRIDGE_CONFIG"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
func Load() (*Config, []Warning) {
	path := DefaultConfigFile
	if v := os.Getenv(EnvConfigFile); v != "" {
		path = v
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. It never fails: a broken YAML file or
// an invalid value is reported as a Warning and the default is kept, so
// the bridge stays available.
func LoadFrom(yamlPath string) (*Config, []Warning) {
	cfg := Defaults()
	var warnings []Warning

	if err := loadYAML(&cfg, yamlPath); err != nil {
		warnings = append(warnings, Warning{
			Code:    WarnConfigFile,
			Message: fmt.Sprintf("config file ignored: %v", err),
		})
		cfg = Defaults()
	}

	loadEnv(&cfg)
	warnings = append(warnings, validate(&cfg)...)

	return &cfg, warnings
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Transport, "EDITORBRIDGE_TRANSPORT")
	setString(&cfg.Server.Addr, "EDITORBRIDGE_ADDR")
	setString(&cfg.Server.AuthToken, "EDITORBRIDGE_AUTH_TOKEN")

	setString(&cfg.Backend.URL, "EDITORBRIDGE_BACKEND_URL")
	setBool(&cfg.Backend.AllowRemote, "EDITORBRIDGE_ALLOW_REMOTE")
	setBool(&cfg.Backend.StrictLocalOnly, "EDITORBRIDGE_STRICT_LOCAL_ONLY")
	setBool(&cfg.Backend.UnsafeInvoke, "EDITORBRIDGE_ENABLE_UNSAFE_INVOKE")
	setInt(&cfg.Backend.DefaultTimeoutMs, "EDITORBRIDGE_DEFAULT_TIMEOUT_MS")
	setInt(&cfg.Backend.MaxTimeoutMs, "EDITORBRIDGE_MAX_TIMEOUT_MS")

	setString(&cfg.Logging.Level, "EDITORBRIDGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "EDITORBRIDGE_LOG_SERVICE")
	setString(&cfg.Logging.Format, "EDITORBRIDGE_LOG_FORMAT")
	setBool(&cfg.Logging.Async, "EDITORBRIDGE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "EDITORBRIDGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "EDITORBRIDGE_BREAKER_TIMEOUT")

	setInt64(&cfg.Cache.MaxCostBytes, "EDITORBRIDGE_CACHE_MAX_BYTES")
	setDuration(&cfg.Cache.CapabilityTTL, "EDITORBRIDGE_CAPABILITY_TTL")

	setString(&cfg.Telemetry.OTLPEndpoint, "EDITORBRIDGE_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "EDITORBRIDGE_OTLP_INSECURE")
}

// validate resets out-of-range process settings to their defaults.
// Backend URL and timeout rules live in NewSnapshot because they are
// re-evaluated on every reload.
func validate(cfg *Config) []Warning {
	def := Defaults()
	var warnings []Warning
	reset := func(field string) {
		warnings = append(warnings, Warning{
			Code:    WarnInvalidSetting,
			Message: fmt.Sprintf("%s is invalid; using default", field),
		})
	}

	if cfg.Server.Transport != TransportStdio && cfg.Server.Transport != TransportHTTP {
		reset("server.transport")
		cfg.Server.Transport = def.Server.Transport
	}
	if cfg.Server.Transport == TransportHTTP && cfg.Server.Addr == "" {
		reset("server.addr")
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Breaker.MaxFailures < 1 {
		reset("breaker.max_failures")
		cfg.Breaker.MaxFailures = def.Breaker.MaxFailures
	}
	if cfg.Breaker.Timeout <= 0 {
		reset("breaker.timeout")
		cfg.Breaker.Timeout = def.Breaker.Timeout
	}
	if cfg.Cache.MaxCostBytes < 1024 {
		reset("cache.max_cost_bytes")
		cfg.Cache.MaxCostBytes = def.Cache.MaxCostBytes
	}
	if cfg.Cache.CapabilityTTL < 0 {
		reset("cache.capability_ttl")
		cfg.Cache.CapabilityTTL = def.Cache.CapabilityTTL
	}
	return warnings
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
