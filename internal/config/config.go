// Package config provides hierarchical configuration loading for editorbridge.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// DefaultBackendURL is the local automation endpoint used when no URL is
// configured or when a configured URL is rejected.
const DefaultBackendURL = "http://127.0.0.1:7400"

// Server transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all runtime configuration for the bridge process.
type Config struct {
	Server    Server    `yaml:"server"`
	Backend   Backend   `yaml:"backend"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Cache     Cache     `yaml:"cache"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// Server holds the inbound MCP surface configuration.
type Server struct {
	Transport string `yaml:"transport"` // "stdio" | "http" (default: "stdio")
	Addr      string `yaml:"addr"`      // listen address for the http transport
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	AuthToken string `yaml:"auth_token"` // bearer token for the http transport; empty disables auth
}

// Backend holds the editor automation endpoint settings. These feed the
// reloadable Snapshot; everything else in Config is read once at startup.
type Backend struct {
	URL              string `yaml:"url"`
	AllowRemote      bool   `yaml:"allow_remote"`
	StrictLocalOnly  bool   `yaml:"strict_local_only"`
	UnsafeInvoke     bool   `yaml:"unsafe_invoke"`
	DefaultTimeoutMs int    `yaml:"default_timeout_ms"`
	MaxTimeoutMs     int    `yaml:"max_timeout_ms"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Format  string `yaml:"format"` // "json" | "text" | "auto"
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for backend calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Cache holds the capability cache configuration.
type Cache struct {
	MaxCostBytes  int64         `yaml:"max_cost_bytes"`
	CapabilityTTL time.Duration `yaml:"capability_ttl"`
}

// Telemetry holds OpenTelemetry export configuration.
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"` // empty disables export
	Insecure     bool   `yaml:"insecure"`
}

// Defaults returns a Config with safe local values.
func Defaults() Config {
	return Config{
		Server: Server{
			Transport: TransportStdio,
			Addr:      "127.0.0.1:7401",
			Name:      "editorbridge",
			Version:   "0.1.0",
		},
		Backend: Backend{
			URL:              DefaultBackendURL,
			DefaultTimeoutMs: 30_000,
			MaxTimeoutMs:     300_000,
		},
		Logging: Logging{
			Level:   "info",
			Service: "editorbridge",
			Format:  "auto",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     15 * time.Second,
		},
		Cache: Cache{
			MaxCostBytes:  1 << 20,
			CapabilityTTL: 30 * time.Second,
		},
		Telemetry: Telemetry{
			Insecure: true,
		},
	}
}
