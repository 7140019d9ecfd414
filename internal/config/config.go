package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConfigFileName is the name of the single gateway configuration file.
const ConfigFileName = "adgate.jsonc"

// Config is the adgate.jsonc file format
type Config struct {
	Server    ServerSection    `json:"server"`
	Sessions  SessionsSection  `json:"sessions"`
	Upstream  UpstreamSection  `json:"upstream"`
	Auth      AuthSection      `json:"auth"`
	RateLimit RateLimitSection `json:"rate_limit"`
	Logging   LoggingSection   `json:"logging"`

	// ConfigDir is the directory the file was loaded from. Not serialized.
	ConfigDir string `json:"-"`
}

// ServerSection contains listener configuration
type ServerSection struct {
	Address string `json:"address"`
	// PublicURL is the externally reachable base URL, used when telling a
	// freshly authenticated tenant which endpoints to call next.
	PublicURL string `json:"public_url"`
}

// SessionsSection controls tenant session lifetime
type SessionsSection struct {
	// Timeout is the idle timeout. Zero means sessions never expire.
	Timeout       Duration `json:"timeout"`
	SweepSchedule string   `json:"sweep_schedule"`
}

// UpstreamSection describes the advertising platform API
type UpstreamSection struct {
	BaseURL                string   `json:"base_url"`
	APIVersion             string   `json:"api_version"`
	ResourceTokenTTL       Duration `json:"resource_token_ttl"`
	ResourceTokenCacheSize int      `json:"resource_token_cache_size"`
	// RequestTimeout of zero leaves upstream calls without a client-side deadline.
	RequestTimeout Duration `json:"request_timeout"`
}

// AuthSection configures gateway access tokens
type AuthSection struct {
	RequireToken bool `json:"require_token"`
}

// RateLimitSection configures the optional per-key limiter
type RateLimitSection struct {
	Enabled           bool    `json:"enabled"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

// LoggingSection configures structured log output
type LoggingSection struct {
	JSON bool `json:"json"`
	// Dir, when set, receives daily log files in addition to stdout.
	Dir string `json:"dir"`
}

// Duration is a time.Duration that reads Go duration strings ("10m", "1h30m")
// or plain integers (nanoseconds) from JSON.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v))
	case nil:
		*d = 0
	default:
		return fmt.Errorf("invalid duration %v", raw)
	}
	return nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
