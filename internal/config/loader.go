package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the expired-session sweep every ten minutes.
const DefaultSweepSchedule = "*/10 * * * *"

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// FindConfigPath returns the path to adgate.jsonc using precedence:
// 1. configDir + /adgate.jsonc (if configDir specified)
// 2. $ADGATE_HOME/adgate.jsonc
// 3. ./.adgate/adgate.jsonc (project-local)
// 4. ~/.adgate/adgate.jsonc (user global)
func FindConfigPath(configDir string) (string, error) {
	if configDir != "" {
		path := filepath.Join(configDir, ConfigFileName)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s not found in %s", ConfigFileName, configDir)
		}
		return absOrSelf(path), nil
	}

	var candidates []string
	if home := os.Getenv("ADGATE_HOME"); home != "" {
		candidates = append(candidates, filepath.Join(home, ConfigFileName))
	}
	candidates = append(candidates, filepath.Join(".adgate", ConfigFileName))
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".adgate", ConfigFileName))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return absOrSelf(path), nil
		}
	}
	return "", fmt.Errorf("%s not found; tried: %v", ConfigFileName, candidates)
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// LoadFile loads configuration from a single adgate.jsonc file
func LoadFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	var cfg Config
	if err := json.Unmarshal(StripJSONComments(data), &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	applyDefaults(&cfg)
	cfg.ConfigDir = filepath.Dir(configPath)
	return &cfg, nil
}

// Load finds and loads adgate.jsonc
func Load(configDir string) (*Config, error) {
	configPath, err := FindConfigPath(configDir)
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = "http://localhost" + cfg.Server.Address
	}

	if cfg.Sessions.SweepSchedule == "" {
		cfg.Sessions.SweepSchedule = DefaultSweepSchedule
	}

	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "https://graph.facebook.com"
	}
	if cfg.Upstream.APIVersion == "" {
		cfg.Upstream.APIVersion = "v21.0"
	}
	if cfg.Upstream.ResourceTokenTTL == 0 {
		cfg.Upstream.ResourceTokenTTL = Duration(10 * 60 * 1e9)
	}
	if cfg.Upstream.ResourceTokenCacheSize == 0 {
		cfg.Upstream.ResourceTokenCacheSize = 1024
	}

	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 20
	}
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	var errs []error

	if c.Sessions.Timeout < 0 {
		errs = append(errs, errors.New("sessions.timeout must not be negative"))
	}
	if err := ValidateCron(c.Sessions.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("sessions.sweep_schedule: %w", err))
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("upstream.base_url %q is not an absolute URL", c.Upstream.BaseURL))
	}
	if c.Upstream.ResourceTokenTTL < 0 || c.Upstream.RequestTimeout < 0 {
		errs = append(errs, errors.New("upstream durations must not be negative"))
	}
	if c.Upstream.ResourceTokenCacheSize < 0 {
		errs = append(errs, errors.New("upstream.resource_token_cache_size must not be negative"))
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate_limit requires positive requests_per_second and burst"))
	}

	return errors.Join(errs...)
}

// ValidateCron checks a standard 5-field cron expression or @descriptor.
func ValidateCron(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// DefaultFile is written by "adgate init".
const DefaultFile = `{
  // adgate gateway configuration
  "server": {
    "address": ":8080",
    "public_url": "http://localhost:8080"
  },
  "sessions": {
    // "0s" keeps sessions until logout or restart
    "timeout": "0s",
    "sweep_schedule": "*/10 * * * *"
  },
  "upstream": {
    "base_url": "https://graph.facebook.com",
    "api_version": "v21.0",
    "resource_token_ttl": "10m",
    "resource_token_cache_size": 1024,
    "request_timeout": "0s"
  },
  "auth": {
    "require_token": false
  },
  "rate_limit": {
    "enabled": false,
    "requests_per_second": 10,
    "burst": 20
  },
  "logging": {
    "json": false,
    "dir": ""
  }
}
`
