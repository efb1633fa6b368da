// Package config provides YAML configuration parsing for ShelfWatch.
//
// This package enables running ShelfWatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Living Room Audiobookshelf
//	port: 8080
//
//	url: http://audiobookshelf.local:13378
//	api_key: ${ABS_API_KEY}
//	scan_interval: 300
//
//	state_file: /var/lib/shelfwatch/states.json
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minScanInterval is the minimum allowed scan interval for production configs.
// This prevents accidental DoS of the media server with overly aggressive polling.
const minScanInterval = 1 * time.Second

// redactedPlaceholder replaces the API key in redacted config output.
const redactedPlaceholder = "<redacted>"

// Config is the root configuration structure for ShelfWatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "ShelfWatch" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// URL is the Audiobookshelf server address.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// APIKey is the Audiobookshelf API token sent as a bearer token.
	// Values support environment variable substitution.
	APIKey string `yaml:"api_key"`

	// ScanInterval is the time between refresh cycles against the server.
	// Accepts plain integers (seconds) or duration strings like "5m", "90s".
	// Defaults to 300 seconds.
	ScanInterval Duration `yaml:"scan_interval"`

	// StateFile is an optional path where sensor states are persisted
	// between restarts. Supports environment variable substitution.
	StateFile string `yaml:"state_file"`
}

// Duration wraps time.Duration for YAML unmarshalling.
//
// Plain integers are interpreted as seconds, matching how scan intervals
// are conventionally written in home automation configs. Duration strings
// ("5m", "90s") are also accepted.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	// bare integers mean seconds
	var secs int
	if err := node.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL, APIKey, and StateFile values.
// Defaults are applied for Port (8080) and ScanInterval (300s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = Duration(300 * time.Second)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.ScanInterval.Duration() < minScanInterval {
		return fmt.Errorf("scan_interval must be at least %s, got %s", minScanInterval, c.ScanInterval.Duration())
	}

	if c.URL == "" {
		return fmt.Errorf("url is required")
	}
	expanded, err := expandEnvVars(c.URL)
	if err != nil {
		return fmt.Errorf("url: %w", err)
	}
	c.URL = expanded

	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	expanded, err = expandEnvVars(c.APIKey)
	if err != nil {
		return fmt.Errorf("api_key: %w", err)
	}
	c.APIKey = expanded

	if c.StateFile != "" {
		expanded, err = expandEnvVars(c.StateFile)
		if err != nil {
			return fmt.Errorf("state_file: %w", err)
		}
		c.StateFile = expanded
	}

	return nil
}

// Redacted returns a copy of the config safe for logging and display.
// The API key is replaced with a placeholder.
func (c *Config) Redacted() Config {
	redacted := *c
	if redacted.APIKey != "" {
		redacted.APIKey = redactedPlaceholder
	}
	return redacted
}
