package config

import (
	"github.com/shelfwatch/shelfwatch"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options carry every configured setting; optional fields
// (title, state file) are only included when set. Validation of the
// resulting combination happens in shelfwatch.New.
func BuildOptions(cfg *Config) []shelfwatch.Option {
	opts := []shelfwatch.Option{
		shelfwatch.WithServer(cfg.URL, cfg.APIKey),
		shelfwatch.WithScanInterval(cfg.ScanInterval.Duration()),
		shelfwatch.WithPort(cfg.Port),
	}

	if cfg.Title != "" {
		opts = append(opts, shelfwatch.WithTitle(cfg.Title))
	}

	if cfg.StateFile != "" {
		opts = append(opts, shelfwatch.WithStateFile(cfg.StateFile))
	}

	return opts
}
