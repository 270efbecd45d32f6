package config

import (
	"errors"
	"fmt"
	"time"
)

// knownLogLevels are the accepted logging.log_level values.
var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks configuration values and returns all errors found. It
// accumulates every error rather than stopping at the first, so users see a
// complete report and can fix all issues in one pass.
//
// Mandatory credentials are NOT checked here: they may still arrive from the
// environment or CLI flags, and the request engine enforces them at
// construction time.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Logging.LogLevel != "" && !knownLogLevels[cfg.Logging.LogLevel] {
		errs = append(errs, fmt.Errorf("logging.log_level: unknown level %q", cfg.Logging.LogLevel))
	}

	if cfg.Network.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Network.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("network.timeout: %w", err))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("network.timeout: must be positive, got %q", cfg.Network.Timeout))
		}
	}

	return errors.Join(errs...)
}
