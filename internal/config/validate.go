package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateApps(); err != nil {
		return err
	}
	if c.Watch.DebounceMS < 0 {
		return errors.New("watch.debounce_ms must not be negative")
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateApps() error {
	if len(c.Apps.Dirs) == 0 {
		return errors.New("apps.dirs must list at least one directory")
	}
	half := c.Apps.HalfLifeDays
	if math.IsNaN(half) || math.IsInf(half, 0) || half <= 0 {
		return fmt.Errorf("apps.half_life_days must be a positive number, got %v", half)
	}
	for _, pattern := range c.Apps.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("apps.patterns: invalid pattern %q", pattern)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
