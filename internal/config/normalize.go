package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeApps(); err != nil {
		return err
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = defaultDebounceMillis
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = Default().Paths.DataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		c.Paths.DBPath = filepath.Join(c.Paths.DataDir, dbFileName)
	}
	if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryPath) == "" {
		c.Paths.HistoryPath = filepath.Join(c.Paths.DataDir, historyFileName)
	}
	if c.Paths.HistoryPath, err = expandPath(c.Paths.HistoryPath); err != nil {
		return fmt.Errorf("paths.history_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = Default().Paths.SocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = Default().Paths.LogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// normalizeApps expands directories and drops empty or repeated entries while
// keeping the configured order.
func (c *Config) normalizeApps() error {
	dirs := make([]string, 0, len(c.Apps.Dirs))
	for _, dir := range c.Apps.Dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		expanded, err := expandPath(dir)
		if err != nil {
			return fmt.Errorf("apps.dirs: %w", err)
		}
		if !slices.Contains(dirs, expanded) {
			dirs = append(dirs, expanded)
		}
	}
	c.Apps.Dirs = dirs

	patterns := make([]string, 0, len(c.Apps.Patterns))
	for _, pattern := range c.Apps.Patterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	if len(patterns) == 0 {
		patterns = append(patterns, DefaultPatterns...)
	}
	c.Apps.Patterns = patterns
	c.Apps.TermCmd = strings.TrimSpace(c.Apps.TermCmd)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
