package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	DataDir     string `toml:"data_dir"`
	DBPath      string `toml:"db_path"`
	HistoryPath string `toml:"history_path"`
	SocketPath  string `toml:"socket_path"`
	LogDir      string `toml:"log_dir"`
}

// Apps controls which applications are discovered and how they are ranked.
type Apps struct {
	Dirs         []string `toml:"dirs"`
	Patterns     []string `toml:"patterns"`
	HalfLifeDays float64  `toml:"half_life_days"`
	TermCmd      string   `toml:"term_cmd"`
}

// Watch controls the daemon's file watching.
type Watch struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for hopper.
//
// Configuration sections:
//   - Paths: registry, history, socket and log locations
//   - Apps: scanned directories, file patterns, half-life and terminal command
//   - Watch: debounce interval for change notifications
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Apps    Apps    `toml:"apps"`
	Watch   Watch   `toml:"watch"`
	Logging Logging `toml:"logging"`

	// Path is the resolved configuration file. It is set by Load even when
	// the file does not exist yet.
	Path string `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	xdg.Reload()
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}
	cfg.Path = resolvedPath

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath := DefaultConfigPath()
	projectPath, err := filepath.Abs(appName + ".toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// HalfLifeSeconds returns the configured score half-life in seconds.
func (c *Config) HalfLifeSeconds() float64 {
	return c.Apps.HalfLifeDays * secondsPerDay
}

// DebounceInterval returns the watcher debounce as a duration.
func (c *Config) DebounceInterval() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// TerminalCommand splits term_cmd into arguments. It returns nil when unset.
func (c *Config) TerminalCommand() []string {
	if strings.TrimSpace(c.Apps.TermCmd) == "" {
		return nil
	}
	return strings.Fields(c.Apps.TermCmd)
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		filepath.Dir(c.Paths.DBPath),
		filepath.Dir(c.Paths.HistoryPath),
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	pathValue = os.ExpandEnv(pathValue)
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if pathValue[1] == '/' {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
