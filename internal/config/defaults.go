package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName               = "hopper"
	defaultHalfLifeDays   = 7.0
	defaultDebounceMillis = 1000
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	dbFileName            = "apps.db"
	historyFileName       = "history.db"
	socketFileName        = "hopper.sock"
	secondsPerDay         = 24 * 60 * 60
)

// DefaultAppDirs lists the directories scanned for desktop entries when the
// configuration does not name any.
var DefaultAppDirs = []string{
	"/usr/share/applications",
	"~/.local/share/applications",
	"/var/lib/snapd/desktop/applications",
	"/var/lib/flatpak/exports/share/applications",
}

// DefaultPatterns selects desktop entry files.
var DefaultPatterns = []string{"*.desktop"}

// Default returns a Config populated with repository defaults. Derived paths
// (db_path, history_path) stay empty until normalization fills them from
// data_dir.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    filepath.Join(xdg.DataHome, appName),
			SocketPath: filepath.Join(xdg.RuntimeDir, socketFileName),
			LogDir:     filepath.Join(xdg.StateHome, appName, "logs"),
		},
		Apps: Apps{
			Dirs:         append([]string(nil), DefaultAppDirs...),
			Patterns:     append([]string(nil), DefaultPatterns...),
			HalfLifeDays: defaultHalfLifeDays,
		},
		Watch: Watch{
			DebounceMS: defaultDebounceMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
