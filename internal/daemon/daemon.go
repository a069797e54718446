package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"hopper/internal/apps"
	"hopper/internal/appsdb"
	"hopper/internal/config"
	"hopper/internal/history"
	"hopper/internal/hotreload"
	"hopper/internal/logging"
	"hopper/internal/runner"
	"hopper/internal/scan"
)

// ErrAlreadyRunning is returned by Start when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another hopper daemon instance is already running")

// ErrNotRunning is returned by operations that need a started daemon.
var ErrNotRunning = errors.New("daemon is not running")

// ErrUnknownApp is returned by Launch for an ID the registry does not hold.
var ErrUnknownApp = errors.New("unknown application")

// Launcher starts applications. *runner.Runner satisfies it.
type Launcher interface {
	Run(app apps.App) (int, error)
}

// ConfigLoader reloads configuration from path.
type ConfigLoader func(path string) (*config.Config, error)

// Option customizes a Daemon.
type Option func(*Daemon)

// WithLauncher replaces the runner built from the configuration.
func WithLauncher(l Launcher) Option {
	return func(d *Daemon) {
		d.launcher = l
		d.fixedLauncher = true
	}
}

// WithConfigLoader replaces config.Load for reloads.
func WithConfigLoader(load ConfigLoader) Option {
	return func(d *Daemon) {
		d.loadConfig = load
	}
}

// WithClock sets the registry clock.
func WithClock(clock appsdb.Clock) Option {
	return func(d *Daemon) {
		d.clock = clock
	}
}

// Daemon holds the registry and serves launches until stopped.
type Daemon struct {
	logger *slog.Logger

	mu            sync.Mutex
	cfg           *config.Config
	registry      *appsdb.Registry
	launcher      Launcher
	fixedLauncher bool
	history       *history.Store
	lastRescan    time.Time
	lastError     string
	scanErrors    int

	watch      *hotreload.Handle
	loadConfig ConfigLoader
	clock      appsdb.Clock

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	done      chan struct{}
	stopOnce  sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	StartedAt     time.Time
	ConfigPath    string
	DBPath        string
	HistoryPath   string
	LockPath      string
	AppDirs       []string
	Watched       []string
	AppCount      int
	HalfLife      float64
	ReferenceTime float64
	LastRescan    time.Time
	ScanErrors    int
	LastError     string
}

// New constructs a daemon. The history store may be nil.
func New(cfg *config.Config, hist *history.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if cfg.Paths.SocketPath == "" {
		return nil, errors.New("daemon requires a socket path")
	}
	lockPath := cfg.Paths.SocketPath + ".lock"
	d := &Daemon{
		logger:     logging.NewComponentLogger(logger, "daemon"),
		cfg:        cfg,
		history:    hist,
		loadConfig: reloadConfig,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.launcher == nil {
		d.launcher = runner.New(cfg.TerminalCommand(), logger)
	}
	return d, nil
}

func reloadConfig(path string) (*config.Config, error) {
	cfg, _, _, err := config.Load(path)
	return cfg, err
}

// Start acquires the daemon lock, loads the registry and begins watching
// the configuration file and application directories.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.mu.Lock()
	registry, err := d.initRegistry(d.cfg)
	if err != nil {
		d.mu.Unlock()
		_ = d.lock.Unlock()
		return err
	}
	d.registry = registry
	cfg := d.cfg
	d.mu.Unlock()

	watch, err := hotreload.New().
		Config(cfg.Path, hotreload.CallbackFunc(d.onConfigChange)).
		Apps(cfg.Apps.Dirs, hotreload.CallbackFunc(d.onAppsChange)).
		WithDebounce(cfg.DebounceInterval()).
		WithLogger(d.logger).
		Start()
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start watcher: %w", err)
	}

	d.mu.Lock()
	d.watch = watch
	d.mu.Unlock()
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("hopper daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.Int("app_count", registry.Len()))
	return nil
}

// initRegistry must be called with d.mu held.
func (d *Daemon) initRegistry(cfg *config.Config) (*appsdb.Registry, error) {
	opts := appsdb.OptionsFromConfig(cfg)
	opts.Clock = d.clock
	source := scan.NewScanner(cfg.Apps.Patterns, d.logger)
	registry, scanErrs, err := appsdb.Init(opts, source, nil, d.logger)
	if err != nil {
		d.lastError = err.Error()
		return nil, fmt.Errorf("init registry: %w", err)
	}
	d.lastRescan = time.Now()
	d.scanErrors = len(scanErrs)
	return registry, nil
}

// Stop releases the watcher and the lock and signals Done. It is safe to call
// more than once.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		watch := d.watch
		d.watch = nil
		d.mu.Unlock()

		// Close waits for a running callback, which takes d.mu.
		if watch != nil {
			if err := watch.Close(); err != nil {
				d.logger.Warn("failed to close watcher", logging.Error(err))
			}
		}
		if d.running.Load() {
			if err := d.lock.Unlock(); err != nil {
				d.logger.Warn("failed to release daemon lock", logging.Error(err))
			}
			d.running.Store(false)
			d.logger.Info("hopper daemon stopped",
				logging.String(logging.FieldEventType, "daemon_stop"))
		}
		close(d.done)
	})
}

// Done is closed once Stop has run.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// Close stops the daemon and closes the history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.history != nil {
		return d.history.Close()
	}
	return nil
}

// Query ranks applications against search.
func (d *Daemon) Query(_ context.Context, search string, limit int) ([]apps.App, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.registry == nil {
		return nil, ErrNotRunning
	}
	return d.registry.RankedQuery(search, limit), nil
}

// Launch starts the application with the given ID, records the launch in
// the registry and appends it to the history.
func (d *Daemon) Launch(ctx context.Context, id string) (apps.App, int, error) {
	d.mu.Lock()
	if d.registry == nil {
		d.mu.Unlock()
		return apps.App{}, 0, ErrNotRunning
	}
	app, ok := d.registry.Lookup(id)
	if !ok {
		d.mu.Unlock()
		return apps.App{}, 0, fmt.Errorf("%w: %s", ErrUnknownApp, id)
	}
	pid, err := d.launcher.Run(app)
	if err != nil {
		d.lastError = err.Error()
		d.mu.Unlock()
		return app, 0, err
	}
	recordErr := d.registry.RecordLaunch(app)
	if recordErr != nil {
		d.lastError = recordErr.Error()
	}
	hist := d.history
	d.mu.Unlock()

	if recordErr != nil {
		return app, pid, fmt.Errorf("record launch: %w", recordErr)
	}
	if hist != nil {
		if _, err := hist.Record(ctx, history.NewEntry(app, pid, time.Now())); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, d.logger), "failed to append launch history", "history_record_failed",
				logging.String(logging.FieldAppID, app.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "launch is missing from hopper history"),
			)
		}
	}
	return app, pid, nil
}

// Rescan rescans the configured directories and merges the result.
func (d *Daemon) Rescan(_ context.Context) (int, []error, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rescanLocked()
}

func (d *Daemon) rescanLocked() (int, []error, error) {
	if d.registry == nil {
		return 0, nil, ErrNotRunning
	}
	scanErrs, err := d.registry.Rescan()
	d.scanErrors = len(scanErrs)
	if err != nil {
		d.lastError = err.Error()
		return d.registry.Len(), scanErrs, err
	}
	d.lastRescan = time.Now()
	return d.registry.Len(), scanErrs, nil
}

// History returns recent launches and per-app totals.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Entry, []history.Count, error) {
	if d.history == nil {
		return nil, nil, errors.New("launch history unavailable")
	}
	entries, err := d.history.Recent(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	counts, err := d.history.Counts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return entries, counts, nil
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Status returns the current daemon status.
func (d *Daemon) Status(_ context.Context) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	status := Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		StartedAt:  d.startedAt,
		ConfigPath: d.cfg.Path,
		DBPath:     d.cfg.Paths.DBPath,
		LockPath:   d.lockPath,
		LastRescan: d.lastRescan,
		ScanErrors: d.scanErrors,
		LastError:  d.lastError,
	}
	if d.history != nil {
		status.HistoryPath = d.history.Path()
	}
	if d.registry != nil {
		status.AppDirs = d.registry.AppDirs()
		status.AppCount = d.registry.Len()
		status.HalfLife = d.registry.HalfLife()
		status.ReferenceTime = d.registry.ReferenceTime()
	}
	if d.watch != nil {
		status.Watched = d.watch.Watched()
	}
	return status
}

func (d *Daemon) onAppsChange() {
	d.logger.Debug("application directories changed")
	d.mu.Lock()
	defer d.mu.Unlock()
	count, scanErrs, err := d.rescanLocked()
	if err != nil {
		logging.ErrorWithContext(d.logger, "rescan after directory change failed", "rescan_failed",
			logging.Error(err))
		return
	}
	d.logger.Info("registry rescanned",
		logging.String(logging.FieldEventType, "rescan"),
		logging.Int("app_count", count),
		logging.Int("scan_errors", len(scanErrs)))
}

func (d *Daemon) onConfigChange() {
	d.mu.Lock()
	path := d.cfg.Path
	d.mu.Unlock()

	next, err := d.loadConfig(path)
	if err != nil {
		d.mu.Lock()
		d.lastError = err.Error()
		d.mu.Unlock()
		logging.WarnWithContext(d.logger, "config reload failed; keeping previous configuration", "config_reload_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the config file; it is reloaded on the next save"))
		return
	}

	d.mu.Lock()
	prev := d.cfg
	d.cfg = next
	if !d.fixedLauncher {
		d.launcher = runner.New(next.TerminalCommand(), d.logger)
	}

	rebuild := d.registry == nil ||
		prev.HalfLifeSeconds() != next.HalfLifeSeconds() ||
		!slices.Equal(prev.Apps.Patterns, next.Apps.Patterns) ||
		prev.Paths.DBPath != next.Paths.DBPath
	if rebuild {
		registry, err := d.initRegistry(next)
		if err != nil {
			d.logger.Error("registry rebuild after config change failed",
				logging.String(logging.FieldEventType, "registry_rebuild_failed"),
				logging.Error(err))
		} else {
			d.registry = registry
		}
	} else {
		d.registry.SetAppDirs(next.Apps.Dirs)
		if _, _, err := d.rescanLocked(); err != nil {
			d.logger.Error("rescan after config change failed",
				logging.String(logging.FieldEventType, "rescan_failed"),
				logging.Error(err))
		}
	}
	watch := d.watch
	d.mu.Unlock()

	if watch != nil {
		if err := watch.Rewatch(next.Apps.Dirs); err != nil {
			d.logger.Warn("failed to switch watched directories",
				logging.String(logging.FieldEventType, "rewatch_failed"),
				logging.Error(err))
		}
	}
	d.logger.Info("configuration reloaded",
		logging.String(logging.FieldEventType, "config_reload"),
		logging.String("path", path),
		logging.Bool("registry_rebuilt", rebuild),
		logging.Strings("app_dirs", next.Apps.Dirs))
}

