package hotreload

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"hopper/internal/logging"
)

// DefaultDebounce is the quiet period used when WithDebounce is not called.
const DefaultDebounce = time.Second

// Callback is run on the dispatch goroutine after a debounced change.
// Invoke must be safe to call from a goroutine the caller does not own.
type Callback interface {
	Invoke()
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func()

// Invoke calls f.
func (f CallbackFunc) Invoke() { f() }

// Builder collects the watch groups before Start.
type Builder struct {
	configPath string
	configCB   Callback
	appDirs    []string
	appsCB     Callback
	debounce   time.Duration
	logger     *slog.Logger
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{debounce: DefaultDebounce}
}

// Config watches the configuration file at path. Editors that save by
// renaming a temporary file are handled because the parent directory is
// watched and events are filtered by name.
func (b *Builder) Config(path string, cb Callback) *Builder {
	b.configPath = filepath.Clean(path)
	b.configCB = cb
	return b
}

// Apps watches dirs and all of their subdirectories.
func (b *Builder) Apps(dirs []string, cb Callback) *Builder {
	b.appDirs = slices.Clone(dirs)
	b.appsCB = cb
	return b
}

// WithDebounce sets the quiet period. Non-positive values keep the default.
func (b *Builder) WithDebounce(d time.Duration) *Builder {
	if d > 0 {
		b.debounce = d
	}
	return b
}

// WithLogger sets the logger. A nil logger discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Start creates the watchers and launches the relay and dispatch
// goroutines. It panics when neither Config nor Apps supplied a callback.
// Directories that do not exist are skipped with a warning.
func (b *Builder) Start() (*Handle, error) {
	if b.configCB == nil && b.appsCB == nil {
		panic("hotreload: Start called without any callbacks")
	}
	logger := logging.NewComponentLogger(b.logger, "hotreload")
	h := &Handle{logger: logger}

	if b.configCB != nil {
		g, err := newGroup("config", b.debounce, false, logger)
		if err != nil {
			return nil, err
		}
		configPath := b.configPath
		g.match = func(name string) bool { return filepath.Clean(name) == configPath }
		_ = g.subscribeRoots([]string{filepath.Dir(b.configPath)})
		h.config, h.configCB = g, b.configCB
	}
	if b.appsCB != nil {
		g, err := newGroup("apps", b.debounce, true, logger)
		if err != nil {
			if h.config != nil {
				_ = h.config.watcher.Close()
			}
			return nil, err
		}
		_ = g.subscribeRoots(b.appDirs)
		h.apps, h.appsCB = g, b.appsCB
	}

	var configPulses, appsPulses <-chan struct{}
	for _, g := range []*group{h.config, h.apps} {
		if g == nil {
			continue
		}
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			g.relay()
		}()
	}
	if h.config != nil {
		configPulses = h.config.pulses
	}
	if h.apps != nil {
		appsPulses = h.apps.pulses
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.dispatch(configPulses, appsPulses)
	}()

	logger.Debug("watchers started",
		logging.Bool("config", h.config != nil),
		logging.Bool("apps", h.apps != nil),
		logging.Duration("debounce", b.debounce))
	return h, nil
}

// Handle controls running watchers.
type Handle struct {
	config   *group
	configCB Callback
	apps     *group
	appsCB   Callback
	logger   *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// dispatch runs callbacks until either pulse channel closes. A nil channel
// stands for an unconfigured group and never becomes ready.
func (h *Handle) dispatch(configPulses, appsPulses <-chan struct{}) {
	for {
		select {
		case _, ok := <-configPulses:
			if !ok {
				return
			}
			h.logger.Debug("config change detected")
			h.configCB.Invoke()
		case _, ok := <-appsPulses:
			if !ok {
				return
			}
			h.logger.Debug("application directory change detected")
			h.appsCB.Invoke()
		}
	}
}

// Rewatch replaces the watched application directories with dirs. It is a
// no-op when no apps callback was configured.
func (h *Handle) Rewatch(dirs []string) error {
	if h.apps == nil {
		return nil
	}
	h.apps.unsubscribeAll()
	if err := h.apps.subscribeRoots(dirs); err != nil {
		return fmt.Errorf("rewatch application directories: %w", err)
	}
	h.logger.Info("application directories rewatched", logging.Strings("dirs", h.apps.roots()))
	return nil
}

// Watched returns the application directories currently subscribed.
func (h *Handle) Watched() []string {
	if h.apps == nil {
		return nil
	}
	return h.apps.roots()
}

// Close stops the watchers and waits for every goroutine, including a
// callback that is running, to finish. Later calls return the first result.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		var errs []error
		for _, g := range []*group{h.config, h.apps} {
			if g == nil {
				continue
			}
			if err := g.watcher.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s watcher: %w", g.name, err))
			}
		}
		h.wg.Wait()
		h.closeErr = errors.Join(errs...)
		h.logger.Debug("watchers stopped")
	})
	return h.closeErr
}
