package appsdb

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"hopper/internal/apps"
	"hopper/internal/config"
	"hopper/internal/dbfile"
	"hopper/internal/frecency"
	"hopper/internal/logging"
	"hopper/internal/scan"
)

// halfLifeEpsilon is the largest half-life difference, in seconds, for which
// a persisted registry is still considered compatible with the configuration.
const halfLifeEpsilon = 1e-6

// State is the durable registry content.
type State = dbfile.State

// Clock returns the current wall-clock time.
type Clock func() time.Time

// Options configures a Registry.
type Options struct {
	AppDirs  []string
	HalfLife float64 // seconds
	DBPath   string
	Clock    Clock
}

// OptionsFromConfig derives registry options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AppDirs:  slices.Clone(cfg.Apps.Dirs),
		HalfLife: cfg.HalfLifeSeconds(),
		DBPath:   cfg.Paths.DBPath,
	}
}

// Registry is the in-memory application list with its persistence.
type Registry struct {
	apps      []apps.App
	reference float64
	halfLife  float64
	dirs      []string

	source scan.Source
	store  *dbfile.Store
	clock  Clock
	logger *slog.Logger
}

// Init loads the registry from store, or builds it from a fresh scan when no
// saved state exists or the saved half-life differs from opts.HalfLife. A
// loaded registry is immediately rescanned and merged. The result is saved
// before Init returns. A nil store means dbfile.New(opts.DBPath).
//
// The returned error slice holds non-fatal scan errors.
func Init(opts Options, source scan.Source, store *dbfile.Store, logger *slog.Logger) (*Registry, []error, error) {
	if source == nil {
		return nil, nil, errors.New("appsdb: scan source is required")
	}
	if math.IsNaN(opts.HalfLife) || math.IsInf(opts.HalfLife, 0) || opts.HalfLife <= 0 {
		return nil, nil, fmt.Errorf("appsdb: half-life must be positive, got %v", opts.HalfLife)
	}
	if store == nil {
		if opts.DBPath == "" {
			return nil, nil, errors.New("appsdb: database path is required")
		}
		store = dbfile.New(opts.DBPath)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	r := &Registry{
		halfLife: opts.HalfLife,
		dirs:     slices.Clone(opts.AppDirs),
		source:   source,
		store:    store,
		clock:    clock,
		logger:   logging.NewComponentLogger(logger, "appsdb"),
	}

	var scanErrs []error
	loaded := false
	if store.Exists() {
		state, err := store.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load registry: %w", err)
		}
		if math.Abs(state.HalfLife-opts.HalfLife) < halfLifeEpsilon {
			r.apps = state.Apps
			r.reference = state.ReferenceTime
			loaded = true
			r.logger.Debug("registry loaded",
				logging.String("path", store.Path),
				logging.Int("app_count", len(r.apps)))
		} else {
			r.logger.Info("resetting registry due to altered half-life",
				logging.String(logging.FieldEventType, "registry_reset"),
				logging.Float64("old_half_life", state.HalfLife),
				logging.Float64("new_half_life", opts.HalfLife))
		}
	}

	if loaded {
		scanErrs = r.rescan()
	} else {
		found, errs := source.Scan(slices.Clone(r.dirs))
		r.apps = apps.SortAndDedup(found)
		for i := range r.apps {
			r.apps[i].Score = 0
		}
		r.reference = unixSeconds(clock())
		scanErrs = errs
	}

	if err := r.save(); err != nil {
		return nil, scanErrs, err
	}
	return r, scanErrs, nil
}

// RecordLaunch adds one launch to the record with app.ID and saves the
// registry. The record must be present; callers validate untrusted IDs with
// Lookup first.
func (r *Registry) RecordLaunch(app apps.App) error {
	idx := r.index(app.ID)
	if idx < 0 {
		panic(fmt.Sprintf("appsdb: launch recorded for unknown app id %q", app.ID))
	}
	rec := &r.apps[idx]
	rec.Score = frecency.ApplyLaunch(rec.Score, r.elapsed(), r.halfLife, frecency.LaunchWeight)
	r.logger.Debug("launch recorded",
		logging.String(logging.FieldAppID, rec.ID),
		logging.String("name", rec.Name),
		logging.Float64("score", rec.Score))
	r.sort()
	return r.save()
}

// Rescan scans the configured directories, merges the result and saves.
func (r *Registry) Rescan() ([]error, error) {
	errs := r.rescan()
	if err := r.save(); err != nil {
		return errs, err
	}
	return errs, nil
}

func (r *Registry) rescan() []error {
	found, errs := r.source.Scan(slices.Clone(r.dirs))
	r.Merge(found)
	if len(errs) > 0 {
		logging.WarnWithContext(r.logger, "scan reported problems", "scan_errors",
			logging.Int("error_count", len(errs)),
			logging.String(logging.FieldErrorHint, "run hopper doctor or check the listed entries"),
			logging.String(logging.FieldImpact, "affected entries are missing from the registry"))
	}
	return errs
}

// Merge reconciles the registry with a freshly scanned list; see Merge.
func (r *Registry) Merge(incoming []apps.App) {
	before := len(r.apps)
	r.apps = Merge(r.apps, incoming)
	r.sort()
	r.logger.Debug("registry merged",
		logging.Int("before", before),
		logging.Int("incoming", len(incoming)),
		logging.Int("after", len(r.apps)))
}

// Lookup returns a copy of the record with id.
func (r *Registry) Lookup(id string) (apps.App, bool) {
	idx := r.index(id)
	if idx < 0 {
		return apps.App{}, false
	}
	return r.apps[idx].Clone(), true
}

// Apps returns a copy of every record in stored order.
func (r *Registry) Apps() []apps.App {
	out := make([]apps.App, len(r.apps))
	for i, app := range r.apps {
		out[i] = app.Clone()
	}
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int { return len(r.apps) }

// ReferenceTime returns the unix time, in seconds, stored scores are relative to.
func (r *Registry) ReferenceTime() float64 { return r.reference }

// HalfLife returns the decay half-life in seconds.
func (r *Registry) HalfLife() float64 { return r.halfLife }

// AppDirs returns the directories scanned by Rescan.
func (r *Registry) AppDirs() []string { return slices.Clone(r.dirs) }

// SetAppDirs replaces the directories scanned by later rescans.
func (r *Registry) SetAppDirs(dirs []string) { r.dirs = slices.Clone(dirs) }

// DBPath returns the registry file location.
func (r *Registry) DBPath() string { return r.store.Path }

// State returns the durable content of the registry.
func (r *Registry) State() State {
	return State{Apps: r.Apps(), ReferenceTime: r.reference, HalfLife: r.halfLife}
}

func (r *Registry) save() error {
	if err := r.store.Save(r.State()); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.apps, func(app apps.App) bool { return app.ID == id })
}

// elapsed returns seconds since the reference time. Clock skew backwards is
// clamped to zero.
func (r *Registry) elapsed() float64 {
	return max(unixSeconds(r.clock())-r.reference, 0)
}

func (r *Registry) sort() {
	slices.SortStableFunc(r.apps, func(a, b apps.App) int {
		return frecency.Descending(a.Score, b.Score)
	})
}

// unixSeconds converts t to fractional unix seconds with millisecond precision.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
