package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/cases"

	"hopper/internal/apps"
	"hopper/internal/appsdb"
	"hopper/internal/config"
	"hopper/internal/history"
	"hopper/internal/ipc"
	"hopper/internal/logging"
	"hopper/internal/runner"
	"hopper/internal/scan"
)

// backend is the registry as seen by one CLI command: either the daemon
// over IPC or the registry file opened in-process.
type backend interface {
	Query(search string, limit int) ([]apps.App, error)
	Launch(id string) (apps.App, int, error)
	Rescan() (int, []string, error)
	History(limit int) ([]history.Entry, []history.Count, error)
	Close() error
}

// openBackend prefers a running daemon unless --local is set.
func (c *commandContext) openBackend() (backend, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !c.forceLocal() {
		if client, err := ipc.Dial(cfg.Paths.SocketPath); err == nil {
			return &ipcBackend{client: client}, nil
		}
	}
	return openLocalBackend(cfg, c.commandLogger())
}

type ipcBackend struct {
	client *ipc.Client
}

func (b *ipcBackend) Query(search string, limit int) ([]apps.App, error) {
	resp, err := b.client.Query(search, limit)
	if err != nil {
		return nil, err
	}
	return resp.Apps, nil
}

func (b *ipcBackend) Launch(id string) (apps.App, int, error) {
	resp, err := b.client.Launch(id)
	if err != nil {
		return apps.App{}, 0, err
	}
	return resp.App, resp.PID, nil
}

func (b *ipcBackend) Rescan() (int, []string, error) {
	resp, err := b.client.Rescan()
	if err != nil {
		return 0, nil, err
	}
	return resp.Apps, resp.Errors, nil
}

func (b *ipcBackend) History(limit int) ([]history.Entry, []history.Count, error) {
	resp, err := b.client.History(limit)
	if err != nil {
		return nil, nil, err
	}
	return resp.Entries, resp.Counts, nil
}

func (b *ipcBackend) Close() error {
	return b.client.Close()
}

type localBackend struct {
	registry *appsdb.Registry
	runner   *runner.Runner
	history  *history.Store
	logger   *slog.Logger
}

func openLocalBackend(cfg *config.Config, logger *slog.Logger) (*localBackend, error) {
	source := scan.NewScanner(cfg.Apps.Patterns, logger)
	registry, _, err := appsdb.Init(appsdb.OptionsFromConfig(cfg), source, nil, logger)
	if err != nil {
		return nil, err
	}
	hist, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		logging.WarnWithContext(logger, "launch history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this launch is not journaled"))
		hist = nil
	}
	return &localBackend{
		registry: registry,
		runner:   runner.New(cfg.TerminalCommand(), logger),
		history:  hist,
		logger:   logger,
	}, nil
}

func (b *localBackend) Query(search string, limit int) ([]apps.App, error) {
	return b.registry.RankedQuery(search, limit), nil
}

func (b *localBackend) Launch(id string) (apps.App, int, error) {
	app, ok := b.registry.Lookup(id)
	if !ok {
		return apps.App{}, 0, fmt.Errorf("unknown application: %s", id)
	}
	pid, err := b.runner.Run(app)
	if err != nil {
		return app, 0, err
	}
	if err := b.registry.RecordLaunch(app); err != nil {
		return app, pid, fmt.Errorf("record launch: %w", err)
	}
	if b.history != nil {
		if _, err := b.history.Record(context.Background(), history.NewEntry(app, pid, time.Now())); err != nil {
			logging.WarnWithContext(b.logger, "failed to append launch history", "history_record_failed",
				logging.Error(err))
		}
	}
	return app, pid, nil
}

func (b *localBackend) Rescan() (int, []string, error) {
	scanErrs, err := b.registry.Rescan()
	messages := make([]string, 0, len(scanErrs))
	for _, scanErr := range scanErrs {
		messages = append(messages, scanErr.Error())
	}
	return b.registry.Len(), messages, err
}

func (b *localBackend) History(limit int) ([]history.Entry, []history.Count, error) {
	if b.history == nil {
		return nil, nil, errors.New("launch history unavailable")
	}
	ctx := context.Background()
	entries, err := b.history.Recent(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	counts, err := b.history.Counts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return entries, counts, nil
}

func (b *localBackend) Close() error {
	return b.history.Close()
}

// resolveApp finds the application named by arg: an exact ID, then a
// case-insensitive exact name, then the best ranked match.
func resolveApp(b backend, arg string) (apps.App, error) {
	all, err := b.Query("", 0)
	if err != nil {
		return apps.App{}, err
	}
	for _, app := range all {
		if app.ID == arg {
			return app, nil
		}
	}
	fold := cases.Fold()
	want := fold.String(arg)
	for _, app := range all {
		if fold.String(app.Name) == want {
			return app, nil
		}
	}
	ranked, err := b.Query(arg, 1)
	if err != nil {
		return apps.App{}, err
	}
	if len(ranked) == 0 {
		return apps.App{}, fmt.Errorf("no application matches %q", arg)
	}
	return ranked[0], nil
}
