package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"hopper/internal/config"
	"hopper/internal/daemon"
	"hopper/internal/daemonctl"
	"hopper/internal/history"
	"hopper/internal/ipc"
	"hopper/internal/logging"
	"hopper/internal/preflight"
)

// LogFileName is the daemon log inside paths.log_dir.
const LogFileName = "hopperd.log"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// Stderr disables console output when false; the log file is always
	// written.
	Stderr bool
}

// Run starts the hopper daemon and blocks until a signal arrives, the
// daemon is stopped over IPC, or cmdCtx is canceled.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := newLogger(cfg, opts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String("run_id", uuid.NewString()))

	logPreflight(logger, cfg)

	socketPath := cfg.Paths.SocketPath
	pidPath := daemonctl.PIDPath(socketPath)

	hist, err := history.Open(cfg.Paths.HistoryPath)
	if err != nil {
		logging.WarnWithContext(logger, "launch history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String("path", cfg.Paths.HistoryPath),
			logging.String(logging.FieldImpact, "launches are ranked but not journaled"),
			logging.String(logging.FieldErrorHint, "check paths.history_path permissions"))
		hist = nil
	}

	d, err := daemon.New(cfg, hist, logger)
	if err != nil {
		_ = hist.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return err
		}
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration and registry file access"))
		return err
	}

	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("hopper daemon ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.String("socket", socketPath),
		logging.String("config", cfg.Path))

	select {
	case <-signalCtx.Done():
	case <-d.Done():
	}
	logger.Info("hopper daemon shutting down")
	return nil
}

func newLogger(cfg *config.Config, opts Options) (*slog.Logger, error) {
	effective := *cfg
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		effective.Logging.Level = level
	}
	return logging.NewFromConfig(&effective, LogFileName, !opts.Stderr)
}

func logPreflight(logger *slog.Logger, cfg *config.Config) {
	results := preflight.RunAll(cfg)
	for _, failed := range preflight.Failed(results) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", failed.Name),
			logging.String("detail", failed.Detail),
			logging.String(logging.FieldErrorHint, "run hopper doctor for details"),
			logging.String(logging.FieldImpact, "some applications may not be listed or launchable"))
	}
	logger.Debug("preflight complete",
		logging.Int("checks", len(results)),
		logging.Int("failed", len(preflight.Failed(results))))
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
