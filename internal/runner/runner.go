package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"

	"hopper/internal/apps"
	"hopper/internal/logging"
)

// ErrNoTerminal reports a terminal application that cannot be started because
// no terminal program could be determined.
var ErrNoTerminal = errors.New("cannot determine terminal program; set apps.term_cmd in the config file")

// Error describes a failed launch.
type Error struct {
	Command []string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("launch %q: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Runner starts applications.
type Runner struct {
	termCmd   []string
	lookupEnv func(string) (string, bool)
	logger    *slog.Logger
}

// New returns a runner that wraps terminal applications in termCmd. An empty
// termCmd falls back to "$TERM -e".
func New(termCmd []string, logger *slog.Logger) *Runner {
	return &Runner{
		termCmd:   slices.Clone(termCmd),
		lookupEnv: os.LookupEnv,
		logger:    logging.NewComponentLogger(logger, "runner"),
	}
}

// Command returns the argument vector used to start app.
func (r *Runner) Command(app apps.App) ([]string, error) {
	if len(app.Exec) == 0 {
		return nil, &Error{Err: fmt.Errorf("app %q has no command", app.Name)}
	}
	if !app.Terminal {
		return slices.Clone(app.Exec), nil
	}
	if len(r.termCmd) > 0 {
		return slices.Concat(r.termCmd, app.Exec), nil
	}
	term, ok := r.lookupEnv("TERM")
	if !ok || strings.TrimSpace(term) == "" {
		return nil, &Error{Command: slices.Clone(app.Exec), Err: ErrNoTerminal}
	}
	return slices.Concat([]string{term, "-e"}, app.Exec), nil
}

// Run starts app and returns the process ID. The process is reaped in the
// background.
func (r *Runner) Run(app apps.App) (int, error) {
	argv, err := r.Command(app)
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	r.logger.Debug("starting application",
		logging.String(logging.FieldAppID, app.ID),
		logging.Strings("argv", argv))

	if err := cmd.Start(); err != nil {
		if app.Terminal && len(r.termCmd) == 0 && errors.Is(err, exec.ErrNotFound) {
			err = fmt.Errorf("%w: %w", ErrNoTerminal, err)
		}
		return 0, &Error{Command: argv, Err: err}
	}
	pid := cmd.Process.Pid
	go func() {
		_ = cmd.Wait()
	}()

	r.logger.Info("application started",
		logging.String(logging.FieldAppID, app.ID),
		logging.String("name", app.Name),
		logging.Int("pid", pid))
	return pid, nil
}
