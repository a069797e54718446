package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hopper/internal/apps"
	"hopper/internal/config"
	"hopper/internal/daemon"
	"hopper/internal/history"
	"hopper/internal/ipc"
	"hopper/internal/logging"
	"hopper/internal/testsupport"
)

type stubLauncher struct{}

func (stubLauncher) Run(apps.App) (int, error) { return 4321, nil }

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

// setupLocalEnv writes a config with two applications and no daemon.
func setupLocalEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithTermCmd("sh -c"))
	appDir := cfg.Apps.Dirs[0]
	testsupport.WriteDesktopEntry(t, appDir, "firefox.desktop", "Firefox", "true")
	testsupport.WriteDesktopEntry(t, appDir, "thunderbird.desktop", "Thunderbird", "true --mail")
	writeTestConfig(t, cfg)
	return &cliTestEnv{
		cfg:        cfg,
		socketPath: cfg.Paths.SocketPath,
		configPath: cfg.Path,
	}
}

// setupCLITestEnv adds a daemon serving IPC on the configured socket.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	env := setupLocalEnv(t)

	hist, err := history.Open(env.cfg.Paths.HistoryPath)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	logger := logging.NewNop()
	d, err := daemon.New(env.cfg, hist, logger, daemon.WithLauncher(stubLauncher{}))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon start: %v", err)
	}
	srv, err := ipc.NewServer(ctx, env.socketPath, d, logger)
	if err != nil {
		cancel()
		_ = d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env.daemon = d
	env.server = srv
	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = d.Close()
	})
	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(cfg.Path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
