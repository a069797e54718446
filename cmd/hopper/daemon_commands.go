package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hopper/internal/daemonctl"
	"hopper/internal/daemonrun"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the hopper daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx, startLogLevel),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override the configured log level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the hopper daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and registry status",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := daemonctl.BuildStatusSnapshot(ctx.socketPath(), ctx.configValue())
			if err != nil {
				return err
			}
			if statusJSON {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			stdout := cmd.OutOrStdout()
			for _, line := range statusLines(snap, shouldColorize(stdout)) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the hopper daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: logLevel,
				Stderr:   true,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func statusLines(snap *daemonctl.Snapshot, colorize bool) []string {
	st := snap.Status
	lines := renderSectionHeader("Daemon", colorize)
	if snap.Reachable {
		lines = append(lines,
			renderStatusLine("Daemon", statusOK, "Running (pid "+strconv.Itoa(st.PID)+")", colorize),
			renderStatusLine("Uptime", statusInfo, formatAge(st.StartedAt), colorize),
			renderStatusLine("Last rescan", statusInfo, formatAge(st.LastRescan), colorize),
		)
		if st.LastError != "" {
			lines = append(lines, renderStatusLine("Last error", statusWarn, st.LastError, colorize))
		}
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "Not running", colorize))
	}
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Registry", colorize)...)
	lines = append(lines, renderStatusLine("Config", statusInfo, st.ConfigPath, colorize))
	registryKind := statusOK
	registryDetail := st.DBPath
	if snap.Offline != "" {
		registryKind = statusWarn
		registryDetail = fmt.Sprintf("%s (%s)", st.DBPath, snap.Offline)
	}
	lines = append(lines,
		renderStatusLine("Registry", registryKind, registryDetail, colorize),
		renderStatusLine("History", statusInfo, st.HistoryPath, colorize),
		renderStatusLine("Applications", statusInfo, strconv.Itoa(st.AppCount), colorize),
		renderStatusLine("Half-life", statusInfo, time.Duration(st.HalfLife*float64(time.Second)).String(), colorize),
	)
	if st.ScanErrors > 0 {
		lines = append(lines, renderStatusLine("Scan errors", statusWarn, strconv.Itoa(st.ScanErrors), colorize))
	}
	dirs := "none"
	if len(st.AppDirs) > 0 {
		dirs = strings.Join(st.AppDirs, ", ")
	}
	lines = append(lines, renderStatusLine("App directories", statusInfo, dirs, colorize))
	if snap.Reachable {
		lines = append(lines, renderStatusLine("Watched", statusInfo, strconv.Itoa(len(st.Watched))+" directories", colorize))
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{LogLevel: strings.TrimSpace(logLevel)}
	if ctx.socketFlag != nil {
		opts.SocketPath = strings.TrimSpace(*ctx.socketFlag)
	}
	if path := ctx.configPath(); path != "" {
		opts.ConfigPath = path
	}
	return opts
}
