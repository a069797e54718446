// Command hopperd runs the hopper daemon in the foreground. It is the
// process supervised by service managers; `hopper start` launches the same
// daemon through the hopper binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"hopper/internal/config"
	"hopper/internal/daemonrun"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("hopperd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("c", "", "Configuration file path")
	socketPath := fs.String("socket", "", "Override the daemon socket path")
	logLevel := fs.String("log-level", "", "Override the configured log level")
	quiet := fs.Bool("quiet", false, "Write logs to the log file only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *socketPath != "" {
		expanded, err := config.ExpandPath(*socketPath)
		if err != nil {
			return fmt.Errorf("resolve socket path: %w", err)
		}
		cfg.Paths.SocketPath = expanded
	}

	return daemonrun.Run(ctx, cfg, daemonrun.Options{
		LogLevel: *logLevel,
		Stderr:   !*quiet,
	})
}
