package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"hopper/internal/config"
	"hopper/internal/ipc"
	"hopper/internal/logging"
)

type commandContext struct {
	socketFlag *string
	configFlag *string
	localFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(socketFlag, configFlag *string, localFlag *bool) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
		localFlag:  localFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.socketFlag != nil {
			if socket := strings.TrimSpace(*c.socketFlag); socket != "" {
				expanded, err := config.ExpandPath(socket)
				if err != nil {
					c.configErr = fmt.Errorf("resolve socket path: %w", err)
					return
				}
				cfg.Paths.SocketPath = expanded
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// commandLogger writes warnings to stderr only; the daemon owns the log file.
func (c *commandContext) commandLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		opts := logging.Options{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}}
		if cfg := c.configValue(); cfg != nil {
			opts.Format = cfg.Logging.Format
			if logging.ParseLevel(cfg.Logging.Level) < slog.LevelWarn {
				opts.Level = "warn"
			} else {
				opts.Level = cfg.Logging.Level
			}
		}
		logger, err := logging.New(opts)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) socketPath() string {
	if cfg := c.configValue(); cfg != nil {
		return cfg.Paths.SocketPath
	}
	if c.socketFlag != nil {
		return strings.TrimSpace(*c.socketFlag)
	}
	return ""
}

func (c *commandContext) forceLocal() bool {
	return c.localFlag != nil && *c.localFlag
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	client, err := c.dialClient()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `hopper start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
