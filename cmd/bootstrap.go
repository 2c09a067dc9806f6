package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/samsaffron/tavily-agent/internal/config"
	"github.com/samsaffron/tavily-agent/internal/logging"
	"github.com/samsaffron/tavily-agent/internal/tools"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadValidConfig loads the configuration and rejects it when a session
// could not start with it.
func loadValidConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the session logger. Every record carries the session id
// so interleaved runs can be told apart.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(w, level, cfg.LogFormat).With("session_id", uuid.NewString()), nil
}

// newLocalTools builds the tools that run in-process.
func newLocalTools(cfg *config.Config) (*tools.Registry, error) {
	shell, err := tools.NewShellTool(tools.ShellConfig{
		Timeout: cfg.ShellTimeout,
		Allow:   cfg.ShellAllow,
	})
	if err != nil {
		return nil, err
	}
	return tools.NewRegistry(tools.NewCurrentTimeTool(nil), shell), nil
}
