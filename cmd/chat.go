package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/samsaffron/tavily-agent/internal/agent"
	"github.com/samsaffron/tavily-agent/internal/config"
	"github.com/samsaffron/tavily-agent/internal/conversation"
	"github.com/samsaffron/tavily-agent/internal/llm"
	"github.com/samsaffron/tavily-agent/internal/mcp"
	"github.com/samsaffron/tavily-agent/internal/repl"
	"github.com/samsaffron/tavily-agent/internal/signal"
	"github.com/samsaffron/tavily-agent/internal/tools"
	"github.com/samsaffron/tavily-agent/internal/ui"
)

const pingTimeout = 3 * time.Second

var _ repl.Display = (*ui.Console)(nil)

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	cfg, err := loadValidConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	return chat(ctx, chatEnv{
		cfg:     cfg,
		logger:  logger,
		in:      cmd.InOrStdin(),
		display: ui.NewTerminalConsole(os.Stdout, chatRaw, noColor),
	})
}

// chatEnv holds what a chat session needs from its surroundings. Tests
// substitute the transport and display.
type chatEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	in      io.Reader
	display repl.Display

	// transport replaces the streamable HTTP transport to Tavily.
	transport sdkmcp.Transport
}

// chat starts the collaborators in order (model, tool provider connection,
// tool discovery, session) and runs the loop until it terminates. The
// connection is closed on every path once opened; a failure to close it is
// returned. Cancellation before the loop starts is not an error.
func chat(ctx context.Context, env chatEnv) (err error) {
	cfg, logger := env.cfg, env.logger

	provider := llm.NewOllamaProvider(cfg.OllamaHost, nil, logger)
	checkModel(ctx, provider, cfg.ModelID, logger)

	endpoint, err := mcp.EndpointURL(cfg.TavilyMCPURL, cfg.TavilyAPIKey)
	if err != nil {
		return err
	}
	conn := mcp.NewConnection(mcp.ConnectionConfig{
		Endpoint:      endpoint,
		ClientVersion: Version,
		Logger:        logger,
		Transport:     env.transport,
	})
	if err := conn.Open(ctx); err != nil {
		if signal.Interrupted(ctx) {
			return nil
		}
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close tool provider: %w", cerr)
		}
	}()

	local, err := newLocalTools(cfg)
	if err != nil {
		return err
	}

	engine := llm.NewEngine(provider, llm.ModelConfig{
		Model:       cfg.ModelID,
		Temperature: cfg.Temperature,
		Host:        cfg.OllamaHost,
		KeepAlive:   cfg.KeepAlive,
	}, tools.NewDispatcher(local, conn, logger),
		llm.WithMaxCycles(cfg.MaxCycles),
		llm.WithLogger(logger),
	)

	session, err := agent.Start(ctx, agent.Options{
		Model:      engine,
		Provider:   conn,
		LocalTools: local.Specs(),
		Window:     conversation.NewWindow(cfg.WindowSize),
		Logger:     logger,
	})
	if err != nil {
		if signal.Interrupted(ctx) {
			return nil
		}
		return err
	}
	defer session.Close()

	loop := repl.New(repl.Config{
		In:      env.in,
		Display: env.display,
		Agent:   session,
		Logger:  logger,
	})
	reason, err := loop.Run(ctx)
	logger.Info("session ended", "reason", reason, "turns", loop.Turns())
	return err
}

// checkModel warns when Ollama is unreachable or the model is not pulled.
// Neither is fatal: Ollama may come up later, and the first query reports
// the problem with a hint.
func checkModel(ctx context.Context, provider *llm.OllamaProvider, model string, logger *slog.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	models, err := provider.Ping(pingCtx)
	if err != nil {
		logger.Warn("ollama not reachable at startup", "error", err)
		return
	}
	if !hasModel(models, model) {
		logger.Warn("model not found in ollama; pull it with `ollama pull`", "model", model, "available", models)
	}
}

// hasModel matches "qwen3" against "qwen3:latest" the way Ollama resolves
// untagged names.
func hasModel(models []string, model string) bool {
	if !strings.Contains(model, ":") {
		model += ":latest"
	}
	return slices.Contains(models, model)
}
