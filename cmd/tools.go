package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/samsaffron/tavily-agent/internal/config"
	"github.com/samsaffron/tavily-agent/internal/llm"
	"github.com/samsaffron/tavily-agent/internal/mcp"
	"github.com/samsaffron/tavily-agent/internal/signal"
)

const maxDescriptionWidth = 96

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools offered to the model",
	Long: `Connect to the Tavily MCP server, list the tools it offers next to the
local tools, and disconnect. Useful to check the API key and network path
before a chat.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
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

	return listTools(ctx, cmd.OutOrStdout(), cfg, mcp.ConnectionConfig{Logger: logger}, nil)
}

// listTools prints local tools and the tools discovered from the provider.
// transport, when set, replaces the HTTP transport.
func listTools(ctx context.Context, w io.Writer, cfg *config.Config, connCfg mcp.ConnectionConfig, transport sdkmcp.Transport) (err error) {
	local, err := newLocalTools(cfg)
	if err != nil {
		return err
	}

	endpoint, err := mcp.EndpointURL(cfg.TavilyMCPURL, cfg.TavilyAPIKey)
	if err != nil {
		return err
	}
	connCfg.Endpoint = endpoint
	connCfg.ClientVersion = Version
	connCfg.Transport = transport

	conn := mcp.NewConnection(connCfg)
	if err := conn.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close tool provider: %w", cerr)
		}
	}()

	handles, err := conn.ListTools(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Local tools (%d):\n\n", len(local.Specs()))
	printSpecs(w, local.Specs())
	fmt.Fprintf(w, "\nTavily tools at %s (%d):\n\n", mcp.RedactEndpoint(endpoint), len(handles))
	printSpecs(w, mcp.Specs(handles))
	return nil
}

func printSpecs(w io.Writer, specs []llm.ToolSpec) {
	for _, s := range specs {
		fmt.Fprintf(w, "  %s\n", s.Name)
		if desc := firstLine(s.Description); desc != "" {
			fmt.Fprintf(w, "    %s\n", runewidth.Truncate(desc, maxDescriptionWidth, "…"))
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
