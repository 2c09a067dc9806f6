package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/samsaffron/tavily-agent/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "tavily-agent",
	Short: "Chat with a local model that can search the web",
	Long: `tavily-agent runs an interactive chat with a local Ollama model. The model
can search the web through the Tavily MCP server, tell the current time,
and run shell commands.

Configuration comes from flags, the environment, a .env file in the
working directory, and $XDG_CONFIG_HOME/tavily-agent/config.yaml.
TAVILY_API_KEY is required.

Examples:
  tavily-agent                              # start chatting
  tavily-agent --model llama3.2 --window 10
  tavily-agent --shell-allow 'git *' --shell-allow 'ls*'

  tavily-agent config                       # show effective configuration
  tavily-agent tools                        # list the tools the model gets`,
	Args:              cobra.NoArgs,
	RunE:              runChat,
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	AddConfigFlags(rootCmd)
	rootCmd.Flags().BoolVar(&chatRaw, "raw", false, "Print answers as plain text instead of rendered markdown")
	rootCmd.Flags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored output")
}

// Execute runs the root command. Startup errors exit with status 1; normal
// and interrupted sessions exit with 0.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.NewConsole(os.Stderr, ui.ConsoleOptions{NoColor: noColor || !ui.IsTerminal(os.Stderr)}).Error(err)
		os.Exit(1)
	}
}
