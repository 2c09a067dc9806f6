package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
	chatRaw    bool
	noColor    bool
)

// AddConfigFlags adds the flags that override configuration keys. They are
// persistent so every subcommand loads the same configuration.
func AddConfigFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/tavily-agent/config.yaml)")
	f.StringVar(&envFile, "env-file", ".env", "Dotenv file to read if present")

	// Values below are read through viper; the defaults here are only shown
	// in help and never override lower-precedence sources.
	f.StringP("model", "m", "", "Ollama model (MODEL_ID)")
	f.Float64("temperature", 0, "Sampling temperature (TEMPERATURE)")
	f.String("ollama-host", "", "Ollama base URL (OLLAMA_HOST)")
	f.Duration("keep-alive", 0, "How long Ollama keeps the model loaded (KEEP_ALIVE)")
	f.String("mcp-url", "", "Tavily MCP endpoint (TAVILY_MCP_URL)")
	f.String("log-level", "", "Log level: trace, debug, info, warn, error (LOG_LEVEL)")
	f.String("log-format", "", "Log format: text or json (LOG_FORMAT)")
	f.Int("window", 0, "Conversation turns kept in context (WINDOW_SIZE)")
	f.Int("max-cycles", 0, "Model calls allowed per query (MAX_CYCLES)")
	f.StringSlice("shell-allow", nil, "Glob of shell commands the model may run; repeatable (SHELL_ALLOW)")

	if err := cmd.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions(
		[]string{"trace", "debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		panic("failed to register log-level completion: " + err.Error())
	}
	if err := cmd.RegisterFlagCompletionFunc("log-format", cobra.FixedCompletions(
		[]string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		panic("failed to register log-format completion: " + err.Error())
	}
}
