package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/tavily-agent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration a chat session would use, merged from defaults,
the config file, the .env file, the environment and flags. The Tavily API
key is redacted.

Examples:
  tavily-agent config
  tavily-agent config --model llama3.2
  tavily-agent config path`,
	Args: cobra.NoArgs,
	RunE: configShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	Args:  cobra.NoArgs,
	RunE:  configPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := configFile
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}
	return writeConfig(cmd.OutOrStdout(), cfg, path)
}

// writeConfig prints cfg as YAML, redacted, followed by any validation
// problems as comments.
func writeConfig(w io.Writer, cfg *config.Config, path string) error {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		fmt.Fprintf(w, "# No config file (using defaults)\n")
		fmt.Fprintf(w, "# Create one at: %s\n\n", path)
	} else {
		fmt.Fprintf(w, "# %s\n\n", path)
	}

	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "\n# invalid: %s\n", strings.ReplaceAll(err.Error(), "\n", "\n#   "))
	}
	return nil
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
