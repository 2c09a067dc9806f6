package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/samsaffron/tavily-agent/internal/logging"
)

const appName = "tavily-agent"

// ErrMissingAPIKey is reported by Validate when no Tavily key is configured.
var ErrMissingAPIKey = errors.New("TAVILY_API_KEY is not set")

// Config is the effective configuration. Every key can come from the
// environment (upper-cased key name), a .env file, the YAML config file, or
// a flag.
type Config struct {
	ModelID      string        `mapstructure:"model_id" yaml:"model_id"`
	Temperature  float64       `mapstructure:"temperature" yaml:"temperature"`
	OllamaHost   string        `mapstructure:"ollama_host" yaml:"ollama_host"`
	KeepAlive    time.Duration `mapstructure:"keep_alive" yaml:"keep_alive"` // how long Ollama keeps the model loaded
	TavilyAPIKey string        `mapstructure:"tavily_api_key" yaml:"tavily_api_key"`
	TavilyMCPURL string        `mapstructure:"tavily_mcp_url" yaml:"tavily_mcp_url"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string        `mapstructure:"log_format" yaml:"log_format"` // text or json
	WindowSize   int           `mapstructure:"window_size" yaml:"window_size"`
	MaxCycles    int           `mapstructure:"max_cycles" yaml:"max_cycles"` // model calls per query
	ShellTimeout time.Duration `mapstructure:"shell_timeout" yaml:"shell_timeout"`
	ShellAllow   []string      `mapstructure:"shell_allow" yaml:"shell_allow"` // glob patterns; empty allows all
}

var defaults = map[string]any{
	"model_id":       "qwen3:4b",
	"temperature":    0.2,
	"ollama_host":    "http://localhost:11434",
	"keep_alive":     "10m",
	"tavily_api_key": "",
	"tavily_mcp_url": "https://mcp.tavily.com/mcp/",
	"log_level":      "warn",
	"log_format":     "text",
	"window_size":    20,
	"max_cycles":     10,
	"shell_timeout":  "30s",
	"shell_allow":    []string{},
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"model":       "model_id",
	"temperature": "temperature",
	"ollama-host": "ollama_host",
	"keep-alive":  "keep_alive",
	"mcp-url":     "tavily_mcp_url",
	"log-level":   "log_level",
	"log-format":  "log_format",
	"window":      "window_size",
	"max-cycles":  "max_cycles",
	"shell-allow": "shell_allow",
}

// LoadOptions says where configuration comes from.
type LoadOptions struct {
	// ConfigFile is an explicit YAML file. It must exist when set; otherwise
	// config.yaml in the config dir is read if present.
	ConfigFile string

	// EnvFile is a dotenv file read if present. Defaults to .env in the
	// working directory. Real environment variables take precedence.
	EnvFile string

	// Flags are bound over every other source. Only flags that were set
	// override.
	Flags *pflag.FlagSet
}

// Load reads the configuration. Precedence, highest first: flags,
// environment, .env file, YAML file, defaults.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := readYAML(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := mergeEnvFile(v, envFile); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.TavilyAPIKey = expandEnv(cfg.TavilyAPIKey)
	cfg.OllamaHost = strings.TrimRight(expandEnv(cfg.OllamaHost), "/")
	cfg.ShellAllow = splitPatterns(cfg.ShellAllow)

	return &cfg, nil
}

func readYAML(v *viper.Viper, explicit string) error {
	path := explicit
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil
		}
		if _, err := os.Stat(p); err != nil {
			return nil
		}
		path = p
	}

	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

func mergeEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v.SetConfigType("env")
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return nil
}

// splitPatterns accepts both list values and a single comma-separated
// string from the environment.
func splitPatterns(in []string) []string {
	var out []string
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate reports startup errors: the missing credential first, then
// out-of-range values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TavilyAPIKey) == "" {
		return ErrMissingAPIKey
	}

	var errs []error
	if strings.TrimSpace(c.ModelID) == "" {
		errs = append(errs, errors.New("model_id must not be empty"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature))
	}
	if err := validateHTTPURL(c.OllamaHost); err != nil {
		errs = append(errs, fmt.Errorf("ollama_host: %w", err))
	}
	if err := validateHTTPURL(c.TavilyMCPURL); err != nil {
		errs = append(errs, fmt.Errorf("tavily_mcp_url: %w", err))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Errorf("unknown log format %q (valid: text, json)", c.LogFormat))
	}
	if c.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("window_size must be at least 1, got %d", c.WindowSize))
	}
	if c.MaxCycles < 1 {
		errs = append(errs, fmt.Errorf("max_cycles must be at least 1, got %d", c.MaxCycles))
	}
	if c.ShellTimeout <= 0 || c.ShellTimeout > 5*time.Minute {
		errs = append(errs, fmt.Errorf("shell_timeout %s out of range (0, 5m]", c.ShellTimeout))
	}
	return errors.Join(errs...)
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// Redacted returns a copy that is safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.TavilyAPIKey != "" {
		out.TavilyAPIKey = "REDACTED"
	}
	out.ShellAllow = append([]string(nil), c.ShellAllow...)
	return out
}

// expandEnv resolves "$VAR" and "${VAR}" indirection in secret values.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}
