// Package config handles configuration loading for notechat.
// It supports a YAML (or JSON) config file, a .env file for API keys,
// environment variables, and sensible defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultModel is used when neither the command line nor config names one
	DefaultModel = "claude-3-7-sonnet-latest"

	// DefaultMaxOutputTokens caps the length of a reply
	DefaultMaxOutputTokens = 2000

	// DefaultSystemInstruction is sent with every call
	DefaultSystemInstruction = "You help with whatever is asked to the best of your ability."

	// DefaultTimeout bounds one provider request
	DefaultTimeout = 5 * time.Minute

	// MaxDebugLevel is the most verbose log level: 1 logs events, 2 adds bodies
	MaxDebugLevel = 2

	appName = "notechat"
)

// Config holds the configuration for notechat.
type Config struct {
	Model             string        `yaml:"model"`              // Default model
	MaxOutputTokens   int           `yaml:"max_output_tokens"`  // Reply length cap
	SystemInstruction string        `yaml:"system_instruction"` // System prompt
	Timeout           time.Duration `yaml:"timeout"`            // Provider request timeout, e.g. "90s"
	StateDir          string        `yaml:"state_dir"`          // Log and pending ledger, default: ~/.local/state/notechat
	PhrasesPath       string        `yaml:"phrases_path"`       // Line-delimited phrases printed on success
	EnvFile           string        `yaml:"env_file"`           // .env file with API keys, default: ~/.config/notechat/.env
	DebugLevel        int           `yaml:"debug_level"`        // Debug level 0-2, from NOTECHAT_DEBUG
	AnthropicBaseURL  string        `yaml:"anthropic_base_url"` // Override for proxies and tests
	OpenAIBaseURL     string        `yaml:"openai_base_url"`    // Override for proxies and tests
}

// DefaultPath returns ~/.config/notechat/config.yaml
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", appName, "config.yaml")
}

// Load reads configuration from the given file path, applies defaults for
// missing values, loads the .env file, and overrides with environment
// variables. A missing config or .env file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", configPath, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		default:
			return nil, fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	applyDefaults(cfg)

	// Variables already in the environment win over the .env file.
	if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file %s: %w", cfg.EnvFile, err)
	}

	applyEnvOverrides(cfg)

	// Clamp debug level to valid range
	if cfg.DebugLevel < 0 {
		cfg.DebugLevel = 0
	}
	if cfg.DebugLevel > MaxDebugLevel {
		cfg.DebugLevel = MaxDebugLevel
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.SystemInstruction == "" {
		cfg.SystemInstruction = DefaultSystemInstruction
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StateDir == "" {
		cfg.StateDir = filepath.Join(homeDir, ".local", "state", appName)
	}
	if cfg.PhrasesPath == "" {
		cfg.PhrasesPath = filepath.Join(homeDir, ".config", appName, "phrases.txt")
	}
	if cfg.EnvFile == "" {
		cfg.EnvFile = filepath.Join(homeDir, ".config", appName, ".env")
	}
}

// applyEnvOverrides overrides config values with environment variables.
// Malformed numeric values are ignored.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("NOTECHAT_MODEL"); val != "" {
		cfg.Model = val
	}

	if val := os.Getenv("NOTECHAT_MAX_TOKENS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.MaxOutputTokens = n
		}
	}

	if val := os.Getenv("NOTECHAT_SYSTEM"); val != "" {
		cfg.SystemInstruction = val
	}

	if val := os.Getenv("NOTECHAT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if val := os.Getenv("NOTECHAT_STATE"); val != "" {
		cfg.StateDir = val
	}

	if val := os.Getenv("NOTECHAT_PHRASES"); val != "" {
		cfg.PhrasesPath = val
	}

	if val := os.Getenv("NOTECHAT_DEBUG"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			cfg.DebugLevel = level
		}
	}

	if val := os.Getenv("ANTHROPIC_BASE_URL"); val != "" {
		cfg.AnthropicBaseURL = val
	}

	if val := os.Getenv("OPENAI_BASE_URL"); val != "" {
		cfg.OpenAIBaseURL = val
	}
}
