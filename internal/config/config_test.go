package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"NOTECHAT_MODEL", "NOTECHAT_MAX_TOKENS", "NOTECHAT_SYSTEM", "NOTECHAT_TIMEOUT",
	"NOTECHAT_STATE", "NOTECHAT_PHRASES", "NOTECHAT_DEBUG",
	"ANTHROPIC_BASE_URL", "OPENAI_BASE_URL",
}

// clearEnv blanks every variable Load reads. Blank values are treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func Test_LoadConfig_MissingFile_ReturnsDefaults(t *testing.T) {
	clearEnv(t)
	nonExistentPath := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	homeDir, _ := os.UserHomeDir()
	expectedState := filepath.Join(homeDir, ".local", "state", "notechat")

	if cfg.Model != DefaultModel {
		t.Errorf("expected Model=%q, got %q", DefaultModel, cfg.Model)
	}
	if cfg.MaxOutputTokens != 2000 {
		t.Errorf("expected MaxOutputTokens=2000, got %d", cfg.MaxOutputTokens)
	}
	if cfg.SystemInstruction != DefaultSystemInstruction {
		t.Errorf("unexpected SystemInstruction %q", cfg.SystemInstruction)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected Timeout=%v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.StateDir != expectedState {
		t.Errorf("expected StateDir=%q, got %q", expectedState, cfg.StateDir)
	}
	if cfg.DebugLevel != 0 {
		t.Errorf("expected DebugLevel=0, got %d", cfg.DebugLevel)
	}
}

func Test_LoadConfig_EmptyPath_ReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("expected default model, got %q", cfg.Model)
	}
}

func Test_LoadConfig_YAMLFile_ReturnsValues(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "config.yaml", `model: gpt-4o
max_output_tokens: 512
system_instruction: Be brief.
timeout: 90s
state_dir: /custom/state
phrases_path: /custom/phrases.txt
env_file: /custom/.env
debug_level: 2
anthropic_base_url: http://localhost:9000
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Model != "gpt-4o" {
		t.Errorf("expected Model=gpt-4o, got %q", cfg.Model)
	}
	if cfg.MaxOutputTokens != 512 {
		t.Errorf("expected MaxOutputTokens=512, got %d", cfg.MaxOutputTokens)
	}
	if cfg.SystemInstruction != "Be brief." {
		t.Errorf("expected SystemInstruction='Be brief.', got %q", cfg.SystemInstruction)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("expected Timeout=90s, got %v", cfg.Timeout)
	}
	if cfg.StateDir != "/custom/state" {
		t.Errorf("expected StateDir=/custom/state, got %q", cfg.StateDir)
	}
	if cfg.PhrasesPath != "/custom/phrases.txt" {
		t.Errorf("expected PhrasesPath=/custom/phrases.txt, got %q", cfg.PhrasesPath)
	}
	if cfg.DebugLevel != 2 {
		t.Errorf("expected DebugLevel=2, got %d", cfg.DebugLevel)
	}
	if cfg.AnthropicBaseURL != "http://localhost:9000" {
		t.Errorf("unexpected AnthropicBaseURL %q", cfg.AnthropicBaseURL)
	}
}

func Test_LoadConfig_JSONFile_ReturnsValues(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "config.json", `{"model": "claude-sonnet-4-5", "debug_level": 1}`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Model != "claude-sonnet-4-5" {
		t.Errorf("expected Model=claude-sonnet-4-5, got %q", cfg.Model)
	}
	if cfg.DebugLevel != 1 {
		t.Errorf("expected DebugLevel=1, got %d", cfg.DebugLevel)
	}
}

func Test_LoadConfig_InvalidFile_ReturnsError(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "config.yaml", "model: [unterminated")

	if _, err := Load(configPath); err == nil {
		t.Fatal("expected error for invalid config file")
	}
}

func Test_LoadConfig_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, "config.yaml", "model: from-file\nmax_output_tokens: 100\n")

	t.Setenv("NOTECHAT_MODEL", "from-env")
	t.Setenv("NOTECHAT_MAX_TOKENS", "4000")
	t.Setenv("NOTECHAT_TIMEOUT", "2m")
	t.Setenv("NOTECHAT_STATE", "/env/state")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9001")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Model != "from-env" {
		t.Errorf("expected Model=from-env, got %q", cfg.Model)
	}
	if cfg.MaxOutputTokens != 4000 {
		t.Errorf("expected MaxOutputTokens=4000, got %d", cfg.MaxOutputTokens)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Errorf("expected Timeout=2m, got %v", cfg.Timeout)
	}
	if cfg.StateDir != "/env/state" {
		t.Errorf("expected StateDir=/env/state, got %q", cfg.StateDir)
	}
	if cfg.OpenAIBaseURL != "http://localhost:9001" {
		t.Errorf("unexpected OpenAIBaseURL %q", cfg.OpenAIBaseURL)
	}
}

func Test_LoadConfig_MalformedEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTECHAT_MAX_TOKENS", "lots")
	t.Setenv("NOTECHAT_TIMEOUT", "soon")
	t.Setenv("NOTECHAT_DEBUG", "verbose")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.MaxOutputTokens != DefaultMaxOutputTokens {
		t.Errorf("expected default max tokens, got %d", cfg.MaxOutputTokens)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.DebugLevel != 0 {
		t.Errorf("expected DebugLevel=0, got %d", cfg.DebugLevel)
	}
}

func Test_LoadConfig_DebugLevelClamped(t *testing.T) {
	clearEnv(t)

	t.Setenv("NOTECHAT_DEBUG", "9")
	cfg, _ := Load("")
	if cfg.DebugLevel != 2 {
		t.Errorf("expected DebugLevel clamped to 2, got %d", cfg.DebugLevel)
	}

	t.Setenv("NOTECHAT_DEBUG", "3")
	cfg, _ = Load("")
	if cfg.DebugLevel != 2 {
		t.Errorf("expected level 3 clamped to 2, got %d", cfg.DebugLevel)
	}

	t.Setenv("NOTECHAT_DEBUG", "-4")
	cfg, _ = Load("")
	if cfg.DebugLevel != 0 {
		t.Errorf("expected DebugLevel clamped to 0, got %d", cfg.DebugLevel)
	}
}

func Test_LoadConfig_EnvFileLoaded(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("NOTECHAT_TEST_KEY=from-dotenv\nNOTECHAT_PHRASES=/dotenv/phrases.txt\n"), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	os.Unsetenv("NOTECHAT_TEST_KEY")
	os.Unsetenv("NOTECHAT_PHRASES")
	t.Cleanup(func() { os.Unsetenv("NOTECHAT_TEST_KEY") })

	configPath := writeConfig(t, "config.yaml", "env_file: "+envPath+"\n")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if got := os.Getenv("NOTECHAT_TEST_KEY"); got != "from-dotenv" {
		t.Errorf("expected .env value to be exported, got %q", got)
	}
	if cfg.PhrasesPath != "/dotenv/phrases.txt" {
		t.Errorf("expected .env to feed overrides, got %q", cfg.PhrasesPath)
	}
}

func Test_LoadConfig_EnvBeatsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("NOTECHAT_MODEL=from-dotenv\n"), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("NOTECHAT_MODEL", "from-env")

	configPath := writeConfig(t, "config.yaml", "env_file: "+envPath+"\n")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Model != "from-env" {
		t.Errorf("expected process environment to win, got %q", cfg.Model)
	}
}
