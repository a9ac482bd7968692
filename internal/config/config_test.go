package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"OPENAI_API_KEY", "SESSION_TOKEN", "TELEGRAM_TOKEN", "ALLOWED_USERS",
	"AI_PROVIDER", "AI_MODEL", "AI_BASE_URL", "GEMINI_API_KEY",
	"MEMBERS_BACKEND", "MEMBERS_PATH", "REDIS_URL", "DATABASE_URL",
	"HTTP_PORT", "HTTP_DISABLED", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv isolates a test from the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Chdir(t.TempDir())
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ALLOWED_USERS", "alice, bob")

	cfg, err := LoadConfig("does-not-exist.yaml", false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "tg-token" || cfg.AI.OpenAIKey != "sk-test" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if got := strings.Join(cfg.Bot.AllowedUsers, "|"); got != "alice|bob" {
		t.Fatalf("allowed users = %q", got)
	}
	if cfg.Members.Path != "members.txt" || cfg.Members.Backend != "file" {
		t.Fatalf("members defaults not applied: %+v", cfg.Members)
	}
	if cfg.AI.Provider != "openai" || cfg.AI.Timeout != time.Minute {
		t.Fatalf("ai defaults not applied: %+v", cfg.AI)
	}
	if cfg.Bot.Workers != 1 {
		t.Fatalf("expected sequential default, got %d workers", cfg.Bot.Workers)
	}
}

func TestLoadConfig_YAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
bot:
  token: from-yaml
  allowed_users: [carol]
  workers: 4
ai:
  provider: echo
log:
  format: console
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELEGRAM_TOKEN", "from-env")

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "from-env" {
		t.Fatalf("env should override yaml, got %q", cfg.Bot.Token)
	}
	if len(cfg.Bot.AllowedUsers) != 1 || cfg.Bot.AllowedUsers[0] != "carol" {
		t.Fatalf("allowed users from yaml lost: %v", cfg.Bot.AllowedUsers)
	}
	if cfg.Bot.Workers != 4 || cfg.Log.Format != "console" || !cfg.Runtime.Dev {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"no telegram token", map[string]string{"OPENAI_API_KEY": "k", "ALLOWED_USERS": "a"}},
		{"no allow list", map[string]string{"OPENAI_API_KEY": "k", "TELEGRAM_TOKEN": "t"}},
		{"no openai credential", map[string]string{"TELEGRAM_TOKEN": "t", "ALLOWED_USERS": "a"}},
		{"gemini without key", map[string]string{"TELEGRAM_TOKEN": "t", "ALLOWED_USERS": "a", "AI_PROVIDER": "gemini"}},
		{"redis members without url", map[string]string{"TELEGRAM_TOKEN": "t", "ALLOWED_USERS": "a", "AI_PROVIDER": "echo", "MEMBERS_BACKEND": "redis"}},
		{"unknown provider", map[string]string{"TELEGRAM_TOKEN": "t", "ALLOWED_USERS": "a", "AI_PROVIDER": "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig("", false); err == nil {
				t.Fatalf("expected configuration error")
			}
		})
	}
}

func TestLoadConfig_SessionTokenIsEnoughForOpenAI(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("ALLOWED_USERS", "alice")
	t.Setenv("SESSION_TOKEN", "sess")
	if _, err := LoadConfig("", false); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
}

func TestLoadConfig_HTTPDisabledKeepsDefaultPort(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
bot:
  token: t
  allowed_users: [alice]
http:
  disabled: true
ai:
  provider: gemini
  gemini_key: g
  max_output_tokens: 256
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.HTTP.Disabled || cfg.HTTP.Port != 8080 {
		t.Fatalf("http = %+v", cfg.HTTP)
	}
	if cfg.AI.MaxOutputTokens != 256 {
		t.Fatalf("max output tokens = %d", cfg.AI.MaxOutputTokens)
	}
}

func TestLoadConfig_HTTPDisabledFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("ALLOWED_USERS", "alice")
	t.Setenv("AI_PROVIDER", "echo")
	t.Setenv("HTTP_DISABLED", "true")
	cfg, err := LoadConfig("", false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.HTTP.Disabled {
		t.Fatal("HTTP_DISABLED not applied")
	}
}
