package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token               string   `yaml:"token" validate:"required"`
	AllowedUsers        []string `yaml:"allowed_users" validate:"required,min=1"`
	Contact             string   `yaml:"contact"`               // handle named in the denial text
	Workers             int      `yaml:"workers"`               // update workers, sharded by chat
	PollTimeout         int      `yaml:"poll_timeout"`          // long-poll seconds
	EchoPrompt          bool     `yaml:"echo_prompt"`           // private bot echoes the prompt first
	ApproveJoinRequests bool     `yaml:"approve_join_requests"` // group bot approves allowed joiners
	RateLimit           int      `yaml:"rate_limit"`            // commands per user per minute, 0 = off
	Debug               bool     `yaml:"debug"`
}

type LogConfig struct {
	Level    string `yaml:"level"`                                // trace|debug|info|warn|error
	Format   string `yaml:"format" validate:"oneof=json console"` // json|console
	Sampling bool   `yaml:"sampling"`                             // enable sampling in prod
	File     string `yaml:"file"`                                 // optional rotating log file
	MaxSize  int    `yaml:"max_size_mb"`
}

type HTTPConfig struct {
	Disabled        bool          `yaml:"disabled"` // no health/metrics listener
	Port            int           `yaml:"port" validate:"gte=0,lte=65535"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AIConfig struct {
	Provider        string        `yaml:"provider" validate:"oneof=openai gemini echo"`
	OpenAIKey       string        `yaml:"openai_key"`
	SessionToken    string        `yaml:"session_token"`
	BaseURL         string        `yaml:"base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	Model           string        `yaml:"model"`
	SystemPrompt    string        `yaml:"system_prompt"`
	MaxHistory      int           `yaml:"max_history"`      // turns kept in the conversation
	Timeout         time.Duration `yaml:"timeout"`          // per backend call
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	VerifyOnRefresh bool          `yaml:"verify_on_refresh"`
	MaxOutputTokens int           `yaml:"max_output_tokens" validate:"gte=0"` // gemini only, 0 = model default
}

type MembersConfig struct {
	Backend string `yaml:"backend" validate:"oneof=file redis postgres"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"` // redis key / postgres group name
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	AI       AIConfig       `yaml:"ai"`
	Members  MembersConfig  `yaml:"members"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`

	Runtime RuntimeConfig `yaml:"-"`
}

// envOverlay lists the environment variables that override the YAML file.
type envOverlay struct {
	OpenAIKey      string   `envconfig:"OPENAI_API_KEY"`
	SessionToken   string   `envconfig:"SESSION_TOKEN"`
	TelegramToken  string   `envconfig:"TELEGRAM_TOKEN"`
	AllowedUsers   []string `envconfig:"ALLOWED_USERS"`
	AIProvider     string   `envconfig:"AI_PROVIDER"`
	AIModel        string   `envconfig:"AI_MODEL"`
	AIBaseURL      string   `envconfig:"AI_BASE_URL"`
	GeminiKey      string   `envconfig:"GEMINI_API_KEY"`
	MembersBackend string   `envconfig:"MEMBERS_BACKEND"`
	MembersPath    string   `envconfig:"MEMBERS_PATH"`
	RedisURL       string   `envconfig:"REDIS_URL"`
	DatabaseURL    string   `envconfig:"DATABASE_URL"`
	HTTPPort       int      `envconfig:"HTTP_PORT"`
	HTTPDisabled   bool     `envconfig:"HTTP_DISABLED"`
	LogLevel       string   `envconfig:"LOG_LEVEL"`
	LogFormat      string   `envconfig:"LOG_FORMAT"`
}

var validate = validator.New()

// LoadConfig reads the optional YAML file at path, loads .env if present,
// overlays environment variables and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only deployments have no file
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	_ = godotenv.Load()
	var env envOverlay
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	applyEnv(&cfg, env)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config, env envOverlay) {
	setStr(&cfg.AI.OpenAIKey, env.OpenAIKey)
	setStr(&cfg.AI.SessionToken, env.SessionToken)
	setStr(&cfg.Bot.Token, env.TelegramToken)
	if users := nonEmpty(env.AllowedUsers); len(users) > 0 {
		cfg.Bot.AllowedUsers = users
	}
	setStr(&cfg.AI.Provider, env.AIProvider)
	setStr(&cfg.AI.Model, env.AIModel)
	setStr(&cfg.AI.BaseURL, env.AIBaseURL)
	setStr(&cfg.AI.GeminiKey, env.GeminiKey)
	setStr(&cfg.Members.Backend, env.MembersBackend)
	setStr(&cfg.Members.Path, env.MembersPath)
	setStr(&cfg.Redis.URL, env.RedisURL)
	setStr(&cfg.Database.URL, env.DatabaseURL)
	if env.HTTPPort != 0 {
		cfg.HTTP.Port = env.HTTPPort
	}
	if env.HTTPDisabled {
		cfg.HTTP.Disabled = true
	}
	setStr(&cfg.Log.Level, env.LogLevel)
	setStr(&cfg.Log.Format, env.LogFormat)
}

func setStr(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 1
	}
	if cfg.Bot.PollTimeout <= 0 {
		cfg.Bot.PollTimeout = 60
	}
	if cfg.Bot.Contact == "" {
		cfg.Bot.Contact = "Klingefjord"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.MaxSize <= 0 {
		cfg.Log.MaxSize = 50
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.ShutdownTimeout = normalizeTimeout(cfg.HTTP.ShutdownTimeout, 5*time.Second)
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
		if cfg.AI.Provider == "gemini" {
			cfg.AI.Model = "gemini-2.0-flash"
		}
	}
	if cfg.AI.MaxHistory <= 0 {
		cfg.AI.MaxHistory = 20
	}
	cfg.AI.Timeout = normalizeTimeout(cfg.AI.Timeout, time.Minute)
	if cfg.Members.Backend == "" {
		cfg.Members.Backend = "file"
	}
	if cfg.Members.Path == "" {
		cfg.Members.Path = "members.txt"
	}
	if cfg.Members.Key == "" {
		cfg.Members.Key = "members"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 4
	}
}

func normalizeTimeout(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Validate checks struct tags and the cross-field requirements that tags
// cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.OpenAIKey == "" && cfg.AI.SessionToken == "" {
			return errors.New("OPENAI_API_KEY or SESSION_TOKEN is required for ai.provider=openai")
		}
	case "gemini":
		if cfg.AI.GeminiKey == "" {
			return errors.New("GEMINI_API_KEY is required for ai.provider=gemini")
		}
	}
	switch cfg.Members.Backend {
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required for members.backend=redis")
		}
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required for members.backend=postgres")
		}
	}
	return nil
}
