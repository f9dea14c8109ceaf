package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/sozercan/insight-gateway/internal/errors"
)

type Config struct {
	Environment string        `mapstructure:"environment"`
	Server      ServerConfig  `mapstructure:"server"`
	Auth        AuthConfig    `mapstructure:"auth"`
	LLM         LLMConfig     `mapstructure:"llm"`
	Prompts     PromptsConfig `mapstructure:"prompts"`
	CORS        CORSConfig    `mapstructure:"cors"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// AuthConfig points at the hosted identity provider.
type AuthConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Timeout     time.Duration `mapstructure:"timeout"`
	BypassPaths []string      `mapstructure:"bypass_paths"`
}

type LLMConfig struct {
	Provider       string        `mapstructure:"provider"`
	APIKey         string        `mapstructure:"api_key"`
	Endpoint       string        `mapstructure:"endpoint"`
	APIVersion     string        `mapstructure:"api_version"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int64         `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
}

type PromptsConfig struct {
	CatalogFile string `mapstructure:"catalog_file"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envBindings maps config keys to the environment variables that may set
// them, in priority order.
var envBindings = map[string][]string{
	"environment":             {"APP_ENVIRONMENT"},
	"server.port":             {"SERVER_PORT", "PORT"},
	"server.host":             {"SERVER_HOST"},
	"server.read_timeout":     {"SERVER_READ_TIMEOUT"},
	"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
	"server.shutdown_timeout": {"SERVER_SHUTDOWN_TIMEOUT"},
	"auth.base_url":           {"SUPABASE_URL", "AUTH_BASE_URL"},
	"auth.api_key":            {"SUPABASE_ANON_KEY", "AUTH_API_KEY"},
	"auth.timeout":            {"AUTH_TIMEOUT"},
	"auth.bypass_paths":       {"AUTH_BYPASS_PATHS"},
	"llm.provider":            {"LLM_PROVIDER"},
	"llm.api_key":             {"LLM_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY"},
	"llm.endpoint":            {"LLM_ENDPOINT"},
	"llm.api_version":         {"LLM_API_VERSION"},
	"llm.model":               {"LLM_MODEL"},
	"llm.temperature":         {"LLM_TEMPERATURE"},
	"llm.max_tokens":          {"LLM_MAX_TOKENS"},
	"llm.timeout":             {"LLM_TIMEOUT"},
	"llm.max_concurrency":     {"LLM_MAX_CONCURRENCY"},
	"prompts.catalog_file":    {"PROMPTS_CATALOG_FILE"},
	"cors.allowed_origins":    {"CORS_ALLOWED_ORIGINS"},
	"logging.level":           {"LOG_LEVEL"},
	"logging.format":          {"LOG_FORMAT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("auth.timeout", 10*time.Second)
	v.SetDefault("auth.bypass_paths", []string{"/", "/metrics"})

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_concurrency", 0)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// LoadConfig reads config.yaml (if present), .env (outside production) and
// the environment, then validates the result.
func LoadConfig() (*Config, error) {
	if os.Getenv("APP_ENVIRONMENT") != "production" {
		// A missing .env is normal in containers.
		_ = godotenv.Load()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && os.Getenv("CONFIG_FILE") != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated env values arrive as a single element.
	cfg.Auth.BypassPaths = splitList(cfg.Auth.BypassPaths)
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	cfg.Auth.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.Auth.BaseURL), "/")
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Auth.BaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.Auth.APIKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	if len(missing) > 0 {
		return apperrors.NewConfigInvalidError("missing " + strings.Join(missing, " or ") + " in environment")
	}

	switch c.LLM.Provider {
	case "gemini", "openai", "azure":
	default:
		return apperrors.NewConfigInvalidError(fmt.Sprintf("unknown llm provider %q", c.LLM.Provider))
	}

	if c.LLM.MaxConcurrency < 0 {
		return apperrors.NewConfigInvalidError("llm.max_concurrency must be >= 0")
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
