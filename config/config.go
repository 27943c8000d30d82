// Package config reads the application settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env           string
	Port          string
	SessionSecret string

	SqliteDB    string
	DatabaseURL string
	AnalyticsDB string

	LLM LLMConfig

	PromptTemplatesDir string
	UploadDir          string
	ExportCacheDir     string
	ExportCacheMaxAge  time.Duration
	HistoryLimit       int
}

type LLMConfig struct {
	DefaultProvider string
	Timeout         time.Duration
	Providers       map[string]ProviderConfig
}

type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SQLITE_DB", "notes.db")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("OPENAI_MODEL", "gpt-4")
	v.SetDefault("GROQ_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("LLM_TIMEOUT", "120s")
	v.SetDefault("PROMPT_TEMPLATES_DIR", "prompts/templates")
	v.SetDefault("UPLOAD_DIR", os.TempDir())
	v.SetDefault("EXPORT_CACHE_DIR", "cache/exports")
	v.SetDefault("EXPORT_CACHE_MAX_AGE", "24h")
	v.SetDefault("HISTORY_LIMIT", 20)
}

// Load reads .env (when present) and the process environment. Environment
// variables always win over .env entries.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Env:           v.GetString("APP_ENV"),
		Port:          v.GetString("PORT"),
		SessionSecret: v.GetString("SESSION_SECRET"),
		SqliteDB:      v.GetString("SQLITE_DB"),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		AnalyticsDB:   v.GetString("ANALYTICS_DB"),
		LLM: LLMConfig{
			DefaultProvider: strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
			Timeout:         v.GetDuration("LLM_TIMEOUT"),
			Providers: map[string]ProviderConfig{
				"openai": {
					APIKey:  strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
					Model:   v.GetString("OPENAI_MODEL"),
					BaseURL: v.GetString("OPENAI_BASE_URL"),
				},
				"groq": {
					APIKey:  strings.TrimSpace(v.GetString("GROQ_API_KEY")),
					Model:   v.GetString("GROQ_MODEL"),
					BaseURL: v.GetString("GROQ_BASE_URL"),
				},
			},
		},
		PromptTemplatesDir: v.GetString("PROMPT_TEMPLATES_DIR"),
		UploadDir:          v.GetString("UPLOAD_DIR"),
		ExportCacheDir:     v.GetString("EXPORT_CACHE_DIR"),
		ExportCacheMaxAge:  v.GetDuration("EXPORT_CACHE_MAX_AGE"),
		HistoryLimit:       v.GetInt("HISTORY_LIMIT"),
	}
}
