package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "designgen"
	EnvFileName = "config.env"
)

// LoadEnvFile loads environment variables from .env in the working directory
// and from the config file in the user's config directory. Errors are ignored
// since neither file may exist.
func LoadEnvFile() {
	_ = godotenv.Load()
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// Config holds runtime settings read from the environment.
type Config struct {
	OpenAIAPIKey  string
	SerpAPIKey    string
	GeminiAPIKey  string
	Addr          string
	OutputDir     string
	DBPath        string
	SessionMaxAge time.Duration
	FastMode      bool
}

// FromEnv builds a Config from environment variables, applying defaults for
// everything except API keys.
func FromEnv() Config {
	cfg := Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		SerpAPIKey:    os.Getenv("SERPAPI_API_KEY"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		Addr:          ":5003",
		OutputDir:     "output",
		SessionMaxAge: 7 * 24 * time.Hour,
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	}
	if dir := os.Getenv("OUTPUT_DIR"); dir != "" {
		cfg.OutputDir = dir
	}
	cfg.DBPath = filepath.Join(cfg.OutputDir, "sessions.db")
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if hours := os.Getenv("SESSION_MAX_AGE_HOURS"); hours != "" {
		if n, err := strconv.Atoi(hours); err == nil && n > 0 {
			cfg.SessionMaxAge = time.Duration(n) * time.Hour
		}
	}
	if fast := os.Getenv("FAST_MODE"); fast != "" {
		cfg.FastMode, _ = strconv.ParseBool(fast)
	}
	return cfg
}

// Validate reports the required API keys that are missing. Gemini is only
// required when selected as the analysis provider.
func (c Config) Validate() error {
	var missing []string
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.SerpAPIKey == "" {
		missing = append(missing, "SERPAPI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
