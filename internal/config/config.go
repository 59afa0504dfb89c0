// Package config loads configuration from environment variables.
package config

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds runtime settings.
type Config struct {
	ServerPort  string
	FrontendURL string

	// DatabaseURL selects PostgreSQL persistence; empty falls back to
	// the in-memory store.
	DatabaseURL string

	LLMProvider   string
	LLMModel      string
	GoogleAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string

	// SpeechCommand is the local text-to-speech binary; empty disables
	// synthesis.
	SpeechCommand string
	SpeechArgs    []string
	SpeechLocale  string
}

// Load reads env vars (with optional .env file), applies defaults, and
// validates that the selected provider has credentials.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := Config{
		ServerPort:    getEnv("PORT", "8080"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:5173"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LLMProvider:   getEnv("LLM_PROVIDER", ProviderGemini),
		LLMModel:      os.Getenv("LLM_MODEL"),
		GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		SpeechCommand: os.Getenv("SPEECH_COMMAND"),
		SpeechArgs:    strings.Fields(os.Getenv("SPEECH_ARGS")),
		SpeechLocale:  getEnv("SPEECH_LOCALE", "ja-JP"),
	}

	switch cfg.LLMProvider {
	case ProviderGemini:
		if cfg.LLMModel == "" {
			cfg.LLMModel = "gemini-2.0-flash"
		}
		if cfg.GoogleAPIKey == "" {
			log.Fatal("GOOGLE_API_KEY environment variable is required for the gemini provider")
		}
	case ProviderOpenAI:
		if cfg.LLMModel == "" {
			cfg.LLMModel = "gpt-4o-mini"
		}
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required for the openai provider")
		}
	default:
		log.Fatalf("unknown LLM_PROVIDER %q (want gemini or openai)", cfg.LLMProvider)
	}

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
