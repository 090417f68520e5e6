package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port           string
	Env            string
	DatabaseURL    string
	TemplateRoot   string
	MaxUploadBytes int64

	LLMProvider string
	LLMTimeout  time.Duration
	Temperature float32
	TopP        float32
	TopK        int

	GeminiBaseURL     string
	GeminiAPIKey      string
	GeminiTextModel   string
	GeminiVisionModel string

	OllamaBaseURL     string
	OllamaTextModel   string
	OllamaVisionModel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		Env:            env,
		DatabaseURL:    dbURL,
		TemplateRoot:   getEnv("PROMPT_TEMPLATE_ROOT", "./prompts"),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 20<<20),

		LLMProvider: normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		LLMTimeout:  time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 120)) * time.Second,
		Temperature: getEnvFloat32("LLM_TEMPERATURE", 0),
		TopP:        getEnvFloat32("LLM_TOP_P", 0.95),
		TopK:        getEnvInt("LLM_TOP_K", 40),

		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiTextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-1.5-pro"),
		GeminiVisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-1.5-pro"),

		OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaTextModel:   getEnv("OLLAMA_TEXT_MODEL", "llama3.2"),
		OllamaVisionModel: getEnv("OLLAMA_VISION_MODEL", "llava"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return parsed
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return parsed
}

func getEnvFloat32(key string, def float32) float32 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %g", key, raw, def)
		return def
	}
	return float32(parsed)
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ollama":
		return "ollama"
	default:
		return "gemini"
	}
}
