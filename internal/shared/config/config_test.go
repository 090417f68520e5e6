package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LLM_PROVIDER", "LLM_TIMEOUT_SECONDS",
		"GEMINI_BASE_URL", "OLLAMA_BASE_URL", "PROMPT_TEMPLATE_ROOT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected default env dev, got %s", cfg.Env)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("expected default provider gemini, got %s", cfg.LLMProvider)
	}
	if cfg.LLMTimeout != 120*time.Second {
		t.Fatalf("expected default timeout 120s, got %s", cfg.LLMTimeout)
	}
	if cfg.OllamaBaseURL != "http://localhost:11434" {
		t.Fatalf("unexpected ollama base url %s", cfg.OllamaBaseURL)
	}
}

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"ollama":  "ollama",
		"OLLAMA ": "ollama",
		"gemini":  "gemini",
		"":        "gemini",
		"unknown": "gemini",
	}
	for raw, want := range cases {
		if got := normalizeProvider(raw); got != want {
			t.Fatalf("normalizeProvider(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestGetEnvIntInvalid(t *testing.T) {
	t.Setenv("LLM_TOP_K", "not-a-number")
	if got := getEnvInt("LLM_TOP_K", 40); got != 40 {
		t.Fatalf("expected fallback 40, got %d", got)
	}
}
