package main

import (
	"context"
	"log"

	"github.com/rvdzwet/invoice-validator-sub003/internal/contract"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm/gemini"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm/ollama"
	"github.com/rvdzwet/invoice-validator-sub003/internal/pipeline"
	"github.com/rvdzwet/invoice-validator-sub003/internal/prompt"
	"github.com/rvdzwet/invoice-validator-sub003/internal/reports"
	"github.com/rvdzwet/invoice-validator-sub003/internal/server"
	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/config"
	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/storage/db"
	"github.com/rvdzwet/invoice-validator-sub003/internal/steps"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validationapi"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	registry := contract.NewRegistry()
	if err := steps.RegisterContracts(registry); err != nil {
		log.Fatalf("register contracts: %v", err)
	}

	store := prompt.NewStore(cfg.TemplateRoot)
	if err := store.Load(); err != nil {
		log.Fatalf("load prompt templates: %v", err)
	}
	builder := prompt.NewBuilder(store, registry)

	provider, err := buildProvider(cfg, registry)
	if err != nil {
		log.Fatalf("configure llm provider: %v", err)
	}

	orch, err := pipeline.NewOrchestrator(provider, steps.All(builder))
	if err != nil {
		log.Fatalf("build pipeline: %v", err)
	}

	repo, err := buildReportsRepo(ctx, cfg)
	if err != nil {
		log.Fatalf("configure report storage: %v", err)
	}

	svc := validationapi.NewService(orch, reports.NewService(repo), cfg.MaxUploadBytes)
	handler := validationapi.NewHandler(svc)
	engine := server.NewEngine(cfg, handler)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting validation API on %s (provider=%s)", addr, provider.Name())

	if err := engine.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildProvider(cfg config.Config, registry *contract.Registry) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "ollama":
		return ollama.NewClient(ollama.Config{
			BaseURL:     cfg.OllamaBaseURL,
			TextModel:   cfg.OllamaTextModel,
			VisionModel: cfg.OllamaVisionModel,
			Timeout:     cfg.LLMTimeout,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			TopK:        cfg.TopK,
		}, registry)
	default:
		return gemini.NewClient(gemini.Config{
			BaseURL:     cfg.GeminiBaseURL,
			APIKey:      cfg.GeminiAPIKey,
			TextModel:   cfg.GeminiTextModel,
			VisionModel: cfg.GeminiVisionModel,
			Timeout:     cfg.LLMTimeout,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			TopK:        cfg.TopK,
		}, registry)
	}
}

// buildReportsRepo falls back to in-memory storage when no database is
// configured, so local development works without Postgres.
func buildReportsRepo(ctx context.Context, cfg config.Config) (reports.Repo, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, storing reports in memory")
		return reports.NewMemoryRepo(), nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, err
	}
	return &reports.PGRepo{DB: sqlDB}, nil
}
