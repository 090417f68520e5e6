package main

// Render an assembled prompt for a template, optionally sending it to the
// configured LLM backend with a document:
//   go run ./cmd/prompttest -template classify_document -contract documentClassification -doc testdata/invoice.pdf -run

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rvdzwet/invoice-validator-sub003/internal/contract"
	"github.com/rvdzwet/invoice-validator-sub003/internal/conversation"
	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm/gemini"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm/ollama"
	"github.com/rvdzwet/invoice-validator-sub003/internal/prompt"
	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/config"
	"github.com/rvdzwet/invoice-validator-sub003/internal/steps"
)

func main() {
	cfg := config.Load()

	templateName := flag.String("template", "classify_document", "Prompt template name")
	contractName := flag.String("contract", steps.ContractClassification, "Response contract name")
	docPath := flag.String("doc", "", "Path to a document file (required with -run)")
	run := flag.Bool("run", false, "Send the prompt to the configured LLM backend")
	flag.Parse()

	registry := contract.NewRegistry()
	if err := steps.RegisterContracts(registry); err != nil {
		exitErr(fmt.Sprintf("register contracts: %v", err))
	}

	store := prompt.NewStore(cfg.TemplateRoot)
	if err := store.Load(); err != nil {
		exitErr(fmt.Sprintf("load prompt templates: %v", err))
	}

	builder := prompt.NewBuilder(store, registry)
	text, err := builder.Build(*templateName, *contractName, map[string]string{
		"fileName":    filepath.Base(*docPath),
		"contentType": mimeFromPath(*docPath),
	})
	if err != nil {
		exitErr(fmt.Sprintf("build prompt: %v", err))
	}

	fmt.Println(text)

	if !*run {
		return
	}
	if strings.TrimSpace(*docPath) == "" {
		exitErr("-doc is required with -run")
	}

	data, err := os.ReadFile(*docPath)
	if err != nil {
		exitErr(fmt.Sprintf("read document: %v", err))
	}
	doc := document.NewStream(filepath.Base(*docPath), mimeFromPath(*docPath), data)

	provider, err := buildProvider(cfg, registry)
	if err != nil {
		exitErr(fmt.Sprintf("configure llm provider: %v", err))
	}

	var attachments []llm.Attachment
	if doc.IsImage() {
		attachments = append(attachments, llm.Attachment{Data: doc.Bytes(), MIMEType: doc.ContentType})
	} else {
		text = text + "\n\nDocument content:\n\n" + string(doc.Bytes())
	}

	resp, err := provider.GenerateStructured(context.Background(), llm.StructuredRequest{
		ContractName: *contractName,
		Prompt:       text,
		Conversation: conversation.New(),
		StepLabel:    *templateName,
		Attachments:  attachments,
	})
	if err != nil {
		exitErr(fmt.Sprintf("llm call: %v", err))
	}

	fmt.Println("--- response ---")
	fmt.Println(resp.RawText)
	fmt.Printf("model=%s tokens=%d\n", resp.Model, resp.Tokens)
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

func mimeFromPath(path string) string {
	if path == "" {
		return ""
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); t != "" {
		return t
	}
	return "application/octet-stream"
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
