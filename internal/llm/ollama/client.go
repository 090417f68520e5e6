// Package ollama speaks the Ollama /api/chat protocol.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rvdzwet/invoice-validator-sub003/internal/contract"
	"github.com/rvdzwet/invoice-validator-sub003/internal/conversation"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
)

const defaultBaseURL = "http://localhost:11434"

// Config carries the Ollama connection settings.
type Config struct {
	BaseURL     string
	TextModel   string
	VisionModel string
	Timeout     time.Duration
	Temperature float32
	TopP        float32
	TopK        int
}

// Client implements llm.Provider against a local or remote Ollama daemon.
type Client struct {
	cfg        Config
	registry   *contract.Registry
	httpClient *http.Client
}

// NewClient validates required settings and constructs an Ollama client.
func NewClient(cfg Config, registry *contract.Registry) (*Client, error) {
	if strings.TrimSpace(cfg.TextModel) == "" {
		return nil, fmt.Errorf("OLLAMA_TEXT_MODEL is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("contract registry is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.TextModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg:        cfg,
		registry:   registry,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name identifies the backend in usage records and errors.
func (c *Client) Name() string { return "ollama" }

// Model returns the model identifier used for text or multimodal requests.
func (c *Client) Model(multimodal bool) string {
	if multimodal {
		return c.cfg.VisionModel
	}
	return c.cfg.TextModel
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatOptions struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// GenerateStructured sends the prompt plus rolling conversation history with
// the respond-as-JSON format flag and decodes the reply into the contract.
func (c *Client) GenerateStructured(ctx context.Context, req llm.StructuredRequest) (*llm.StructuredResponse, error) {
	model := c.Model(len(req.Attachments) > 0)

	messages := historyMessages(req.Conversation)
	if req.Conversation != nil {
		req.Conversation.AddUserMessage(req.Prompt, req.StepLabel)
	}
	current := chatMessage{Role: "user", Content: req.Prompt}
	for _, att := range req.Attachments {
		current.Images = append(current.Images, base64.StdEncoding.EncodeToString(att.Data))
	}
	messages = append(messages, current)

	body := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Format:   "json",
		Options: chatOptions{
			Temperature: c.cfg.Temperature,
			TopP:        c.cfg.TopP,
			TopK:        c.cfg.TopK,
		},
	}

	raw, tokens, err := c.send(ctx, body)
	if err != nil {
		return nil, err
	}

	value, cleaned, err := llm.DecodeContract(c.registry, req.ContractName, raw)
	if err != nil {
		return nil, tagProvider(err, c.Name())
	}
	if req.Conversation != nil {
		req.Conversation.AddModelMessage(raw)
	}
	if tokens == 0 {
		tokens = llm.EstimateTokens(req.Prompt + raw)
	}
	return &llm.StructuredResponse{
		Value:   value,
		RawText: cleaned,
		Model:   model,
		Tokens:  tokens,
	}, nil
}

func (c *Client) send(ctx context.Context, body chatRequest) (string, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("marshal ollama request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", 0, &llm.Error{Kind: llm.KindTimeout, Provider: c.Name(), Message: err.Error(), Err: err}
		}
		return "", 0, &llm.Error{Kind: llm.KindTransport, Provider: c.Name(), Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &llm.Error{Kind: llm.KindTransport, Provider: c.Name(), Message: err.Error(), Err: err}
	}

	var parsed chatResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", 0, &llm.Error{
				Kind:     llm.KindBackend,
				Provider: c.Name(),
				Status:   resp.StatusCode,
				Message:  strings.TrimSpace(string(rawBody)),
			}
		}
		return "", 0, &llm.Error{Kind: llm.KindTransport, Provider: c.Name(), Message: fmt.Sprintf("response parse: %v", err), Err: err}
	}
	if parsed.Error != "" {
		return "", 0, &llm.Error{Kind: llm.KindBackend, Provider: c.Name(), Status: resp.StatusCode, Message: parsed.Error}
	}
	if resp.StatusCode >= 400 {
		return "", 0, &llm.Error{
			Kind:     llm.KindBackend,
			Provider: c.Name(),
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(rawBody)),
		}
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", 0, &llm.Error{Kind: llm.KindBackend, Provider: c.Name(), Status: resp.StatusCode, Message: "response empty content"}
	}
	return content, parsed.PromptEvalCount + parsed.EvalCount, nil
}

func historyMessages(conv *conversation.Conversation) []chatMessage {
	if conv == nil {
		return nil
	}
	msgs := conv.Messages()
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == conversation.RoleModel {
			role = "assistant"
		}
		out = append(out, chatMessage{Role: role, Content: m.Content})
	}
	return out
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout")
}

func tagProvider(err error, provider string) error {
	var perr *llm.Error
	if errors.As(err, &perr) && perr.Provider == "" {
		perr.Provider = provider
	}
	return err
}

var _ llm.Provider = (*Client)(nil)
