// Package gemini speaks the Gemini generateContent REST protocol.
package gemini

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

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config carries the Gemini connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	TextModel   string
	VisionModel string
	Timeout     time.Duration
	Temperature float32
	TopP        float32
	TopK        int
}

// Client implements llm.Provider against the Gemini REST API.
type Client struct {
	cfg        Config
	registry   *contract.Registry
	httpClient *http.Client
}

// NewClient validates required settings and constructs a Gemini client.
func NewClient(cfg Config, registry *contract.Registry) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.TextModel) == "" {
		return nil, fmt.Errorf("GEMINI_TEXT_MODEL is required")
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
func (c *Client) Name() string { return "gemini" }

// Model returns the model identifier used for text or multimodal requests.
func (c *Client) Model(multimodal bool) string {
	if multimodal {
		return c.cfg.VisionModel
	}
	return c.cfg.TextModel
}

type generatePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContent struct {
	Role  string         `json:"role"`
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float32 `json:"temperature"`
	TopP             float32 `json:"topP"`
	TopK             int     `json:"topK"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateStructured sends the prompt plus rolling conversation history and
// decodes the JSON reply into the requested contract.
func (c *Client) GenerateStructured(ctx context.Context, req llm.StructuredRequest) (*llm.StructuredResponse, error) {
	model := c.Model(len(req.Attachments) > 0)

	contents := historyContents(req.Conversation)
	if req.Conversation != nil {
		req.Conversation.AddUserMessage(req.Prompt, req.StepLabel)
	}
	current := generateContent{Role: "user", Parts: []generatePart{{Text: req.Prompt}}}
	for _, att := range req.Attachments {
		current.Parts = append(current.Parts, generatePart{
			InlineData: &inlineData{
				MIMEType: att.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(att.Data),
			},
		})
	}
	contents = append(contents, current)

	body := generateRequest{
		Contents: contents,
		// All three sampling knobs are sent as configured; zero is a valid
		// temperature and must not fall back to the backend default.
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			Temperature:      c.cfg.Temperature,
			TopP:             c.cfg.TopP,
			TopK:             c.cfg.TopK,
		},
	}

	raw, tokens, err := c.send(ctx, model, body)
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

func (c *Client) send(ctx context.Context, model string, body generateRequest) (string, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", strings.TrimRight(c.cfg.BaseURL, "/"), model, c.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build gemini request: %w", err)
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

	var parsed generateResponse
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
	if parsed.Error != nil {
		return "", 0, &llm.Error{
			Kind:     llm.KindBackend,
			Provider: c.Name(),
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Status),
		}
	}
	if resp.StatusCode >= 400 {
		return "", 0, &llm.Error{
			Kind:     llm.KindBackend,
			Provider: c.Name(),
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(rawBody)),
		}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", 0, &llm.Error{Kind: llm.KindBackend, Provider: c.Name(), Status: resp.StatusCode, Message: "response missing candidates"}
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	content := strings.TrimSpace(text.String())
	if content == "" {
		return "", 0, &llm.Error{Kind: llm.KindBackend, Provider: c.Name(), Status: resp.StatusCode, Message: "response empty content"}
	}

	tokens := 0
	if parsed.UsageMetadata != nil {
		tokens = parsed.UsageMetadata.TotalTokenCount
	}
	return content, tokens, nil
}

func historyContents(conv *conversation.Conversation) []generateContent {
	if conv == nil {
		return nil
	}
	msgs := conv.Messages()
	out := make([]generateContent, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == conversation.RoleModel {
			role = "model"
		}
		out = append(out, generateContent{
			Role:  role,
			Parts: []generatePart{{Text: m.Content}},
		})
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
