// Package llm abstracts the generative-AI backends behind one provider
// interface. Backends differ only in wire protocol; conversation handling,
// fence stripping and contract decoding are uniform.
package llm

import (
	"context"
	"encoding/json"

	"github.com/rvdzwet/invoice-validator-sub003/internal/contract"
	"github.com/rvdzwet/invoice-validator-sub003/internal/conversation"
)

// Attachment is an image payload sent with a multimodal request.
type Attachment struct {
	Data     []byte
	MIMEType string
}

// StructuredRequest asks a backend for a JSON response conforming to a
// registered contract. The prompt text already carries the schema and example.
type StructuredRequest struct {
	ContractName string
	Prompt       string
	Conversation *conversation.Conversation
	StepLabel    string
	Attachments  []Attachment
}

// StructuredResponse is a decoded backend reply.
type StructuredResponse struct {
	Value   any    // freshly allocated contract value, already unmarshaled
	RawText string // model text after fence stripping
	Model   string
	Tokens  int // backend-reported or estimated token usage
}

// Provider sends structured prompts to one AI backend. Implementations must
// append the outgoing prompt to the conversation before sending, and the raw
// reply after a successful call. Providers never retry internally.
type Provider interface {
	Name() string
	Model(multimodal bool) string
	GenerateStructured(ctx context.Context, req StructuredRequest) (*StructuredResponse, error)
}

// DecodeContract cleans a backend reply and unmarshals it into a fresh value
// of the named contract. Used by every backend after protocol handling.
func DecodeContract(reg *contract.Registry, name, raw string) (any, string, error) {
	cleaned := StripFences(raw)
	value, err := reg.New(name)
	if err != nil {
		return nil, cleaned, err
	}
	if err := json.Unmarshal([]byte(cleaned), value); err != nil {
		return nil, cleaned, &Error{
			Kind:     KindDeserialization,
			Contract: name,
			Message:  err.Error(),
			Response: cleaned,
			Err:      err,
		}
	}
	return value, cleaned, nil
}

// EstimateTokens approximates token usage for backends that do not report it.
// The four-characters-per-token heuristic is close enough for audit records.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
