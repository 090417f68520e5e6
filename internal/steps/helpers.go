package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/extract"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

// documentPayload prepares the document for a prompt: images become
// attachments for the multimodal model, everything else is extracted to text
// and appended to the prompt body.
func documentPayload(prompt string, doc *document.Stream) (string, []llm.Attachment, error) {
	data, err := io.ReadAll(doc)
	if err != nil {
		return "", nil, fmt.Errorf("read document stream: %w", err)
	}

	if doc.IsImage() {
		return prompt, []llm.Attachment{{Data: data, MIMEType: doc.ContentType}}, nil
	}

	text, err := extract.Text(context.Background(), data, doc.ContentType, doc.FileName)
	if err != nil {
		return "", nil, err
	}
	return prompt + "\n\nDocument content:\n\n" + text, nil, nil
}

// invoiceContext appends the extracted invoice as JSON so later steps reason
// over the same data the extraction step produced.
func invoiceContext(prompt string, invoice *validation.Invoice) (string, error) {
	payload, err := json.MarshalIndent(invoice, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal invoice context: %w", err)
	}
	return prompt + "\n\nExtracted invoice data:\n\n```json\n" + string(payload) + "\n```", nil
}

// runnable is the common precondition: the run has not been disqualified yet.
// NeedsReview is not disqualifying; later steps still refine the verdict.
func runnable(state *validation.State) bool {
	return !state.Halted()
}

func typedResponse[T any](resp *llm.StructuredResponse) (*T, error) {
	typed, ok := resp.Value.(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected response type %T", resp.Value)
	}
	return typed, nil
}
