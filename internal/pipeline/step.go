// Package pipeline runs the ordered validation steps against a shared run
// state and one document stream.
package pipeline

import (
	"strings"

	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

// Step is one unit of the validation workflow. Steps are independent of each
// other's internals and communicate only through the shared validation state.
type Step interface {
	// Name uniquely identifies the step in logs and issues.
	Name() string
	// Order positions the step in the pipeline; ties keep declaration order.
	Order() int
	// ContractName names the response contract the backend must satisfy.
	ContractName() string
	// ShouldExecute decides whether the step runs for the current state.
	ShouldExecute(state *validation.State) bool
	// PreparePrompt builds the prompt and optional image attachments.
	PreparePrompt(state *validation.State, doc *document.Stream) (string, []llm.Attachment, error)
	// ProcessResponse applies the typed backend response to the state. It is
	// responsible for appending its own step log entry and usage record.
	ProcessResponse(state *validation.State, resp *llm.StructuredResponse) error
}

// IssueType derives the issue tag for a failed step: classify_document
// becomes ClassifyDocumentError.
func IssueType(stepName string) string {
	parts := strings.Split(stepName, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	b.WriteString("Error")
	return b.String()
}
