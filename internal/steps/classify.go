package steps

import (
	"fmt"
	"strings"

	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/pipeline"
	"github.com/rvdzwet/invoice-validator-sub003/internal/prompt"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

// Accepted document types for a withdrawal request.
var acceptedDocumentTypes = map[string]bool{
	"invoice":   true,
	"receipt":   true,
	"quotation": true,
}

// ClassifyStep triages the document before any extraction happens.
type ClassifyStep struct {
	builder *prompt.Builder
}

// NewClassifyStep wires the classification step.
func NewClassifyStep(builder *prompt.Builder) *ClassifyStep {
	return &ClassifyStep{builder: builder}
}

func (s *ClassifyStep) Name() string         { return "classify_document" }
func (s *ClassifyStep) Order() int           { return 10 }
func (s *ClassifyStep) ContractName() string { return ContractClassification }

func (s *ClassifyStep) ShouldExecute(state *validation.State) bool {
	return runnable(state)
}

func (s *ClassifyStep) PreparePrompt(state *validation.State, doc *document.Stream) (string, []llm.Attachment, error) {
	text, err := s.builder.Build(s.Name(), s.ContractName(), map[string]string{
		"fileName":    state.Document.FileName,
		"contentType": state.Document.ContentType,
	})
	if err != nil {
		return "", nil, err
	}
	return documentPayload(text, doc)
}

func (s *ClassifyStep) ProcessResponse(state *validation.State, resp *llm.StructuredResponse) error {
	verdict, err := typedResponse[DocumentClassification](resp)
	if err != nil {
		return err
	}

	state.Classification = &validation.Classification{
		DocumentType: strings.ToLower(strings.TrimSpace(verdict.DocumentType)),
		IsReadable:   verdict.IsReadable,
		Language:     verdict.Language,
		Confidence:   verdict.Confidence,
	}
	state.RecordUsage(resp.Model, s.Name(), resp.Tokens)

	if !acceptedDocumentTypes[state.Classification.DocumentType] {
		state.LogStep(s.Name(), fmt.Sprintf("document classified as %q, not a withdrawal document", verdict.DocumentType), validation.StepWarning)
		state.AddIssue("InvalidDocumentType",
			fmt.Sprintf("expected an invoice, receipt or quotation but got %q", verdict.DocumentType),
			validation.SeverityError, "")
		state.Outcome = validation.OutcomeInvalid
		state.OutcomeSummary = "document is not an invoice, receipt or quotation"
		return nil
	}

	if !verdict.IsReadable {
		state.LogStep(s.Name(), "document accepted but poorly readable", validation.StepWarning)
		state.AddIssue("UnreadableDocument", "document content is hard to read; extraction may be unreliable", validation.SeverityWarning, "")
		return nil
	}

	state.LogStep(s.Name(), fmt.Sprintf("document classified as %s (confidence %.2f)", state.Classification.DocumentType, verdict.Confidence), validation.StepSuccess)
	return nil
}

var _ pipeline.Step = (*ClassifyStep)(nil)
