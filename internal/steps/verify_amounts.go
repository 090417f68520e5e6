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

// VerifyAmountsStep checks the arithmetic consistency of the extracted
// figures: line totals versus subtotal, subtotal plus VAT versus total.
type VerifyAmountsStep struct {
	builder *prompt.Builder
}

// NewVerifyAmountsStep wires the amount verification step.
func NewVerifyAmountsStep(builder *prompt.Builder) *VerifyAmountsStep {
	return &VerifyAmountsStep{builder: builder}
}

func (s *VerifyAmountsStep) Name() string         { return "verify_amounts" }
func (s *VerifyAmountsStep) Order() int           { return 30 }
func (s *VerifyAmountsStep) ContractName() string { return ContractVerification }

func (s *VerifyAmountsStep) ShouldExecute(state *validation.State) bool {
	return runnable(state) && state.Invoice != nil
}

func (s *VerifyAmountsStep) PreparePrompt(state *validation.State, doc *document.Stream) (string, []llm.Attachment, error) {
	text, err := s.builder.Build(s.Name(), s.ContractName(), map[string]string{
		"currency": state.Invoice.Currency,
	})
	if err != nil {
		return "", nil, err
	}
	text, err = invoiceContext(text, state.Invoice)
	if err != nil {
		return "", nil, err
	}
	return text, nil, nil
}

func (s *VerifyAmountsStep) ProcessResponse(state *validation.State, resp *llm.StructuredResponse) error {
	verification, err := typedResponse[AmountVerification](resp)
	if err != nil {
		return err
	}
	state.RecordUsage(resp.Model, s.Name(), resp.Tokens)

	for _, finding := range verification.Findings {
		state.AddIssue("AmountInconsistency", finding.Problem, findingSeverity(finding.Severity), finding.Field)
	}

	if !verification.TotalsMatch {
		state.AddIssue("TotalsMismatch", "line item totals do not add up to the invoice total", validation.SeverityError, "totalAmount")
	}
	if !verification.VATConsistent {
		state.AddIssue("VATInconsistency", "VAT amount is inconsistent with the subtotal and total", validation.SeverityWarning, "vatAmount")
	}

	if verification.RequiresReview || !verification.TotalsMatch {
		if state.Outcome == validation.OutcomeUnknown {
			state.Outcome = validation.OutcomeNeedsReview
		}
		state.LogStep(s.Name(), fmt.Sprintf("amount verification flagged %d findings for review", len(verification.Findings)), validation.StepWarning)
		return nil
	}

	state.LogStep(s.Name(), "amounts are arithmetically consistent", validation.StepSuccess)
	return nil
}

func findingSeverity(raw string) validation.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return validation.SeverityError
	case "warning":
		return validation.SeverityWarning
	default:
		return validation.SeverityInfo
	}
}

var _ pipeline.Step = (*VerifyAmountsStep)(nil)
