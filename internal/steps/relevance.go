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

// RelevanceStep asks the model whether the billed work is construction
// related and eligible for fund withdrawal. The eligibility judgement itself
// is delegated to the model; this step only applies the verdict.
type RelevanceStep struct {
	builder *prompt.Builder
}

// NewRelevanceStep wires the construction-relevance step.
func NewRelevanceStep(builder *prompt.Builder) *RelevanceStep {
	return &RelevanceStep{builder: builder}
}

func (s *RelevanceStep) Name() string         { return "assess_construction_relevance" }
func (s *RelevanceStep) Order() int           { return 40 }
func (s *RelevanceStep) ContractName() string { return ContractRelevance }

func (s *RelevanceStep) ShouldExecute(state *validation.State) bool {
	return runnable(state) && state.Invoice != nil
}

func (s *RelevanceStep) PreparePrompt(state *validation.State, doc *document.Stream) (string, []llm.Attachment, error) {
	text, err := s.builder.Build(s.Name(), s.ContractName(), map[string]string{
		"vendorName": state.Invoice.Vendor.Name,
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

func (s *RelevanceStep) ProcessResponse(state *validation.State, resp *llm.StructuredResponse) error {
	relevance, err := typedResponse[ConstructionRelevance](resp)
	if err != nil {
		return err
	}
	state.RecordUsage(resp.Model, s.Name(), resp.Tokens)

	if !relevance.Relevant {
		state.LogStep(s.Name(), "billed work is not construction related", validation.StepWarning)
		state.AddIssue("NotConstructionRelated", relevance.Explanation, validation.SeverityError, "")
		state.Outcome = validation.OutcomeInvalid
		state.OutcomeSummary = "expenses are not eligible construction work"
		return nil
	}

	if len(relevance.IneligibleItems) > 0 {
		state.AddIssue("IneligibleLineItems",
			fmt.Sprintf("some line items are not fund eligible: %s", strings.Join(relevance.IneligibleItems, "; ")),
			validation.SeverityWarning, "lineItems")
		if state.Outcome == validation.OutcomeUnknown {
			state.Outcome = validation.OutcomeNeedsReview
		}
	}

	state.LogStep(s.Name(), fmt.Sprintf("construction relevance confirmed (confidence %.2f)", relevance.Confidence), validation.StepSuccess)
	return nil
}

var _ pipeline.Step = (*RelevanceStep)(nil)
