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

// SummarizeStep closes the run: the model weighs the accumulated issues and
// produces the final verdict and a human-readable summary.
type SummarizeStep struct {
	builder *prompt.Builder
}

// NewSummarizeStep wires the summary step.
func NewSummarizeStep(builder *prompt.Builder) *SummarizeStep {
	return &SummarizeStep{builder: builder}
}

func (s *SummarizeStep) Name() string         { return "summarize_validation" }
func (s *SummarizeStep) Order() int           { return 50 }
func (s *SummarizeStep) ContractName() string { return ContractSummary }

func (s *SummarizeStep) ShouldExecute(state *validation.State) bool {
	return runnable(state)
}

func (s *SummarizeStep) PreparePrompt(state *validation.State, doc *document.Stream) (string, []llm.Attachment, error) {
	text, err := s.builder.Build(s.Name(), s.ContractName(), map[string]string{
		"issueCount": fmt.Sprintf("%d", len(state.Issues)),
	})
	if err != nil {
		return "", nil, err
	}

	if len(state.Issues) > 0 {
		var sb strings.Builder
		sb.WriteString(text)
		sb.WriteString("\n\nFindings so far:\n")
		for _, issue := range state.Issues {
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", issue.Severity, issue.Type, issue.Description))
		}
		text = sb.String()
	}
	return text, nil, nil
}

func (s *SummarizeStep) ProcessResponse(state *validation.State, resp *llm.StructuredResponse) error {
	summary, err := typedResponse[ValidationSummary](resp)
	if err != nil {
		return err
	}
	state.RecordUsage(resp.Model, s.Name(), resp.Tokens)

	state.OutcomeSummary = summary.Summary

	// The summary can only settle or downgrade the verdict; an earlier
	// disqualification never comes back here because the step is skipped.
	switch strings.ToLower(strings.TrimSpace(summary.Outcome)) {
	case "invalid":
		state.Outcome = validation.OutcomeInvalid
	case "needsreview", "needs_review":
		state.Outcome = validation.OutcomeNeedsReview
	case "valid":
		if state.Outcome == validation.OutcomeUnknown {
			state.Outcome = validation.OutcomeValid
		}
	default:
		state.AddIssue("UnknownSummaryOutcome",
			fmt.Sprintf("model returned unrecognized outcome %q", summary.Outcome),
			validation.SeverityWarning, "outcome")
		if state.Outcome == validation.OutcomeUnknown {
			state.Outcome = validation.OutcomeNeedsReview
		}
	}

	for _, rec := range summary.Recommendations {
		state.AddIssue("Recommendation", rec, validation.SeverityInfo, "")
	}

	state.LogStep(s.Name(), fmt.Sprintf("validation summarized with outcome %s", state.Outcome), validation.StepSuccess)
	return nil
}

// All returns the full step set in declaration order.
func All(builder *prompt.Builder) []pipeline.Step {
	return []pipeline.Step{
		NewClassifyStep(builder),
		NewExtractInvoiceStep(builder),
		NewVerifyAmountsStep(builder),
		NewRelevanceStep(builder),
		NewSummarizeStep(builder),
	}
}

var _ pipeline.Step = (*SummarizeStep)(nil)
