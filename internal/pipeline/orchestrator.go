package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rvdzwet/invoice-validator-sub003/internal/conversation"
	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/telemetry"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

const pipelineStep = "pipeline"

// Orchestrator executes the validation steps strictly sequentially against a
// shared state. Step failures are recovered into the state and halt the run;
// only infrastructure failures before the step loop surface as errors.
type Orchestrator struct {
	provider llm.Provider
	steps    []Step
}

// NewOrchestrator sorts the steps ascending by Order (stable, so ties keep
// declaration order) and returns a ready orchestrator.
func NewOrchestrator(provider llm.Provider, steps []Step) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("orchestrator requires a provider")
	}
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &Orchestrator{provider: provider, steps: sorted}, nil
}

// Run drives the step loop. The returned state is always the one passed in,
// mutated; callers read the outcome from it rather than from an error.
func (o *Orchestrator) Run(ctx context.Context, state *validation.State, doc *document.Stream) (*validation.State, error) {
	if state == nil {
		return nil, fmt.Errorf("orchestrator requires a validation state")
	}
	if doc == nil {
		return nil, fmt.Errorf("orchestrator requires a document stream")
	}

	state.Conversation = conversation.New()
	state.LogStep(pipelineStep, fmt.Sprintf("validation started for %s", state.Document.FileName), validation.StepInProgress)
	telemetry.Info("pipeline.start", map[string]any{
		"validation_id": state.ID,
		"file_name":     state.Document.FileName,
		"steps":         len(o.steps),
	})

	for _, step := range o.steps {
		if err := ctx.Err(); err != nil {
			o.cancel(state, step.Name(), err)
			break
		}

		if !step.ShouldExecute(state) {
			state.LogStep(step.Name(), "step skipped", validation.StepSkipped)
			continue
		}

		if err := o.runStep(ctx, state, doc, step); err != nil {
			if isCancellation(ctx, err) {
				o.cancel(state, step.Name(), err)
			} else {
				o.fail(state, step.Name(), err)
			}
			break
		}

		// A later step cannot undo a disqualifying result from an earlier one.
		if state.Halted() {
			telemetry.Info("pipeline.halt", map[string]any{
				"validation_id": state.ID,
				"after_step":    step.Name(),
				"outcome":       string(state.Outcome),
			})
			break
		}
	}

	state.LogStep(pipelineStep, fmt.Sprintf("validation finished with outcome %s", state.Outcome), finalStatus(state.Outcome))
	telemetry.Info("pipeline.complete", map[string]any{
		"validation_id": state.ID,
		"outcome":       string(state.Outcome),
		"issues":        len(state.Issues),
	})
	return state, nil
}

func (o *Orchestrator) runStep(ctx context.Context, state *validation.State, doc *document.Stream, step Step) error {
	prompt, attachments, err := step.PreparePrompt(state, doc)
	if err != nil {
		return fmt.Errorf("prepare prompt: %w", err)
	}

	resp, err := o.provider.GenerateStructured(ctx, llm.StructuredRequest{
		ContractName: step.ContractName(),
		Prompt:       prompt,
		Conversation: state.Conversation,
		StepLabel:    step.Name(),
		Attachments:  attachments,
	})
	if err != nil {
		return err
	}

	if err := step.ProcessResponse(state, resp); err != nil {
		return fmt.Errorf("process response: %w", err)
	}

	// Steps share one stream and each expects to read it from the start.
	doc.Reset()
	return nil
}

func (o *Orchestrator) fail(state *validation.State, stepName string, err error) {
	state.LogStep(stepName, err.Error(), validation.StepError)
	state.AddIssue(IssueType(stepName), err.Error(), validation.SeverityError, "")
	state.Outcome = validation.OutcomeError
	state.OutcomeSummary = fmt.Sprintf("validation failed during step %s", stepName)
	telemetry.Error("pipeline.step.failed", map[string]any{
		"validation_id": state.ID,
		"step":          stepName,
		"error":         err.Error(),
		"error_kind":    string(llm.KindOf(err)),
	})
}

func (o *Orchestrator) cancel(state *validation.State, stepName string, err error) {
	state.LogStep(stepName, "validation cancelled", validation.StepError)
	state.Outcome = validation.OutcomeCancelled
	state.OutcomeSummary = "validation cancelled before completion"
	telemetry.Warn("pipeline.cancelled", map[string]any{
		"validation_id": state.ID,
		"step":          stepName,
		"error":         err.Error(),
	})
}

func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

func finalStatus(outcome validation.Outcome) validation.StepStatus {
	switch outcome {
	case validation.OutcomeError, validation.OutcomeCancelled:
		return validation.StepError
	case validation.OutcomeInvalid:
		return validation.StepWarning
	default:
		return validation.StepSuccess
	}
}
