package pipeline

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/llm"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

type fakeProvider struct {
	calls    []string
	failOn   string
	failWith error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Model(multimodal bool) string {
	if multimodal {
		return "fake-vision"
	}
	return "fake-text"
}

func (p *fakeProvider) GenerateStructured(ctx context.Context, req llm.StructuredRequest) (*llm.StructuredResponse, error) {
	if req.Conversation != nil {
		req.Conversation.AddUserMessage(req.Prompt, req.StepLabel)
	}
	p.calls = append(p.calls, req.StepLabel)
	if req.StepLabel == p.failOn {
		return nil, p.failWith
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := fmt.Sprintf(`{"step":%q}`, req.StepLabel)
	if req.Conversation != nil {
		req.Conversation.AddModelMessage(raw)
	}
	return &llm.StructuredResponse{
		Value:   map[string]string{"step": req.StepLabel},
		RawText: raw,
		Model:   p.Model(len(req.Attachments) > 0),
		Tokens:  10,
	}, nil
}

type fakeStep struct {
	name     string
	order    int
	skip     bool
	onApply  func(*validation.State, *llm.StructuredResponse) error
	prepared int
	readDoc  bool
	lastRead string
}

func (s *fakeStep) Name() string         { return s.name }
func (s *fakeStep) Order() int           { return s.order }
func (s *fakeStep) ContractName() string { return s.name + "_contract" }

func (s *fakeStep) ShouldExecute(state *validation.State) bool { return !s.skip }

func (s *fakeStep) PreparePrompt(state *validation.State, doc *document.Stream) (string, []llm.Attachment, error) {
	s.prepared++
	if s.readDoc {
		data, err := io.ReadAll(doc)
		if err != nil {
			return "", nil, err
		}
		s.lastRead = string(data)
	}
	return "prompt for " + s.name, nil, nil
}

func (s *fakeStep) ProcessResponse(state *validation.State, resp *llm.StructuredResponse) error {
	state.LogStep(s.name, "done", validation.StepSuccess)
	state.RecordUsage(resp.Model, s.name, resp.Tokens)
	if s.onApply != nil {
		return s.onApply(state, resp)
	}
	return nil
}

func newRun(t *testing.T) (*validation.State, *document.Stream) {
	t.Helper()

	state := validation.NewState(validation.DocumentInfo{FileName: "invoice.pdf", ContentType: "application/pdf"})
	doc := document.NewStream("invoice.pdf", "application/pdf", []byte("pdf-bytes"))
	return state, doc
}

func entriesFor(state *validation.State, step string) []validation.StepLogEntry {
	var out []validation.StepLogEntry
	for _, e := range state.StepLog {
		if e.Step == step {
			out = append(out, e)
		}
	}
	return out
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	provider := &fakeProvider{}
	steps := []Step{
		&fakeStep{name: "summarize_validation", order: 50},
		&fakeStep{name: "classify_document", order: 10, readDoc: true},
		&fakeStep{name: "extract_invoice_structure", order: 20, readDoc: true},
	}
	o, err := NewOrchestrator(provider, steps)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}

	state, doc := newRun(t)
	if _, err := o.Run(context.Background(), state, doc); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"classify_document", "extract_invoice_structure", "summarize_validation"}
	if len(provider.calls) != len(want) {
		t.Fatalf("expected %d provider calls, got %v", len(want), provider.calls)
	}
	for i, name := range want {
		if provider.calls[i] != name {
			t.Fatalf("call %d = %s, want %s", i, provider.calls[i], name)
		}
	}

	// One user and one model message per successful structured call.
	if state.Conversation.Len() != 2*len(want) {
		t.Fatalf("expected %d conversation messages, got %d", 2*len(want), state.Conversation.Len())
	}

	if len(state.ModelUsage) != 3 {
		t.Fatalf("expected a usage record per step, got %d", len(state.ModelUsage))
	}
}

func TestRunOrderTiesKeepDeclarationOrder(t *testing.T) {
	provider := &fakeProvider{}
	steps := []Step{
		&fakeStep{name: "first_declared", order: 10},
		&fakeStep{name: "second_declared", order: 10},
	}
	o, _ := NewOrchestrator(provider, steps)

	state, doc := newRun(t)
	o.Run(context.Background(), state, doc)

	if provider.calls[0] != "first_declared" || provider.calls[1] != "second_declared" {
		t.Fatalf("tie must keep declaration order, got %v", provider.calls)
	}
}

func TestRunSkippedStep(t *testing.T) {
	provider := &fakeProvider{}
	skipped := &fakeStep{name: "extract_invoice_structure", order: 20, skip: true}
	o, _ := NewOrchestrator(provider, []Step{
		&fakeStep{name: "classify_document", order: 10},
		skipped,
	})

	state, doc := newRun(t)
	o.Run(context.Background(), state, doc)

	for _, call := range provider.calls {
		if call == "extract_invoice_structure" {
			t.Fatalf("provider must not be called for a skipped step")
		}
	}
	if skipped.prepared != 0 {
		t.Fatalf("PreparePrompt must not run for a skipped step")
	}
	entries := entriesFor(state, "extract_invoice_structure")
	if len(entries) != 1 || entries[0].Status != validation.StepSkipped {
		t.Fatalf("expected exactly one Skipped entry, got %+v", entries)
	}
}

func TestRunStepFailureHaltsPipeline(t *testing.T) {
	timeoutErr := &llm.Error{Kind: llm.KindTimeout, Provider: "fake", Message: "deadline exceeded"}
	provider := &fakeProvider{failOn: "extract_invoice_structure", failWith: timeoutErr}
	later := &fakeStep{name: "verify_amounts", order: 30}
	o, _ := NewOrchestrator(provider, []Step{
		&fakeStep{name: "classify_document", order: 10},
		&fakeStep{name: "extract_invoice_structure", order: 20},
		later,
	})

	state, doc := newRun(t)
	result, err := o.Run(context.Background(), state, doc)
	if err != nil {
		t.Fatalf("in-step failures must not surface as errors: %v", err)
	}

	if result.Outcome != validation.OutcomeError {
		t.Fatalf("expected outcome Error, got %s", result.Outcome)
	}
	if later.prepared != 0 {
		t.Fatalf("no step after the failure may execute")
	}

	errorEntries := 0
	for _, e := range entriesFor(result, "extract_invoice_structure") {
		if e.Status == validation.StepError {
			errorEntries++
		}
	}
	if errorEntries != 1 {
		t.Fatalf("expected exactly one Error entry for the failed step, got %d", errorEntries)
	}
	if len(entriesFor(result, "verify_amounts")) != 0 {
		t.Fatalf("expected zero entries for steps after the failure")
	}

	foundIssue := false
	for _, issue := range result.Issues {
		if issue.Type == "ExtractInvoiceStructureError" && issue.Severity == validation.SeverityError {
			foundIssue = true
		}
	}
	if !foundIssue {
		t.Fatalf("expected ExtractInvoiceStructureError issue, got %+v", result.Issues)
	}
}

func TestRunInvalidOutcomeHalts(t *testing.T) {
	provider := &fakeProvider{}
	later := &fakeStep{name: "extract_invoice_structure", order: 20}
	o, _ := NewOrchestrator(provider, []Step{
		&fakeStep{
			name:  "classify_document",
			order: 10,
			onApply: func(state *validation.State, _ *llm.StructuredResponse) error {
				state.AddIssue("InvalidDocumentType", "not an invoice", validation.SeverityError, "")
				state.Outcome = validation.OutcomeInvalid
				return nil
			},
		},
		later,
	})

	state, doc := newRun(t)
	result, _ := o.Run(context.Background(), state, doc)

	if result.Outcome != validation.OutcomeInvalid {
		t.Fatalf("Invalid outcome must never be overwritten, got %s", result.Outcome)
	}
	if later.prepared != 0 {
		t.Fatalf("no step may run after a disqualifying outcome")
	}
}

func TestRunCancellation(t *testing.T) {
	provider := &fakeProvider{}
	ctx, cancel := context.WithCancel(context.Background())
	o, _ := NewOrchestrator(provider, []Step{
		&fakeStep{
			name:  "classify_document",
			order: 10,
			onApply: func(*validation.State, *llm.StructuredResponse) error {
				cancel()
				return nil
			},
		},
		&fakeStep{name: "extract_invoice_structure", order: 20},
	})

	state, doc := newRun(t)
	result, _ := o.Run(ctx, state, doc)

	if result.Outcome != validation.OutcomeCancelled {
		t.Fatalf("expected Cancelled outcome, got %s", result.Outcome)
	}
	if len(provider.calls) != 1 {
		t.Fatalf("no provider call may happen after cancellation, got %v", provider.calls)
	}
}

func TestRunResetsDocumentStream(t *testing.T) {
	provider := &fakeProvider{}
	first := &fakeStep{name: "classify_document", order: 10, readDoc: true}
	second := &fakeStep{name: "extract_invoice_structure", order: 20, readDoc: true}
	o, _ := NewOrchestrator(provider, []Step{first, second})

	state, doc := newRun(t)
	o.Run(context.Background(), state, doc)

	if first.lastRead != "pdf-bytes" {
		t.Fatalf("first step read %q", first.lastRead)
	}
	if second.lastRead != "pdf-bytes" {
		t.Fatalf("stream must be reset between steps, second step read %q", second.lastRead)
	}
}

func TestIssueType(t *testing.T) {
	cases := map[string]string{
		"classify_document":         "ClassifyDocumentError",
		"extract_invoice_structure": "ExtractInvoiceStructureError",
		"summarize":                 "SummarizeError",
	}
	for in, want := range cases {
		if got := IssueType(in); got != want {
			t.Fatalf("IssueType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewOrchestratorRequiresProvider(t *testing.T) {
	if _, err := NewOrchestrator(nil, nil); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}
