// Package validation holds the shared mutable state of one validation run.
package validation

import (
	"time"

	"github.com/google/uuid"

	"github.com/rvdzwet/invoice-validator-sub003/internal/conversation"
)

// Outcome is the overall result of a validation run.
type Outcome string

const (
	OutcomeUnknown     Outcome = "Unknown"
	OutcomeValid       Outcome = "Valid"
	OutcomeInvalid     Outcome = "Invalid"
	OutcomeNeedsReview Outcome = "NeedsReview"
	OutcomeError       Outcome = "Error"
	OutcomeCancelled   Outcome = "Cancelled"
)

// StepStatus is the status of one processing-step log entry.
type StepStatus string

const (
	StepInProgress StepStatus = "InProgress"
	StepSuccess    StepStatus = "Success"
	StepWarning    StepStatus = "Warning"
	StepError      StepStatus = "Error"
	StepSkipped    StepStatus = "Skipped"
)

// Severity grades an issue.
type Severity string

const (
	SeverityInfo    Severity = "Info"
	SeverityWarning Severity = "Warning"
	SeverityError   Severity = "Error"
)

// DocumentInfo is the metadata of the uploaded document under validation.
type DocumentInfo struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedAt  time.Time
}

// StepLogEntry records one processing step. Append-only.
type StepLogEntry struct {
	Step        string
	Description string
	Status      StepStatus
	At          time.Time
}

// Issue records one finding against the document. Append-only.
type Issue struct {
	Type        string
	Description string
	Severity    Severity
	Field       string
	At          time.Time
}

// ModelUsage records one AI call for audit and billing visibility. Append-only.
type ModelUsage struct {
	Model     string
	Operation string
	Tokens    int
	At        time.Time
}

// Classification is the document triage result from the first step.
type Classification struct {
	DocumentType string
	IsReadable   bool
	Language     string
	Confidence   float64
}

// State is the per-run validation state. It is created once per incoming
// document, mutated in place by every pipeline step, and never shared across
// concurrent runs.
type State struct {
	ID             string
	Document       DocumentInfo
	Issues         []Issue
	StepLog        []StepLogEntry
	ModelUsage     []ModelUsage
	Classification *Classification
	Invoice        *Invoice
	Outcome        Outcome
	OutcomeSummary string
	Conversation   *conversation.Conversation
}

// NewState creates a fresh run state for a document.
func NewState(doc DocumentInfo) *State {
	return &State{
		ID:       uuid.NewString(),
		Document: doc,
		Outcome:  OutcomeUnknown,
	}
}

// AddIssue appends a finding.
func (s *State) AddIssue(issueType, description string, severity Severity, field string) {
	s.Issues = append(s.Issues, Issue{
		Type:        issueType,
		Description: description,
		Severity:    severity,
		Field:       field,
		At:          time.Now().UTC(),
	})
}

// LogStep appends a processing-step log entry.
func (s *State) LogStep(step, description string, status StepStatus) {
	s.StepLog = append(s.StepLog, StepLogEntry{
		Step:        step,
		Description: description,
		Status:      status,
		At:          time.Now().UTC(),
	})
}

// RecordUsage appends an AI-model usage record.
func (s *State) RecordUsage(model, operation string, tokens int) {
	s.ModelUsage = append(s.ModelUsage, ModelUsage{
		Model:     model,
		Operation: operation,
		Tokens:    tokens,
		At:        time.Now().UTC(),
	})
}

// Halted reports whether the run reached a disqualifying or terminal outcome.
func (s *State) Halted() bool {
	switch s.Outcome {
	case OutcomeInvalid, OutcomeError, OutcomeCancelled:
		return true
	}
	return false
}
