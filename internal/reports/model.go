package reports

import (
	"time"

	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

// Report is the persisted record of one finished validation run.
type Report struct {
	ID          string                    `json:"id"`
	FileName    string                    `json:"fileName"`
	ContentType string                    `json:"contentType"`
	SizeBytes   int64                     `json:"sizeBytes"`
	Outcome     validation.Outcome        `json:"outcome"`
	Summary     string                    `json:"summary"`
	Issues      []validation.Issue        `json:"issues"`
	StepLog     []validation.StepLogEntry `json:"stepLog"`
	ModelUsage  []validation.ModelUsage   `json:"modelUsage"`
	CreatedAt   time.Time                 `json:"createdAt"`
}

// FromState assembles a report from a finished run state.
func FromState(state *validation.State) Report {
	return Report{
		ID:          state.ID,
		FileName:    state.Document.FileName,
		ContentType: state.Document.ContentType,
		SizeBytes:   state.Document.SizeBytes,
		Outcome:     state.Outcome,
		Summary:     state.OutcomeSummary,
		Issues:      state.Issues,
		StepLog:     state.StepLog,
		ModelUsage:  state.ModelUsage,
		CreatedAt:   time.Now().UTC(),
	}
}
