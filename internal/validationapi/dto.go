package validationapi

import (
	"time"

	"github.com/rvdzwet/invoice-validator-sub003/internal/reports"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

// ValidationResponse is the outward-facing representation of a finished run.
type ValidationResponse struct {
	ValidationID string            `json:"validationId"`
	FileName     string            `json:"fileName"`
	ContentType  string            `json:"contentType"`
	SizeBytes    int64             `json:"sizeBytes"`
	Outcome      string            `json:"outcome"`
	Summary      string            `json:"summary"`
	Issues       []IssueResponse   `json:"issues"`
	StepLog      []StepLogResponse `json:"stepLog"`
	ModelUsage   []UsageResponse   `json:"modelUsage"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// IssueResponse is one finding in the response payload.
type IssueResponse struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Field       string `json:"field,omitempty"`
}

// StepLogResponse is one processing step entry in the response payload.
type StepLogResponse struct {
	Step        string    `json:"step"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

// UsageResponse is one AI-model usage record in the response payload.
type UsageResponse struct {
	Model     string `json:"model"`
	Operation string `json:"operation"`
	Tokens    int    `json:"tokens"`
}

// ValidationSummaryResponse is the list-view representation.
type ValidationSummaryResponse struct {
	ValidationID string    `json:"validationId"`
	FileName     string    `json:"fileName"`
	Outcome      string    `json:"outcome"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toResponse(report reports.Report) ValidationResponse {
	return ValidationResponse{
		ValidationID: report.ID,
		FileName:     report.FileName,
		ContentType:  report.ContentType,
		SizeBytes:    report.SizeBytes,
		Outcome:      string(report.Outcome),
		Summary:      report.Summary,
		Issues:       toIssues(report.Issues),
		StepLog:      toStepLog(report.StepLog),
		ModelUsage:   toUsage(report.ModelUsage),
		CreatedAt:    report.CreatedAt,
	}
}

func toSummaryResponse(report reports.Report) ValidationSummaryResponse {
	return ValidationSummaryResponse{
		ValidationID: report.ID,
		FileName:     report.FileName,
		Outcome:      string(report.Outcome),
		Summary:      report.Summary,
		CreatedAt:    report.CreatedAt,
	}
}

func toIssues(issues []validation.Issue) []IssueResponse {
	out := make([]IssueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, IssueResponse{
			Type:        issue.Type,
			Description: issue.Description,
			Severity:    string(issue.Severity),
			Field:       issue.Field,
		})
	}
	return out
}

func toStepLog(entries []validation.StepLogEntry) []StepLogResponse {
	out := make([]StepLogResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, StepLogResponse{
			Step:        entry.Step,
			Description: entry.Description,
			Status:      string(entry.Status),
			At:          entry.At,
		})
	}
	return out
}

func toUsage(records []validation.ModelUsage) []UsageResponse {
	out := make([]UsageResponse, 0, len(records))
	for _, record := range records {
		out = append(out, UsageResponse{
			Model:     record.Model,
			Operation: record.Operation,
			Tokens:    record.Tokens,
		})
	}
	return out
}
