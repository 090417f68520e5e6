package reports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

func TestPGRepoInsertSerializesRunRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	report := Report{
		ID:          "run-1",
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		Outcome:     validation.OutcomeNeedsReview,
		Summary:     "totals require a second look",
		Issues: []validation.Issue{
			{Type: "TotalsMismatch", Description: "totals do not add up", Severity: validation.SeverityError, Field: "totalAmount"},
		},
		StepLog: []validation.StepLogEntry{
			{Step: "verify_amounts", Description: "flagged 1 finding", Status: validation.StepWarning},
		},
		ModelUsage: []validation.ModelUsage{
			{Model: "gemini-2.0-flash", Operation: "verify_amounts", Tokens: 310},
		},
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO validation_reports").
		WithArgs(
			report.ID,
			report.FileName,
			report.ContentType,
			report.SizeBytes,
			string(report.Outcome),
			report.Summary,
			sqlmock.AnyArg(), // issues
			sqlmock.AnyArg(), // step_log
			sqlmock.AnyArg(), // model_usage
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), report); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	issues, _ := json.Marshal([]validation.Issue{
		{Type: "InvalidDocumentType", Description: "got a bank statement", Severity: validation.SeverityError},
	})
	createdAt := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "file_name", "content_type", "size_bytes", "outcome", "summary", "issues", "step_log", "model_usage", "created_at",
	}).AddRow("run-2", "statement.pdf", "application/pdf", int64(512), "Invalid", "not a withdrawal document", issues, []byte(`[]`), []byte(`[]`), createdAt)

	mock.ExpectQuery("SELECT (.+) FROM validation_reports").
		WithArgs("run-2").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	report, err := repo.GetByID(context.Background(), "run-2")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if report.Outcome != validation.OutcomeInvalid {
		t.Fatalf("outcome not decoded: %s", report.Outcome)
	}
	if len(report.Issues) != 1 || report.Issues[0].Type != "InvalidDocumentType" {
		t.Fatalf("issues not decoded: %+v", report.Issues)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM validation_reports").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoRoundTrip(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	first := Report{ID: "a", FileName: "a.pdf", Outcome: validation.OutcomeValid, CreatedAt: time.Now().Add(-time.Minute)}
	second := Report{ID: "b", FileName: "b.pdf", Outcome: validation.OutcomeInvalid, CreatedAt: time.Now()}
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil || got.FileName != "a.pdf" {
		t.Fatalf("GetByID: %+v, %v", got, err)
	}
	if _, err := repo.GetByID(ctx, "zzz"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	list, err := repo.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("expected newest first, got %+v", list)
	}
}
