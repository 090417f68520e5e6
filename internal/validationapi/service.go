// Package validationapi exposes the validation pipeline over HTTP.
package validationapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rvdzwet/invoice-validator-sub003/internal/document"
	"github.com/rvdzwet/invoice-validator-sub003/internal/pipeline"
	"github.com/rvdzwet/invoice-validator-sub003/internal/reports"
	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

var ErrInvalidInput = errors.New("invalid input")

// Service runs the pipeline for uploaded documents and persists the result.
type Service struct {
	Orchestrator   *pipeline.Orchestrator
	Reports        *reports.Service
	MaxUploadBytes int64
}

func NewService(orch *pipeline.Orchestrator, reportsSvc *reports.Service, maxUploadBytes int64) *Service {
	return &Service{
		Orchestrator:   orch,
		Reports:        reportsSvc,
		MaxUploadBytes: maxUploadBytes,
	}
}

// Validate runs the full pipeline over one uploaded document and stores the
// resulting report. Pipeline-level failures are part of the report, not an
// error return.
func (s *Service) Validate(ctx context.Context, fileName, contentType string, r io.Reader) (reports.Report, error) {
	if s == nil || s.Orchestrator == nil || s.Reports == nil {
		return reports.Report{}, errors.New("validation service not configured")
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return reports.Report{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	doc, err := document.FromReader(fileName, contentType, r)
	if err != nil {
		return reports.Report{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if doc.Size() == 0 {
		return reports.Report{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if s.MaxUploadBytes > 0 && doc.Size() > s.MaxUploadBytes {
		return reports.Report{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.MaxUploadBytes)
	}

	state := validation.NewState(validation.DocumentInfo{
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   doc.Size(),
		UploadedAt:  time.Now().UTC(),
	})

	if _, err := s.Orchestrator.Run(ctx, state, doc); err != nil {
		return reports.Report{}, err
	}

	return s.Reports.Save(ctx, state)
}

func (s *Service) GetReport(ctx context.Context, reportID string) (reports.Report, error) {
	if s == nil || s.Reports == nil {
		return reports.Report{}, errors.New("validation service not configured")
	}
	return s.Reports.GetByID(ctx, reportID)
}

func (s *Service) ListReports(ctx context.Context, limit int) ([]reports.Report, error) {
	if s == nil || s.Reports == nil {
		return nil, errors.New("validation service not configured")
	}
	return s.Reports.List(ctx, limit)
}
