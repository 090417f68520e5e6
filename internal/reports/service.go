package reports

import (
	"context"
	"errors"
	"strings"

	"github.com/rvdzwet/invoice-validator-sub003/internal/validation"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Save persists the final state of a validation run.
func (s *Service) Save(ctx context.Context, state *validation.State) (Report, error) {
	if s == nil || s.Repo == nil {
		return Report{}, errors.New("reports service not configured")
	}
	if state == nil {
		return Report{}, errors.New("nil validation state")
	}
	report := FromState(state)
	if err := s.Repo.Insert(ctx, report); err != nil {
		return Report{}, err
	}
	return report, nil
}

func (s *Service) GetByID(ctx context.Context, reportID string) (Report, error) {
	if s == nil || s.Repo == nil {
		return Report{}, errors.New("reports service not configured")
	}
	if strings.TrimSpace(reportID) == "" {
		return Report{}, errors.New("report id is required")
	}
	return s.Repo.GetByID(ctx, reportID)
}

func (s *Service) List(ctx context.Context, limit int) ([]Report, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("reports service not configured")
	}
	return s.Repo.List(ctx, limit)
}
