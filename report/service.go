package report

import (
	"context"
	"errors"
)

// ErrInvalidRange signals a window whose end precedes its start.
var ErrInvalidRange = errors.New("report: invalid date range")

// DefaultClientLimit bounds BestClients when the caller passes no limit.
const DefaultClientLimit = 2

// Aggregator abstracts repository operations for the service.
type Aggregator interface {
	BestProfession(ctx context.Context, w Window) (ProfessionTotal, error)
	BestClients(ctx context.Context, w Window, limit int) ([]ClientTotal, error)
}

// Service validates report parameters and delegates to the aggregation
// queries. Reports never mutate state.
type Service struct {
	repo Aggregator
}

// NewService builds a Service using the provided repository.
func NewService(repo Aggregator) *Service {
	return &Service{repo: repo}
}

// BestProfession returns the profession that earned the most over the window.
func (s *Service) BestProfession(ctx context.Context, w Window) (ProfessionTotal, error) {
	if err := validateWindow(w); err != nil {
		return ProfessionTotal{}, err
	}
	return s.repo.BestProfession(ctx, w)
}

// BestClients returns the top clients by amount paid over the window.
func (s *Service) BestClients(ctx context.Context, w Window, limit int) ([]ClientTotal, error) {
	if err := validateWindow(w); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultClientLimit
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.BestClients(ctx, w, limit)
}

func validateWindow(w Window) error {
	if w.Start.IsZero() || w.End.IsZero() || w.End.Before(w.Start) {
		return ErrInvalidRange
	}
	return nil
}
