package account

import "context"

// Reader abstracts repository operations for the service.
type Reader interface {
	GetByID(ctx context.Context, id string) (Account, error)
	ListByRole(ctx context.Context, role Role, limit int) ([]Account, error)
}

// Service exposes business-level account reads to the boundary layer.
type Service struct {
	repo Reader
}

// NewService builds a Service using the provided repository.
func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

// GetByID returns the account for the given identifier.
func (s *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByRole returns up to limit accounts holding the given role.
func (s *Service) ListByRole(ctx context.Context, role Role, limit int) ([]Account, error) {
	return s.repo.ListByRole(ctx, role, limit)
}
