package contract

import "context"

// Reader abstracts repository operations for the service.
type Reader interface {
	GetForParty(ctx context.Context, id, accountID string) (Contract, error)
	ListForParty(ctx context.Context, accountID string) ([]Contract, error)
	ListUnpaidJobsForParty(ctx context.Context, accountID string) ([]Job, error)
}

// Service exposes contract and job reads scoped to the acting account.
type Service struct {
	repo Reader
}

// NewService builds a Service using the provided repository.
func NewService(repo Reader) *Service {
	return &Service{repo: repo}
}

// GetForParty returns the contract if the account is a party to it.
func (s *Service) GetForParty(ctx context.Context, id, accountID string) (Contract, error) {
	return s.repo.GetForParty(ctx, id, accountID)
}

// ListForParty returns the account's non-terminated contracts.
func (s *Service) ListForParty(ctx context.Context, accountID string) ([]Contract, error) {
	return s.repo.ListForParty(ctx, accountID)
}

// ListUnpaidJobsForParty returns unpaid jobs on the account's in-progress contracts.
func (s *Service) ListUnpaidJobsForParty(ctx context.Context, accountID string) ([]Job, error) {
	return s.repo.ListUnpaidJobsForParty(ctx, accountID)
}
