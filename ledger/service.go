package ledger

import (
	"context"
	"fmt"
	"time"

	"jobledger/account"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LedgerRepository defines the data access required by the service. Every
// method runs inside the unit of work the service controls.
type LedgerRepository interface {
	GetJobForPayment(ctx context.Context, tx pgx.Tx, jobID string) (PaymentJob, error)
	LockAccounts(ctx context.Context, tx pgx.Tx, ids []string) ([]LockedAccount, error)
	LockClientAccount(ctx context.Context, tx pgx.Tx, accountID string) (LockedAccount, error)
	ApplyTransfer(ctx context.Context, tx pgx.Tx, clientID, contractorID string, amountCents int64) error
	MarkJobPaid(ctx context.Context, tx pgx.Tx, jobID string, paidAt time.Time) error
	OutstandingCents(ctx context.Context, tx pgx.Tx, clientID string) (int64, error)
	CreditBalance(ctx context.Context, tx pgx.Tx, accountID string, amountCents int64) error
	AppendEntry(ctx context.Context, tx pgx.Tx, params AppendEntryParams) error
}

// Service orchestrates the money-moving units of work. It owns no persistent
// state; everything goes through the repository on a single transaction per
// call, with locks released at commit or rollback.
type Service struct {
	pool   TxBeginner
	repo   LedgerRepository
	now    func() time.Time
	newRef func() string
}

func NewService(pool TxBeginner, repo LedgerRepository) *Service {
	if repo == nil {
		repo = NewRepository()
	}
	return &Service{
		pool:   pool,
		repo:   repo,
		now:    time.Now,
		newRef: func() string { return uuid.NewString() },
	}
}

// PayJob pays a job on behalf of the client of its contract: it debits the
// client, credits the contractor, marks the job paid, and appends the ledger
// entry, all in one transaction. Any precondition failure aborts with no side
// effects; a replay on a paid job returns ErrAlreadyPaid without moving money.
func (s *Service) PayJob(ctx context.Context, jobID, callerAccountID string) error {
	if jobID == "" || callerAccountID == "" {
		return ErrJobNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	job, err := s.repo.GetJobForPayment(ctx, tx, jobID)
	if err != nil {
		return err
	}
	if job.ClientID != callerAccountID {
		// Not the client on this contract; same answer as a missing job.
		return ErrJobNotFound
	}
	if job.Paid {
		return ErrAlreadyPaid
	}

	locked, err := s.repo.LockAccounts(ctx, tx, []string{job.ClientID, job.ContractorID})
	if err != nil {
		return err
	}

	var client, contractor *LockedAccount
	for i := range locked {
		switch locked[i].ID {
		case job.ClientID:
			client = &locked[i]
		case job.ContractorID:
			contractor = &locked[i]
		}
	}
	if client == nil || contractor == nil {
		return ErrAccountNotFound
	}
	if client.Role != account.RoleClient || contractor.Role != account.RoleContractor {
		return ErrInvalidRole
	}
	if client.BalanceCents < job.PriceCents {
		return ErrInsufficientBalance
	}

	if err := s.repo.ApplyTransfer(ctx, tx, job.ClientID, job.ContractorID, job.PriceCents); err != nil {
		return err
	}

	paidAt := s.now().UTC()
	if err := s.repo.MarkJobPaid(ctx, tx, job.ID, paidAt); err != nil {
		return err
	}

	if err := s.repo.AppendEntry(ctx, tx, AppendEntryParams{
		Ref:             s.newRef(),
		Kind:            EntryKindJobPayment,
		JobID:           &job.ID,
		DebitAccountID:  &job.ClientID,
		CreditAccountID: job.ContractorID,
		AmountCents:     job.PriceCents,
		Payload: map[string]any{
			"contract_id": job.ContractID,
			"paid_at":     paidAt,
		},
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: commit payment: %w", err)
	}

	return nil
}

// Deposit credits a client's own balance, capped at 25% of the client's
// outstanding unpaid job total. The cap is computed under the account lock so
// a concurrent payment cannot change outstanding mid-decision.
func (s *Service) Deposit(ctx context.Context, clientAccountID string, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}
	if clientAccountID == "" {
		return ErrAccountNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	acct, err := s.repo.LockClientAccount(ctx, tx, clientAccountID)
	if err != nil {
		return err
	}
	if acct.Role != account.RoleClient {
		return ErrInvalidRole
	}

	outstanding, err := s.repo.OutstandingCents(ctx, tx, clientAccountID)
	if err != nil {
		return err
	}

	// Floor division: the cap can never round up past 25%.
	maxAllowed := outstanding * 25 / 100
	if amountCents > maxAllowed {
		return &DepositCapError{MaxAllowedCents: maxAllowed}
	}

	if err := s.repo.CreditBalance(ctx, tx, clientAccountID, amountCents); err != nil {
		return err
	}

	if err := s.repo.AppendEntry(ctx, tx, AppendEntryParams{
		Ref:             s.newRef(),
		Kind:            EntryKindDeposit,
		CreditAccountID: clientAccountID,
		AmountCents:     amountCents,
		Payload: map[string]any{
			"outstanding_cents": outstanding,
			"max_allowed_cents": maxAllowed,
		},
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: commit deposit: %w", err)
	}

	return nil
}
