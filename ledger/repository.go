package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

// Repository executes the row-level reads and writes of a ledger unit of
// work. Every method runs on the caller's transaction; the repository itself
// holds no state.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// GetJobForPayment loads the job plus its contract parties and locks the job
// row. Locking the job first (always before any account row) keeps lock
// acquisition in one global order and serializes double-pay attempts.
func (r *Repository) GetJobForPayment(ctx context.Context, tx pgx.Tx, jobID string) (PaymentJob, error) {
	const query = `
		SELECT j.id::text, j.contract_id::text, c.client_id::text, c.contractor_id::text, j.price_cents, j.paid
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE j.id = $1
		FOR UPDATE OF j
	`

	var job PaymentJob
	err := tx.QueryRow(ctx, query, jobID).Scan(
		&job.ID,
		&job.ContractID,
		&job.ClientID,
		&job.ContractorID,
		&job.PriceCents,
		&job.Paid,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentJob{}, ErrJobNotFound
		}
		return PaymentJob{}, fmt.Errorf("ledger: load job for payment: %w", err)
	}

	return job, nil
}

// LockAccounts acquires exclusive locks on the given account rows. Ids are
// sorted ascending and locked in that order by the statement itself, so two
// transfers over the same pair of accounts always lock in the same total
// order regardless of which side is paying.
func (r *Repository) LockAccounts(ctx context.Context, tx pgx.Tx, ids []string) ([]LockedAccount, error) {
	ordered := make([]string, len(ids))
	copy(ordered, ids)
	sort.Strings(ordered)

	const query = `
		SELECT id::text, role::text, balance_cents
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ordered)
	if err != nil {
		return nil, fmt.Errorf("ledger: lock accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]LockedAccount, 0, len(ordered))
	for rows.Next() {
		var acct LockedAccount
		if err := rows.Scan(&acct.ID, &acct.Role, &acct.BalanceCents); err != nil {
			return nil, fmt.Errorf("ledger: scan locked account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate locked accounts: %w", err)
	}

	return accounts, nil
}

// LockClientAccount acquires an exclusive lock on a single account row.
func (r *Repository) LockClientAccount(ctx context.Context, tx pgx.Tx, accountID string) (LockedAccount, error) {
	const query = `
		SELECT id::text, role::text, balance_cents
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	var acct LockedAccount
	if err := tx.QueryRow(ctx, query, accountID).Scan(&acct.ID, &acct.Role, &acct.BalanceCents); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LockedAccount{}, ErrAccountNotFound
		}
		return LockedAccount{}, fmt.Errorf("ledger: lock account: %w", err)
	}

	return acct, nil
}

// ApplyTransfer debits the client and credits the contractor by the same
// amount. The debit statement re-checks the balance so the accounts table
// CHECK constraint is never the component that catches an overdraft.
func (r *Repository) ApplyTransfer(ctx context.Context, tx pgx.Tx, clientID, contractorID string, amountCents int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance_cents = balance_cents - $2, updated_at = now()
		WHERE id = $1 AND balance_cents >= $2
	`, clientID, amountCents)
	if err != nil {
		return fmt.Errorf("ledger: debit client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance_cents = balance_cents + $2, updated_at = now()
		WHERE id = $1
	`, contractorID, amountCents); err != nil {
		return fmt.Errorf("ledger: credit contractor: %w", err)
	}

	return nil
}

// MarkJobPaid flips the paid flag and stamps the payment date. The unpaid
// guard makes the transition strictly once even if a caller raced past the
// earlier paid check.
func (r *Repository) MarkJobPaid(ctx context.Context, tx pgx.Tx, jobID string, paidAt time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE jobs
		SET paid = TRUE, payment_date = $2
		WHERE id = $1 AND NOT paid
	`, jobID, paidAt)
	if err != nil {
		return fmt.Errorf("ledger: mark job paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyPaid
	}

	return nil
}

// OutstandingCents sums the prices of the client's unpaid jobs.
func (r *Repository) OutstandingCents(ctx context.Context, tx pgx.Tx, clientID string) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(j.price_cents), 0)
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE c.client_id = $1 AND NOT j.paid
	`

	var outstanding int64
	if err := tx.QueryRow(ctx, query, clientID).Scan(&outstanding); err != nil {
		return 0, fmt.Errorf("ledger: sum outstanding: %w", err)
	}

	return outstanding, nil
}

// CreditBalance increments an account balance.
func (r *Repository) CreditBalance(ctx context.Context, tx pgx.Tx, accountID string, amountCents int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance_cents = balance_cents + $2, updated_at = now()
		WHERE id = $1
	`, accountID, amountCents)
	if err != nil {
		return fmt.Errorf("ledger: credit balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// AppendEntry writes the durable ledger record inside the active transaction.
func (r *Repository) AppendEntry(ctx context.Context, tx pgx.Tx, params AppendEntryParams) error {
	payload := params.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ledger: marshal entry payload: %w", err)
	}

	const insertSQL = `
		INSERT INTO ledger_entries (ref, kind, job_id, debit_account_id, credit_account_id, amount_cents, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := tx.Exec(ctx, insertSQL,
		params.Ref,
		params.Kind,
		params.JobID,
		params.DebitAccountID,
		params.CreditAccountID,
		params.AmountCents,
		payloadBytes,
	); err != nil {
		return fmt.Errorf("ledger: insert entry: %w", err)
	}

	return nil
}
