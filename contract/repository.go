package contract

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound covers both a missing contract and a contract the caller is not
// a party to, so callers cannot probe for other parties' contract ids.
var ErrNotFound = errors.New("contract: not found")

// Repository provides caller-scoped reads over contracts and jobs. Each query
// takes the acting account id explicitly; there is no ambient caller state.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contractColumns = `id::text, client_id::text, contractor_id::text, terms, status::text, created_at`

// GetForParty fetches a contract by id when the account is its client or contractor.
func (r *Repository) GetForParty(ctx context.Context, id, accountID string) (Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE id = $1 AND (client_id = $2 OR contractor_id = $2)
	`

	c, err := scanContract(r.pool.QueryRow(ctx, query, id, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contract{}, ErrNotFound
		}
		return Contract{}, fmt.Errorf("contract: query by id: %w", err)
	}

	return c, nil
}

// ListForParty fetches the account's non-terminated contracts, either side.
func (r *Repository) ListForParty(ctx context.Context, accountID string) ([]Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE status <> 'terminated' AND (client_id = $1 OR contractor_id = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("contract: list for party: %w", err)
	}
	defer rows.Close()

	contracts := make([]Contract, 0, 8)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("contract: scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contract: iterate contracts: %w", err)
	}

	return contracts, nil
}

// ListUnpaidJobsForParty fetches unpaid jobs on in-progress contracts where
// the account is either party.
func (r *Repository) ListUnpaidJobsForParty(ctx context.Context, accountID string) ([]Job, error) {
	const query = `
		SELECT j.id::text, j.contract_id::text, j.description, j.price_cents, j.paid, j.payment_date, j.created_at
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		WHERE c.status = 'in_progress'
		  AND (c.client_id = $1 OR c.contractor_id = $1)
		  AND NOT j.paid
		ORDER BY j.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("contract: list unpaid jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0, 8)
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.ContractID, &j.Description, &j.PriceCents, &j.Paid, &j.PaymentDate, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("contract: scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contract: iterate jobs: %w", err)
	}

	return jobs, nil
}

func scanContract(row pgx.Row) (Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.ClientID, &c.ContractorID, &c.Terms, &c.Status, &c.CreatedAt)
	if err != nil {
		return Contract{}, err
	}
	return c, nil
}
