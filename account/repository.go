package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals the requested account does not exist.
var ErrNotFound = errors.New("account: not found")

// Repository provides read access to accounts. Balance writes are owned by
// the ledger package and never happen here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id::text, email, first_name, last_name, profession, role::text, balance_cents, created_at, updated_at`

// GetByID fetches an account by its primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acct, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("account: query by id: %w", err)
	}

	return acct, nil
}

// ListByRole fetches up to limit accounts with the given role ordered by name.
func (r *Repository) ListByRole(ctx context.Context, role Role, limit int) ([]Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE role = $1::account_role
		ORDER BY last_name ASC, first_name ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, role, limit)
	if err != nil {
		return nil, fmt.Errorf("account: list by role: %w", err)
	}
	defer rows.Close()

	accounts := make([]Account, 0, limit)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("account: scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("account: iterate accounts: %w", err)
	}

	return accounts, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acct       Account
		profession *string
	)
	err := row.Scan(
		&acct.ID,
		&acct.Email,
		&acct.FirstName,
		&acct.LastName,
		&profession,
		&acct.Role,
		&acct.BalanceCents,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		return Account{}, err
	}

	acct.Profession = profession
	return acct, nil
}
