package auth

import (
	"context"
	"errors"
	"fmt"

	"jobledger/account"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAccountNotFound signals that no account matches the identifier.
	ErrAccountNotFound = errors.New("auth: account not found")
	// ErrDuplicateEmail signals that the email is already registered.
	ErrDuplicateEmail = errors.New("auth: email already exists")
)

// Repository handles data access for caller resolution. Accounts double as
// identities, so rows live in the same accounts table the ledger locks.
type Repository interface {
	CreateAccount(ctx context.Context, params CreateAccountParams) (account.Account, error)
	GetByEmail(ctx context.Context, email string) (account.Account, string, error)
	GetByID(ctx context.Context, accountID string) (account.Account, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed auth repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateAccount inserts a new account with a hashed password and zero balance.
func (r *PGRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (account.Account, error) {
	const insertSQL = `
		INSERT INTO accounts (email, password_hash, first_name, last_name, profession, role)
		VALUES ($1, $2, $3, $4, $5, $6::account_role)
		RETURNING id::text, email, first_name, last_name, profession, role::text, balance_cents, created_at, updated_at
	`

	acct, err := scanAccount(r.pool.QueryRow(ctx, insertSQL,
		params.Email,
		params.PasswordHash,
		params.FirstName,
		params.LastName,
		params.Profession,
		params.Role,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.Account{}, ErrDuplicateEmail
		}
		return account.Account{}, fmt.Errorf("auth: create account: %w", err)
	}

	return acct, nil
}

// GetByEmail retrieves an account and its password hash by email address.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (account.Account, string, error) {
	const selectSQL = `
		SELECT id::text, email, first_name, last_name, profession, role::text, balance_cents, created_at, updated_at, password_hash
		FROM accounts
		WHERE email = $1
	`

	var (
		acct         account.Account
		profession   *string
		passwordHash string
	)
	err := r.pool.QueryRow(ctx, selectSQL, email).Scan(
		&acct.ID,
		&acct.Email,
		&acct.FirstName,
		&acct.LastName,
		&profession,
		&acct.Role,
		&acct.BalanceCents,
		&acct.CreatedAt,
		&acct.UpdatedAt,
		&passwordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, "", ErrAccountNotFound
		}
		return account.Account{}, "", fmt.Errorf("auth: get account by email: %w", err)
	}

	acct.Profession = profession
	return acct, passwordHash, nil
}

// GetByID retrieves an account by ID.
func (r *PGRepository) GetByID(ctx context.Context, accountID string) (account.Account, error) {
	const selectSQL = `
		SELECT id::text, email, first_name, last_name, profession, role::text, balance_cents, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	acct, err := scanAccount(r.pool.QueryRow(ctx, selectSQL, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, ErrAccountNotFound
		}
		return account.Account{}, fmt.Errorf("auth: get account by id: %w", err)
	}

	return acct, nil
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var (
		acct       account.Account
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
		return account.Account{}, err
	}

	acct.Profession = profession
	return acct, nil
}
