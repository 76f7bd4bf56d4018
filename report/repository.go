package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoPaidJobs signals zero paid jobs fell inside the requested window.
var ErrNoPaidJobs = errors.New("report: no paid jobs in range")

// Repository runs the read-only aggregations. Each one is a single statement,
// so it sees one consistent snapshot and takes no row locks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wires a pgxpool-backed repository implementation.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BestProfession sums paid-job prices per contractor profession over the
// window and returns the top group. Ties break lexicographically by
// profession so the result is deterministic.
func (r *Repository) BestProfession(ctx context.Context, w Window) (ProfessionTotal, error) {
	const query = `
		SELECT a.profession, SUM(j.price_cents) AS total_cents
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN accounts a ON a.id = c.contractor_id
		WHERE j.paid
		  AND j.payment_date >= $1 AND j.payment_date <= $2
		  AND a.profession IS NOT NULL
		GROUP BY a.profession
		ORDER BY total_cents DESC, a.profession ASC
		LIMIT 1
	`

	var top ProfessionTotal
	err := r.pool.QueryRow(ctx, query, w.Start, w.End).Scan(&top.Profession, &top.TotalCents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProfessionTotal{}, ErrNoPaidJobs
		}
		return ProfessionTotal{}, fmt.Errorf("report: best profession: %w", err)
	}

	return top, nil
}

// BestClients sums paid-job prices per client over the window and returns the
// top limit clients, totals descending with account id as the stable tiebreak.
func (r *Repository) BestClients(ctx context.Context, w Window, limit int) ([]ClientTotal, error) {
	const query = `
		SELECT a.id::text, a.first_name || ' ' || a.last_name, SUM(j.price_cents) AS total_cents
		FROM jobs j
		JOIN contracts c ON c.id = j.contract_id
		JOIN accounts a ON a.id = c.client_id
		WHERE j.paid
		  AND j.payment_date >= $1 AND j.payment_date <= $2
		GROUP BY a.id, a.first_name, a.last_name
		ORDER BY total_cents DESC, a.id ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, w.Start, w.End, limit)
	if err != nil {
		return nil, fmt.Errorf("report: best clients: %w", err)
	}
	defer rows.Close()

	clients := make([]ClientTotal, 0, limit)
	for rows.Next() {
		var c ClientTotal
		if err := rows.Scan(&c.AccountID, &c.Name, &c.TotalPaidCents); err != nil {
			return nil, fmt.Errorf("report: scan client total: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("report: iterate client totals: %w", err)
	}

	return clients, nil
}
