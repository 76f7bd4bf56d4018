package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

// All returns the invariant checks. baselineCents is the sum of account
// balances right after seeding: payments move money between accounts, so the
// total may only grow by what deposits added.
func All(baselineCents int64) []Oracle {
	return []Oracle{
		{
			Name: "O1_no_negative_balance",
			SQL:  `SELECT id, balance_cents FROM accounts WHERE balance_cents < 0`,
		},
		{
			Name: "O2_paid_has_payment_date",
			SQL:  `SELECT id FROM jobs WHERE paid AND payment_date IS NULL`,
		},
		{
			Name: "O3_job_paid_at_most_once",
			SQL: `SELECT job_id, COUNT(*) FROM ledger_entries
                  WHERE kind = 'job_payment'
                  GROUP BY job_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O4_entry_matches_job",
			SQL: `SELECT e.ref FROM ledger_entries e
                  JOIN jobs j ON j.id = e.job_id
                  WHERE e.kind = 'job_payment'
                    AND (NOT j.paid
                         OR e.amount_cents <> j.price_cents
                         OR e.debit_account_id IS NULL)`,
		},
		{
			Name: "O5_paid_job_has_entry",
			SQL: `SELECT j.id FROM jobs j
                  WHERE j.paid AND NOT EXISTS (
                      SELECT 1 FROM ledger_entries e
                      WHERE e.job_id = j.id AND e.kind = 'job_payment')`,
		},
		{
			Name: "O6_money_conserved",
			SQL: fmt.Sprintf(`SELECT balances, deposited FROM (
                      SELECT (SELECT COALESCE(SUM(balance_cents), 0) FROM accounts) AS balances,
                             (SELECT COALESCE(SUM(amount_cents), 0) FROM ledger_entries WHERE kind = 'deposit') AS deposited
                  ) totals
                  WHERE balances <> %d + deposited`, baselineCents),
		},
		{
			Name: "O7_entries_positive",
			SQL:  `SELECT ref, amount_cents FROM ledger_entries WHERE amount_cents <= 0`,
		},
		{
			Name: "O8_deposit_entries_credit_clients",
			SQL: `SELECT e.ref FROM ledger_entries e
                  JOIN accounts a ON a.id = e.credit_account_id
                  WHERE e.kind = 'deposit' AND a.role <> 'client'`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool, baselineCents int64) (string, string, error) {
	for _, o := range All(baselineCents) {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
