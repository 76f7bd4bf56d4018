package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobledger/ledger"
	"jobledger/report"
)

// Payer picks a random unpaid job and pays it as the owning client. Races with
// other payers over the same jobs; already-paid and short-balance outcomes are
// expected under contention. Connection-level failures (chaos kills backends)
// are backed off, not fatal: the oracles judge state, the actors only drive it.
func Payer(ctx context.Context, svc *ledger.Service, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		var jobID, clientID string
		err := pool.QueryRow(ctx, `SELECT j.id, c.client_id FROM jobs j
                                   JOIN contracts c ON c.id = j.contract_id
                                   WHERE NOT j.paid ORDER BY random() LIMIT 1`).Scan(&jobID, &clientID)
		if err != nil {
			backoff(ctx)
			continue
		}

		err = svc.PayJob(ctx, jobID, clientID)
		switch {
		case err == nil:
		case errors.Is(err, ledger.ErrAlreadyPaid),
			errors.Is(err, ledger.ErrInsufficientBalance),
			errors.Is(err, ledger.ErrJobNotFound):
			// lost a race or the client ran dry
		default:
			backoff(ctx)
			continue
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Intruder tries to pay jobs as the contractor side. A successful payment is a
// broken ownership check and fails the run immediately.
func Intruder(ctx context.Context, svc *ledger.Service, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		var jobID, contractorID string
		err := pool.QueryRow(ctx, `SELECT j.id, c.contractor_id FROM jobs j
                                   JOIN contracts c ON c.id = j.contract_id
                                   WHERE NOT j.paid ORDER BY random() LIMIT 1`).Scan(&jobID, &contractorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				time.Sleep(50 * time.Millisecond)
			} else {
				backoff(ctx)
			}
			continue
		}

		if err := svc.PayJob(ctx, jobID, contractorID); err == nil {
			return fmt.Errorf("intruder paid job %s as contractor %s", jobID, contractorID)
		}
		time.Sleep(time.Duration(30+rand.Intn(40)) * time.Millisecond)
	}
}

// Depositor credits random amounts into a client balance. Cap rejections are
// expected; each must carry a non-negative allowed maximum.
func Depositor(ctx context.Context, svc *ledger.Service, clientID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		amount := int64(100 + rand.Intn(20000))
		err := svc.Deposit(ctx, clientID, amount)
		var capErr *ledger.DepositCapError
		switch {
		case err == nil:
		case errors.As(err, &capErr):
			if capErr.MaxAllowedCents < 0 {
				return fmt.Errorf("depositor: negative cap %d", capErr.MaxAllowedCents)
			}
		default:
			backoff(ctx)
			continue
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Reporter runs the aggregations while payments land. Totals must stay
// positive; the empty-window error is the only acceptable miss.
func Reporter(ctx context.Context, svc *report.Service, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		window := report.Window{
			Start: time.Now().Add(-time.Hour),
			End:   time.Now().Add(time.Hour),
		}

		top, err := svc.BestProfession(ctx, window)
		if err == nil && top.TotalCents <= 0 {
			return fmt.Errorf("reporter: non-positive profession total %d", top.TotalCents)
		}
		if err != nil && !errors.Is(err, report.ErrNoPaidJobs) {
			backoff(ctx)
			continue
		}

		clients, err := svc.BestClients(ctx, window, 1+rand.Intn(5))
		if err != nil {
			backoff(ctx)
			continue
		}
		for _, c := range clients {
			if c.TotalPaidCents <= 0 {
				return fmt.Errorf("reporter: non-positive client total %d for %s", c.TotalPaidCents, c.AccountID)
			}
		}
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}

// JobSeeder keeps appending small unpaid jobs so payers never run out of work.
func JobSeeder(ctx context.Context, pool *pgxpool.Pool, contractIDs []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		contractID := contractIDs[rand.Intn(len(contractIDs))]
		price := int64(100 + rand.Intn(2000))
		_, err := pool.Exec(ctx, `INSERT INTO jobs (contract_id, description, price_cents)
                                  VALUES ($1, 'stress work', $2)`, contractID, price)
		if err != nil {
			backoff(ctx)
			continue
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

func backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(50+rand.Intn(100)) * time.Millisecond):
	}
}
