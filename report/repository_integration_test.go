package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestAggregations_Integration seeds paid jobs directly and verifies the
// grouping, windowing, ordering and tie-break behavior against a live
// PostgreSQL given via DATABASE_URL.
func TestAggregations_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	var schemaOK bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'jobs')`).Scan(&schemaOK); err != nil || !schemaOK {
		t.Skip("database schema missing; apply migrations/ first")
	}

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := newSeeder(ctx, t, pool)

	// Three clients; totals 35000 / 50000 / 20000. Two professions; the
	// plumber total (60000) beats the welder total (40000).
	clientA := s.account("client", nil)
	clientB := s.account("client", nil)
	clientC := s.account("client", nil)
	welder := s.account("contractor", strPtr("welder"))
	plumber := s.account("contractor", strPtr("plumber"))
	noProfession := s.account("contractor", nil)

	s.paidJob(clientA, welder, 30000, base.AddDate(0, 0, 1))
	s.paidJob(clientB, plumber, 50000, base.AddDate(0, 0, 2))
	s.paidJob(clientC, welder, 10000, base.AddDate(0, 0, 3))
	s.paidJob(clientC, plumber, 10000, base.AddDate(0, 0, 3))
	// Outside the window on both sides.
	s.paidJob(clientA, plumber, 99999, base.AddDate(0, 0, -1))
	s.paidJob(clientA, plumber, 99999, base.AddDate(0, 0, 40))
	// Unpaid jobs and null-profession contractors never count toward the
	// profession ranking; the latter still counts for the client ranking.
	s.unpaidJob(clientA, welder, 70000)
	s.paidJob(clientA, noProfession, 5000, base.AddDate(0, 0, 1))

	repo := NewRepository(pool)
	svc := NewService(repo)
	w := Window{Start: base, End: base.AddDate(0, 0, 30)}

	top, err := svc.BestProfession(ctx, w)
	if err != nil {
		t.Fatalf("best profession: %v", err)
	}
	if top.Profession != "plumber" || top.TotalCents != 60000 {
		t.Fatalf("expected plumber/60000, got %+v", top)
	}

	clients, err := svc.BestClients(ctx, w, 1)
	if err != nil {
		t.Fatalf("best clients limit=1: %v", err)
	}
	if len(clients) != 1 || clients[0].AccountID != clientB || clients[0].TotalPaidCents != 50000 {
		t.Fatalf("expected single top client %s/50000, got %+v", clientB, clients)
	}

	clients, err = svc.BestClients(ctx, w, 0)
	if err != nil {
		t.Fatalf("best clients default limit: %v", err)
	}
	// clientA totals 35000: the null-profession contractor's job still
	// counts toward the client ranking.
	if len(clients) != 2 || clients[0].AccountID != clientB || clients[1].AccountID != clientA {
		t.Fatalf("unexpected top-2 ranking: %+v", clients)
	}
	if clients[0].Name == "" {
		t.Fatalf("expected display name, got empty string")
	}

	// An empty window yields a typed not-found, never a zero-total row.
	empty := Window{Start: base.AddDate(-1, 0, 0), End: base.AddDate(-1, 0, 7)}
	if _, err := svc.BestProfession(ctx, empty); !errors.Is(err, ErrNoPaidJobs) {
		t.Fatalf("expected ErrNoPaidJobs, got %v", err)
	}
	if got, err := svc.BestClients(ctx, empty, 2); err != nil || len(got) != 0 {
		t.Fatalf("expected empty client ranking, got %v / %v", got, err)
	}
}

func TestBestProfession_TieBreak_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	var schemaOK bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'jobs')`).Scan(&schemaOK); err != nil || !schemaOK {
		t.Skip("database schema missing; apply migrations/ first")
	}

	base := time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)
	s := newSeeder(ctx, t, pool)

	client := s.account("client", nil)
	zebra := s.account("contractor", strPtr("zz-rigger"))
	azalea := s.account("contractor", strPtr("aa-rigger"))
	s.paidJob(client, zebra, 25000, base.AddDate(0, 0, 1))
	s.paidJob(client, azalea, 25000, base.AddDate(0, 0, 2))

	svc := NewService(NewRepository(pool))
	top, err := svc.BestProfession(ctx, Window{Start: base, End: base.AddDate(0, 0, 10)})
	if err != nil {
		t.Fatalf("best profession: %v", err)
	}
	if top.Profession != "aa-rigger" {
		t.Fatalf("expected lexicographic tie-break to pick aa-rigger, got %q", top.Profession)
	}
}

type seeder struct {
	ctx  context.Context
	t    *testing.T
	pool *pgxpool.Pool

	accountIDs  []string
	contractIDs []string
}

func newSeeder(ctx context.Context, t *testing.T, pool *pgxpool.Pool) *seeder {
	t.Helper()
	s := &seeder{ctx: ctx, t: t, pool: pool}
	t.Cleanup(s.cleanup)
	return s
}

func (s *seeder) account(role string, profession *string) string {
	s.t.Helper()
	var id string
	err := s.pool.QueryRow(s.ctx, `
		INSERT INTO accounts (email, password_hash, first_name, last_name, profession, role)
		VALUES ($1, 'x', 'Rep', 'Seed', $2, $3::account_role) RETURNING id::text
	`, fmt.Sprintf("report+%d-%d@example.com", time.Now().UnixNano(), len(s.accountIDs)), profession, role).Scan(&id)
	if err != nil {
		s.t.Fatalf("seed account: %v", err)
	}
	s.accountIDs = append(s.accountIDs, id)
	return id
}

func (s *seeder) contract(clientID, contractorID string) string {
	s.t.Helper()
	var id string
	err := s.pool.QueryRow(s.ctx, `
		INSERT INTO contracts (client_id, contractor_id, terms, status)
		VALUES ($1, $2, 'report fixture', 'in_progress') RETURNING id::text
	`, clientID, contractorID).Scan(&id)
	if err != nil {
		s.t.Fatalf("seed contract: %v", err)
	}
	s.contractIDs = append(s.contractIDs, id)
	return id
}

func (s *seeder) paidJob(clientID, contractorID string, priceCents int64, paidAt time.Time) {
	s.t.Helper()
	contractID := s.contract(clientID, contractorID)
	if _, err := s.pool.Exec(s.ctx, `
		INSERT INTO jobs (contract_id, description, price_cents, paid, payment_date)
		VALUES ($1, 'work', $2, TRUE, $3)
	`, contractID, priceCents, paidAt); err != nil {
		s.t.Fatalf("seed paid job: %v", err)
	}
}

func (s *seeder) unpaidJob(clientID, contractorID string, priceCents int64) {
	s.t.Helper()
	contractID := s.contract(clientID, contractorID)
	if _, err := s.pool.Exec(s.ctx, `
		INSERT INTO jobs (contract_id, description, price_cents)
		VALUES ($1, 'work', $2)
	`, contractID, priceCents); err != nil {
		s.t.Fatalf("seed unpaid job: %v", err)
	}
}

func (s *seeder) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, id := range s.contractIDs {
		s.pool.Exec(ctx, `DELETE FROM jobs WHERE contract_id = $1`, id)
		s.pool.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	}
	for _, id := range s.accountIDs {
		s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	}
}

func strPtr(s string) *string { return &s }
