package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobledger/account"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	clientID     = "11111111-1111-1111-1111-111111111111"
	contractorID = "22222222-2222-2222-2222-222222222222"
	jobID        = "33333333-3333-3333-3333-333333333333"
	contractID   = "44444444-4444-4444-4444-444444444444"
)

func paymentFixture(balance int64) *fakeRepo {
	return &fakeRepo{
		job: PaymentJob{
			ID:           jobID,
			ContractID:   contractID,
			ClientID:     clientID,
			ContractorID: contractorID,
			PriceCents:   10000,
		},
		accounts: []LockedAccount{
			{ID: clientID, Role: account.RoleClient, BalanceCents: balance},
			{ID: contractorID, Role: account.RoleContractor, BalanceCents: 0},
		},
	}
}

func TestPayJob_Success(t *testing.T) {
	pool := &fakePool{}
	repo := paymentFixture(10000)
	svc := newTestService(pool, repo)

	if err := svc.PayJob(context.Background(), jobID, clientID); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if !pool.tx.committed {
		t.Errorf("expected commit to be called")
	}
	if repo.transferredCents != 10000 {
		t.Errorf("expected transfer of 10000 cents, got %d", repo.transferredCents)
	}
	if !repo.markedPaid {
		t.Errorf("expected job to be marked paid")
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(repo.entries))
	}

	entry := repo.entries[0]
	if entry.Kind != EntryKindJobPayment {
		t.Errorf("expected job_payment entry, got %s", entry.Kind)
	}
	if entry.DebitAccountID == nil || *entry.DebitAccountID != clientID {
		t.Errorf("expected debit account %s, got %v", clientID, entry.DebitAccountID)
	}
	if entry.CreditAccountID != contractorID {
		t.Errorf("expected credit account %s, got %s", contractorID, entry.CreditAccountID)
	}
	if entry.AmountCents != 10000 {
		t.Errorf("expected entry amount 10000, got %d", entry.AmountCents)
	}
	if entry.Ref == "" {
		t.Errorf("expected a payment reference")
	}
}

func TestPayJob_NotOwnedLooksMissing(t *testing.T) {
	pool := &fakePool{}
	repo := paymentFixture(10000)
	svc := newTestService(pool, repo)

	err := svc.PayJob(context.Background(), jobID, contractorID)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}

	assertNoEffects(t, pool, repo)
}

func TestPayJob_AlreadyPaid(t *testing.T) {
	pool := &fakePool{}
	repo := paymentFixture(10000)
	repo.job.Paid = true
	svc := newTestService(pool, repo)

	err := svc.PayJob(context.Background(), jobID, clientID)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid, got %v", err)
	}

	assertNoEffects(t, pool, repo)
}

func TestPayJob_InsufficientBalance(t *testing.T) {
	pool := &fakePool{}
	repo := paymentFixture(9999)
	svc := newTestService(pool, repo)

	err := svc.PayJob(context.Background(), jobID, clientID)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	assertNoEffects(t, pool, repo)
}

func TestPayJob_RoleMismatch(t *testing.T) {
	pool := &fakePool{}
	repo := paymentFixture(10000)
	repo.accounts[1].Role = account.RoleClient
	svc := newTestService(pool, repo)

	err := svc.PayJob(context.Background(), jobID, clientID)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	assertNoEffects(t, pool, repo)
}

func TestPayJob_MissingAccountRow(t *testing.T) {
	pool := &fakePool{}
	repo := paymentFixture(10000)
	repo.accounts = repo.accounts[:1]
	svc := newTestService(pool, repo)

	err := svc.PayJob(context.Background(), jobID, clientID)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertNoEffects(t, pool, repo)
}

func TestPayJob_MarkPaidRace(t *testing.T) {
	pool := &fakePool{}
	repo := paymentFixture(10000)
	repo.markPaidErr = ErrAlreadyPaid
	svc := newTestService(pool, repo)

	err := svc.PayJob(context.Background(), jobID, clientID)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected ErrAlreadyPaid from guarded update, got %v", err)
	}

	if pool.tx.committed {
		t.Errorf("expected commit to be skipped")
	}
	if !pool.tx.rolled {
		t.Errorf("expected rollback to be called")
	}
}

func TestDeposit_Success(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{
		client:      LockedAccount{ID: clientID, Role: account.RoleClient, BalanceCents: 0},
		outstanding: 40000,
	}
	svc := newTestService(pool, repo)

	if err := svc.Deposit(context.Background(), clientID, 10000); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if !pool.tx.committed {
		t.Errorf("expected commit to be called")
	}
	if repo.creditedCents != 10000 {
		t.Errorf("expected credit of 10000 cents, got %d", repo.creditedCents)
	}
	if len(repo.entries) != 1 || repo.entries[0].Kind != EntryKindDeposit {
		t.Fatalf("expected one deposit entry, got %+v", repo.entries)
	}
	if repo.entries[0].DebitAccountID != nil {
		t.Errorf("deposit entries must not carry a debit account")
	}
}

func TestDeposit_CapExceeded(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{
		client:      LockedAccount{ID: clientID, Role: account.RoleClient},
		outstanding: 40000,
	}
	svc := newTestService(pool, repo)

	err := svc.Deposit(context.Background(), clientID, 10001)

	var capErr *DepositCapError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected DepositCapError, got %v", err)
	}
	if capErr.MaxAllowedCents != 10000 {
		t.Fatalf("expected max allowed 10000, got %d", capErr.MaxAllowedCents)
	}

	if repo.creditedCents != 0 {
		t.Errorf("expected no credit, got %d", repo.creditedCents)
	}
	if pool.tx.committed {
		t.Errorf("expected commit to be skipped")
	}
}

func TestDeposit_ZeroOutstandingBlocksAll(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{
		client: LockedAccount{ID: clientID, Role: account.RoleClient},
	}
	svc := newTestService(pool, repo)

	err := svc.Deposit(context.Background(), clientID, 1)

	var capErr *DepositCapError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected DepositCapError, got %v", err)
	}
	if capErr.MaxAllowedCents != 0 {
		t.Fatalf("expected max allowed 0 at zero outstanding, got %d", capErr.MaxAllowedCents)
	}
}

func TestDeposit_RejectsNonClient(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{
		client:      LockedAccount{ID: contractorID, Role: account.RoleContractor},
		outstanding: 40000,
	}
	svc := newTestService(pool, repo)

	err := svc.Deposit(context.Background(), contractorID, 1000)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	pool := &fakePool{}
	svc := newTestService(pool, &fakeRepo{})

	for _, amount := range []int64{0, -5} {
		err := svc.Deposit(context.Background(), clientID, amount)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if pool.tx != nil {
		t.Errorf("expected no transaction for rejected amounts")
	}
}

func newTestService(pool TxBeginner, repo LedgerRepository) *Service {
	svc := NewService(pool, repo)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func assertNoEffects(t *testing.T, pool *fakePool, repo *fakeRepo) {
	t.Helper()
	if repo.transferredCents != 0 {
		t.Errorf("expected no transfer, got %d cents", repo.transferredCents)
	}
	if repo.markedPaid {
		t.Errorf("expected job to stay unpaid")
	}
	if len(repo.entries) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(repo.entries))
	}
	if pool.tx == nil {
		t.Fatalf("expected Begin to provide transaction")
	}
	if pool.tx.committed {
		t.Errorf("expected commit to be skipped")
	}
	if !pool.tx.rolled {
		t.Errorf("expected rollback to be called")
	}
}

type fakeRepo struct {
	job         PaymentJob
	jobErr      error
	accounts    []LockedAccount
	client      LockedAccount
	clientErr   error
	outstanding int64
	markPaidErr error

	transferredCents int64
	markedPaid       bool
	creditedCents    int64
	entries          []AppendEntryParams
}

func (f *fakeRepo) GetJobForPayment(ctx context.Context, tx pgx.Tx, jobID string) (PaymentJob, error) {
	if f.jobErr != nil {
		return PaymentJob{}, f.jobErr
	}
	return f.job, nil
}

func (f *fakeRepo) LockAccounts(ctx context.Context, tx pgx.Tx, ids []string) ([]LockedAccount, error) {
	return f.accounts, nil
}

func (f *fakeRepo) LockClientAccount(ctx context.Context, tx pgx.Tx, accountID string) (LockedAccount, error) {
	if f.clientErr != nil {
		return LockedAccount{}, f.clientErr
	}
	return f.client, nil
}

func (f *fakeRepo) ApplyTransfer(ctx context.Context, tx pgx.Tx, clientID, contractorID string, amountCents int64) error {
	f.transferredCents += amountCents
	return nil
}

func (f *fakeRepo) MarkJobPaid(ctx context.Context, tx pgx.Tx, jobID string, paidAt time.Time) error {
	if f.markPaidErr != nil {
		return f.markPaidErr
	}
	f.markedPaid = true
	return nil
}

func (f *fakeRepo) OutstandingCents(ctx context.Context, tx pgx.Tx, clientID string) (int64, error) {
	return f.outstanding, nil
}

func (f *fakeRepo) CreditBalance(ctx context.Context, tx pgx.Tx, accountID string, amountCents int64) error {
	f.creditedCents += amountCents
	return nil
}

func (f *fakeRepo) AppendEntry(ctx context.Context, tx pgx.Tx, params AppendEntryParams) error {
	f.entries = append(f.entries, params)
	return nil
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
