package ledger

import (
	"time"

	"jobledger/account"
)

// EntryKind labels rows in the ledger_entries table.
type EntryKind string

const (
	EntryKindJobPayment EntryKind = "job_payment"
	EntryKindDeposit    EntryKind = "deposit"
)

// Entry mirrors a ledger_entries row: the durable, append-only record written
// for every committed payment or deposit.
type Entry struct {
	ID              int64
	Ref             string
	Kind            EntryKind
	JobID           *string
	DebitAccountID  *string
	CreditAccountID string
	AmountCents     int64
	Payload         []byte
	CreatedAt       time.Time
}

// PaymentJob is the job/contract projection loaded and row-locked at the
// start of a payment.
type PaymentJob struct {
	ID           string
	ContractID   string
	ClientID     string
	ContractorID string
	PriceCents   int64
	Paid         bool
}

// LockedAccount is an account row currently held under FOR UPDATE inside the
// active transaction.
type LockedAccount struct {
	ID           string
	Role         account.Role
	BalanceCents int64
}

// AppendEntryParams enumerates the fields of a ledger entry written inside
// the same transaction as the balance mutation it records.
type AppendEntryParams struct {
	Ref             string
	Kind            EntryKind
	JobID           *string
	DebitAccountID  *string
	CreditAccountID string
	AmountCents     int64
	Payload         map[string]any
}
