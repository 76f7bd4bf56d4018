package contract

import "time"

// Status represents the lifecycle of a contract.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusTerminated Status = "terminated"
)

// Contract links one client account to one contractor account. The ledger
// never mutates contracts; status only filters which jobs are payable.
type Contract struct {
	ID           string
	ClientID     string
	ContractorID string
	Terms        string
	Status       Status
	CreatedAt    time.Time
}

// Job is a priced unit of work under a contract. It transitions unpaid to
// paid exactly once, and only through the ledger transaction engine.
type Job struct {
	ID          string
	ContractID  string
	Description string
	PriceCents  int64
	Paid        bool
	PaymentDate *time.Time
	CreatedAt   time.Time
}
