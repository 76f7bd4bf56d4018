package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound covers both a missing job and a job whose contract does
	// not belong to the caller; the two are deliberately indistinguishable.
	ErrJobNotFound = errors.New("ledger: job not found")
	// ErrAlreadyPaid signals the job has already been paid; replaying a
	// payment is a no-op for balances.
	ErrAlreadyPaid = errors.New("ledger: job already paid")
	// ErrInsufficientBalance signals the client cannot cover the job price.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrAccountNotFound signals a referenced account row is missing.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrInvalidRole signals an account holds the wrong role for the operation.
	ErrInvalidRole = errors.New("ledger: account role mismatch")
	// ErrInvalidAmount signals a non-positive deposit amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
)

// DepositCapError rejects a deposit above 25% of the client's outstanding
// unpaid job total. MaxAllowedCents is 0 when nothing is outstanding, which
// blocks every positive deposit at zero debt; that is the stated policy,
// pending product clarification.
type DepositCapError struct {
	MaxAllowedCents int64
}

func (e *DepositCapError) Error() string {
	return fmt.Sprintf("ledger: deposit exceeds cap, max allowed %d cents", e.MaxAllowedCents)
}
