package account

import "time"

// Role classifies which side of a contract an account can take.
type Role string

const (
	RoleClient     Role = "client"
	RoleContractor Role = "contractor"
)

// Account is a balance-holding party. BalanceCents is integer minor units and
// is only ever mutated inside a ledger transaction; the role is immutable
// after creation.
type Account struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Profession   *string
	Role         Role
	BalanceCents int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns the display name used in reports.
func (a Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// ValidRole reports whether r is one of the two account roles.
func ValidRole(r Role) bool {
	return r == RoleClient || r == RoleContractor
}
