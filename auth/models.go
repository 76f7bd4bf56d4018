package auth

import "jobledger/account"

// RegisterRequest contains account registration data supplied by callers.
// Role is fixed at registration; clients pay, contractors get paid.
type RegisterRequest struct {
	Email      string       `json:"email"`
	Password   string       `json:"password"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	Profession *string      `json:"profession,omitempty"`
	Role       account.Role `json:"role"`
}

// LoginRequest contains account login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccountParams contains write parameters for creating accounts.
type CreateAccountParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Profession   *string
	Role         account.Role
}
