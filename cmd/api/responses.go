package main

import (
	"time"

	"jobledger/account"
	"jobledger/contract"
)

type errorResponse struct {
	Error           string `json:"error"`
	MaxAllowedCents *int64 `json:"max_allowed_cents,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type accountResponse struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Profession   *string `json:"profession,omitempty"`
	Role         string  `json:"role"`
	BalanceCents int64   `json:"balance_cents"`
	CreatedAt    string  `json:"created_at"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Account accountResponse `json:"account"`
}

type contractResponse struct {
	ID           string `json:"id"`
	ClientID     string `json:"client_id"`
	ContractorID string `json:"contractor_id"`
	Terms        string `json:"terms"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}

type jobResponse struct {
	ID          string  `json:"id"`
	ContractID  string  `json:"contract_id"`
	Description string  `json:"description"`
	PriceCents  int64   `json:"price_cents"`
	Paid        bool    `json:"paid"`
	PaymentDate *string `json:"payment_date,omitempty"`
}

type depositRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type professionResponse struct {
	Profession string `json:"profession"`
	TotalCents int64  `json:"total_cents"`
}

type clientResponse struct {
	AccountID      string `json:"account_id"`
	Name           string `json:"name"`
	TotalPaidCents int64  `json:"total_paid_cents"`
}

func toAccountResponse(a account.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Profession:   a.Profession,
		Role:         string(a.Role),
		BalanceCents: a.BalanceCents,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}

func toContractResponse(c contract.Contract) contractResponse {
	return contractResponse{
		ID:           c.ID,
		ClientID:     c.ClientID,
		ContractorID: c.ContractorID,
		Terms:        c.Terms,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

func toJobResponse(j contract.Job) jobResponse {
	resp := jobResponse{
		ID:          j.ID,
		ContractID:  j.ContractID,
		Description: j.Description,
		PriceCents:  j.PriceCents,
		Paid:        j.Paid,
	}
	if j.PaymentDate != nil {
		formatted := j.PaymentDate.Format(time.RFC3339)
		resp.PaymentDate = &formatted
	}
	return resp
}
