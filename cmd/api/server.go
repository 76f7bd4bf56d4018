package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobledger/account"
	"jobledger/auth"
	"jobledger/contract"
	"jobledger/ledger"
	"jobledger/report"
)

type ctxKey int

const (
	ctxKeyAccountID ctxKey = iota
	ctxKeyRole
)

const defaultAccountLimit = 50

// The server depends on narrow interfaces so handler tests can stub the
// services without a database.
type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*account.Account, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(tokenString string) (string, account.Role, error)
}

type accountService interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	ListByRole(ctx context.Context, role account.Role, limit int) ([]account.Account, error)
}

type contractService interface {
	GetForParty(ctx context.Context, id, accountID string) (contract.Contract, error)
	ListForParty(ctx context.Context, accountID string) ([]contract.Contract, error)
	ListUnpaidJobsForParty(ctx context.Context, accountID string) ([]contract.Job, error)
}

type ledgerService interface {
	PayJob(ctx context.Context, jobID, callerAccountID string) error
	Deposit(ctx context.Context, clientAccountID string, amountCents int64) error
}

type reportService interface {
	BestProfession(ctx context.Context, w report.Window) (report.ProfessionTotal, error)
	BestClients(ctx context.Context, w report.Window, limit int) ([]report.ClientTotal, error)
}

// Server is the HTTP boundary: it resolves the caller, parses requests, and
// translates core error kinds into stable status codes. No business rules
// live here.
type Server struct {
	authService     authService
	accountService  accountService
	contractService contractService
	ledgerService   ledgerService
	reportService   reportService
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", s.handleRegister)
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/accounts/me", s.withCaller(s.handleMe))
	mux.HandleFunc("/accounts", s.withCaller(s.handleAccounts))
	mux.HandleFunc("/contracts", s.withCaller(s.handleContracts))
	mux.HandleFunc("/contracts/", s.withCaller(s.handleContractDetail))
	mux.HandleFunc("/jobs/unpaid", s.withCaller(s.handleUnpaidJobs))
	mux.HandleFunc("/jobs/", s.withCaller(s.handlePayJob))
	mux.HandleFunc("/balances/deposit/", s.withCaller(s.handleDeposit))
	mux.HandleFunc("/admin/best-profession", s.withCaller(s.handleBestProfession))
	mux.HandleFunc("/admin/best-clients", s.withCaller(s.handleBestClients))
	return mux
}

// withCaller resolves the bearer token into an account id and stores it in
// the request context; the core always receives the caller explicitly.
func (s *Server) withCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		accountID, role, err := s.authService.VerifyToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyAccountID, accountID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next(w, r.WithContext(ctx))
	}
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyAccountID).(string)
	return id
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	acct, err := s.authService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "email already registered"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(*acct))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		s.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:   result.Token,
		Account: toAccountResponse(result.Account),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	acct, err := s.accountService.GetByID(r.Context(), callerID(r))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
			return
		}
		s.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	role := account.Role(r.URL.Query().Get("role"))
	if !account.ValidRole(role) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid role"})
		return
	}

	limit := defaultAccountLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	accounts, err := s.accountService.ListByRole(r.Context(), role, limit)
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	items := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, listResponse[accountResponse]{Items: items, Total: len(items)})
}

func (s *Server) handleContracts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	contracts, err := s.contractService.ListForParty(r.Context(), callerID(r))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	items := make([]contractResponse, 0, len(contracts))
	for _, c := range contracts {
		items = append(items, toContractResponse(c))
	}
	writeJSON(w, http.StatusOK, listResponse[contractResponse]{Items: items, Total: len(items)})
}

func (s *Server) handleContractDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/contracts/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid contract id"})
		return
	}

	c, err := s.contractService.GetForParty(r.Context(), id, callerID(r))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContractResponse(c))
}

func (s *Server) handleUnpaidJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	jobs, err := s.contractService.ListUnpaidJobsForParty(r.Context(), callerID(r))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, listResponse[jobResponse]{Items: items, Total: len(items)})
}

func (s *Server) handlePayJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/jobs/")
	jobID, action, ok := strings.Cut(rest, "/")
	if !ok || jobID == "" || action != "pay" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid pay path"})
		return
	}

	if err := s.ledgerService.PayJob(r.Context(), jobID, callerID(r)); err != nil {
		s.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "paid"})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	accountID := strings.TrimPrefix(r.URL.Path, "/balances/deposit/")
	if accountID == "" || strings.Contains(accountID, "/") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := s.ledgerService.Deposit(r.Context(), accountID, req.AmountCents); err != nil {
		s.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "deposited"})
}

func (s *Server) handleBestProfession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	top, err := s.reportService.BestProfession(r.Context(), window)
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, professionResponse{
		Profession: top.Profession,
		TotalCents: top.TotalCents,
	})
}

func (s *Server) handleBestClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	window, err := parseWindow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
	}

	clients, err := s.reportService.BestClients(r.Context(), window, limit)
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	items := make([]clientResponse, 0, len(clients))
	for _, c := range clients {
		items = append(items, clientResponse{
			AccountID:      c.AccountID,
			Name:           c.Name,
			TotalPaidCents: c.TotalPaidCents,
		})
	}
	writeJSON(w, http.StatusOK, listResponse[clientResponse]{Items: items, Total: len(items)})
}

// writeCoreError maps each core error kind to one stable status code.
func (s *Server) writeCoreError(w http.ResponseWriter, err error) {
	var capErr *ledger.DepositCapError
	switch {
	case errors.As(err, &capErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:           "deposit exceeds cap",
			MaxAllowedCents: &capErr.MaxAllowedCents,
		})
	case errors.Is(err, ledger.ErrJobNotFound),
		errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, contract.ErrNotFound),
		errors.Is(err, auth.ErrAccountNotFound),
		errors.Is(err, report.ErrNoPaidJobs):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, ledger.ErrAlreadyPaid):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "job already paid"})
	case errors.Is(err, ledger.ErrInsufficientBalance):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: "insufficient balance"})
	case errors.Is(err, ledger.ErrInvalidRole):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "account role mismatch"})
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, report.ErrInvalidRange):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func parseWindow(r *http.Request) (report.Window, error) {
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		return report.Window{}, errors.New("invalid start date")
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		return report.Window{}, errors.New("invalid end date")
	}
	return report.Window{Start: start, End: end}, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("missing date")
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
