package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobledger/account"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
)

// Service resolves callers: it registers accounts, authenticates logins, and
// turns bearer tokens back into account identities. The ledger core never
// depends on it; resolved ids are passed in explicitly.
type Service struct {
	repo      Repository
	jwtSecret []byte
}

// LoginResult bundles the token and account returned after a successful login.
type LoginResult struct {
	Token   string
	Account account.Account
}

// NewService creates a new caller-resolution service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
	}
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*account.Account, error) {
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("auth: email, first_name and last_name are required")
	}

	role := account.Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = account.RoleClient
	}
	if !account.ValidRole(role) {
		return nil, fmt.Errorf("auth: invalid role %q", role)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	acct, err := s.repo.CreateAccount(ctx, CreateAccountParams{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Profession:   req.Profession,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	return &acct, nil
}

// Login authenticates an account and returns a JWT token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	acct, passwordHash, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(acct.ID, acct.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{
		Token:   token,
		Account: acct,
	}, nil
}

// GetAccountByID retrieves account information by ID.
func (s *Service) GetAccountByID(ctx context.Context, accountID string) (*account.Account, error) {
	acct, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// VerifyToken validates a JWT token and returns the account ID and role.
func (s *Service) VerifyToken(tokenString string) (string, account.Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return "", "", fmt.Errorf("auth: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		accountID, ok := claims["account_id"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid account_id in token")
		}
		roleStr, ok := claims["role"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid role in token")
		}
		role := account.Role(roleStr)
		if !account.ValidRole(role) {
			return "", "", fmt.Errorf("auth: invalid role %q in token", roleStr)
		}
		return accountID, role, nil
	}

	return "", "", fmt.Errorf("auth: invalid token")
}

// generateToken creates a JWT token for the account.
func (s *Service) generateToken(accountID string, role account.Role) (string, error) {
	claims := jwt.MapClaims{
		"account_id": accountID,
		"role":       role,
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
