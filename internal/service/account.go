// Package service holds the business rules. It sits between the HTTP handlers
// and the repositories:
//
//	AccountHandler → AccountService → AccountRepository
//	                               ↘ TokenService, PasswordService
//	CarHandler     → CarService     → CarRepository
//	                               ↘ media.Uploader
//
// Services never touch http.Request or ResponseWriter. They return
// *apperror.AppError for anything the client caused and plain wrapped errors
// for everything else.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/auth"
	"github.com/sakif/car-listings/internal/model"
	"github.com/sakif/car-listings/internal/repository"
)

// MinPasswordBytes is the shortest password Register accepts.
const MinPasswordBytes = 6

// AccountService handles signup, login and profile lookups.
type AccountService struct {
	accounts  repository.AccountRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAccountService(
	accounts repository.AccountRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterInput is the signup form.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// LoginResult bundles the account and its fresh token so the handler can set
// the cookie and respond in one step.
type LoginResult struct {
	Account *model.Account
	Token   string
}

// NormalizeEmail trims and lower-cases an address. Every lookup and every
// write goes through it, so "Ann@X.com " and "ann@x.com" are one account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account.
//
// The email is checked with a lookup first so the common case gets a clean
// error. Two signups racing past the lookup are still caught by the store's
// unique constraint, which returns the same apperror.ErrDuplicate.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = NormalizeEmail(in.Email)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	_, err := s.accounts.GetAccountByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperror.Duplicate("user", "email")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/account: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/account: hashing password: %w", err)
	}

	account := &model.Account{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("service/account: creating account: %w", err)
	}

	s.logger.Info("account registered", slog.String("accountID", account.ID))
	return account, nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case in.Name == "":
		return apperror.ValidationFailed("name", "name is required")
	case in.Email == "":
		return apperror.ValidationFailed("email", "email is required")
	case in.Phone == "":
		return apperror.ValidationFailed("phone", "phone is required")
	case in.Password == "":
		return apperror.ValidationFailed("password", "password is required")
	case len(in.Password) < MinPasswordBytes:
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d bytes", MinPasswordBytes))
	case len(in.Password) > auth.MaxPasswordBytes:
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return nil
}

// Login checks the credentials and issues a session token.
//
// An unknown email and a wrong password both return
// apperror.InvalidCredentials. For an unknown email a bcrypt comparison still
// runs (PasswordService.Burn), so the two cases take about the same time.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "email and password are required")
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.Burn(password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/account: looking up account: %w", err)
	}

	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/account: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, fmt.Errorf("service/account: generating token for account %s: %w", account.ID, err)
	}

	s.logger.Info("account logged in", slog.String("accountID", account.ID))
	return &LoginResult{Account: account, Token: token}, nil
}

// GetAccount returns the profile of the authenticated account.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	if accountID == "" {
		return nil, fmt.Errorf("service/account: account ID must not be empty")
	}

	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("service/account: fetching account %s: %w", accountID, err)
	}
	return account, nil
}
