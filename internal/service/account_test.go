package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/car-listings/internal/apperror"
)

func validSignup() RegisterInput {
	return RegisterInput{Name: "Ann", Email: "a@x.com", Phone: "555", Password: "secret1"}
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_PasswordMinimumIsInBytes(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)

	in := validSignup()
	in.Password = "ééé" // three runes, six bytes
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("Register() error = %v, want a six-byte password accepted", err)
	}
}

func TestRegister_ThenLoginSucceeds(t *testing.T) {
	store := newFakeStore()
	svc, ts := newTestAccountService(t, store)

	account, err := svc.Register(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if account.ID == "" {
		t.Fatal("Register() did not assign an ID")
	}
	if account.PasswordHash == "secret1" || account.PasswordHash == "" {
		t.Fatal("Register() must store a hash, never the plaintext")
	}

	result, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	gotID, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if gotID != account.ID {
		t.Errorf("token subject = %q, want %q", gotID, account.ID)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)

	in := validSignup()
	in.Email = "  Ann@X.COM "
	in.Name = " Ann "
	account, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if account.Email != "ann@x.com" {
		t.Errorf("Email = %q, want %q", account.Email, "ann@x.com")
	}
	if account.Name != "Ann" {
		t.Errorf("Name = %q, want %q", account.Name, "Ann")
	}

	if _, err := svc.Login(context.Background(), "ANN@x.com", "secret1"); err != nil {
		t.Errorf("Login() with different case error = %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)

	if _, err := svc.Register(context.Background(), validSignup()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	again := validSignup()
	again.Email = "A@X.com"
	again.Name = "Impostor"
	_, err := svc.Register(context.Background(), again)
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("Register() error = %v, want ErrDuplicate", err)
	}
	if got := store.accountCount(); got != 1 {
		t.Errorf("accounts = %d, want 1", got)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "  " }, "name"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"missing phone", func(in *RegisterInput) { in.Phone = "" }, "phone"},
		{"missing password", func(in *RegisterInput) { in.Password = "" }, "password"},
		{"short password", func(in *RegisterInput) { in.Password = "12345" }, "password"},
		{"short multibyte password", func(in *RegisterInput) { in.Password = "ééx" }, "password"},
		{"long password", func(in *RegisterInput) { in.Password = strings.Repeat("x", 73) }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc, _ := newTestAccountService(t, store)

			in := validSignup()
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want validation error", err)
			}
			if appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
			if store.accountCount() != 0 {
				t.Error("no account may be created on validation failure")
			}
		})
	}
}

func TestRegister_StoreFailureIsNotAClientError(t *testing.T) {
	store := newFakeStore()
	store.getByEmailErr = errors.New("connection reset")
	svc, _ := newTestAccountService(t, store)

	_, err := svc.Register(context.Background(), validSignup())
	if err == nil {
		t.Fatal("Register() expected error")
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		t.Errorf("store fault surfaced as AppError %v", appErr)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_WrongPasswordAndUnknownEmailLookTheSame(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)
	if _, err := svc.Register(context.Background(), validSignup()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), "a@x.com", "not-the-password")
	_, unknownEmail := svc.Login(context.Background(), "nobody@x.com", "secret1")

	for name, err := range map[string]error{"wrong password": wrongPassword, "unknown email": unknownEmail} {
		if !errors.Is(err, apperror.ErrInvalidCredentials) {
			t.Errorf("%s: error = %v, want ErrInvalidCredentials", name, err)
		}
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword.Error(), unknownEmail.Error())
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newTestAccountService(t, newFakeStore())

	_, err := svc.Login(context.Background(), "", "secret1")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() error = %v, want ErrValidation", err)
	}
}

func TestLogin_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.getByEmailErr = errors.New("connection reset")
	svc, _ := newTestAccountService(t, store)

	_, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if err == nil || errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want a server fault", err)
	}
}

// =========================================================================
// GetAccount TESTS
// =========================================================================

func TestGetAccount(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestAccountService(t, store)
	created, _ := svc.Register(context.Background(), validSignup())

	got, err := svc.GetAccount(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Email != "a@x.com" {
		t.Errorf("Email = %q", got.Email)
	}

	if _, err := svc.GetAccount(context.Background(), "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetAccount(ghost) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetAccount(context.Background(), ""); err == nil {
		t.Error("GetAccount(\"\") expected error")
	}
}
