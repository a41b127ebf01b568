package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateAccount(t *testing.T) {
	db := newTestDB(t)

	a := &model.Account{
		Name:         "Ann",
		Email:        "a@x.com",
		Phone:        "555",
		PasswordHash: "$2a$04$hash",
	}
	if err := db.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if a.ID == "" {
		t.Error("CreateAccount() did not set ID")
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreateAccount() did not set CreatedAt")
	}
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "dup@example.com")

	err := db.CreateAccount(context.Background(), &model.Account{
		Name:         "Someone Else",
		Email:        "dup@example.com",
		Phone:        "1",
		PasswordHash: "$2a$04$hash",
	})
	if !errors.Is(err, apperror.ErrDuplicate) {
		t.Fatalf("CreateAccount() error = %v, want ErrDuplicate", err)
	}

	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		t.Fatalf("counting accounts: %v", err)
	}
	if count != 1 {
		t.Errorf("accounts = %d after duplicate insert, want 1", count)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetAccountByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestAccount(t, db, "byid@example.com")

	found, err := db.GetAccountByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAccountByID() error = %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
	if found.PasswordHash != created.PasswordHash {
		t.Error("PasswordHash was not round-tripped")
	}
	if !found.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, created.CreatedAt)
	}
}

func TestGetAccountByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetAccountByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetAccountByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetAccountByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestAccount(t, db, "byemail@example.com")

	found, err := db.GetAccountByEmail(context.Background(), "byemail@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
}

func TestGetAccountByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetAccountByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetAccountByEmail() error = %v, want ErrNotFound", err)
	}
}
