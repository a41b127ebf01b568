package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/car-listings/internal/model"
)

// newTestDB returns a fresh in-memory database that is closed when the test
// finishes. t.Helper() makes failures point at the caller's line.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestAccount inserts an account and fails the test if it errors.
func createTestAccount(t *testing.T, db *DB, email string) *model.Account {
	t.Helper()
	a := &model.Account{
		Name:         "Test User",
		Email:        email,
		Phone:        "555-0100",
		PasswordHash: "$2a$04$notarealhashbutlongenoughtostoreinthecolumn.........",
	}
	if err := db.CreateAccount(context.Background(), a); err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return a
}

// createTestCar adds a car to accountID and fails the test if it errors.
func createTestCar(t *testing.T, db *DB, accountID, title string) *model.Car {
	t.Helper()
	c := &model.Car{
		Title:       title,
		Description: "a test car",
		Tags:        "test",
		Images:      []string{"https://media.example/" + title + ".jpg"},
	}
	if err := db.AddCar(context.Background(), accountID, c); err != nil {
		t.Fatalf("failed to create test car: %v", err)
	}
	return c
}

func TestNew_FileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New(%q) error = %v", path, err)
	}
	created := createTestAccount(t, db, "persist@example.com")
	db.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	found, err := reopened.GetAccountByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetAccountByID() after reopen error = %v", err)
	}
	if found.Email != "persist@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "persist@example.com")
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}
