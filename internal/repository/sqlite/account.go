package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/model"
)

// CreateAccount inserts a new account.
//
// The service checks for an existing email first, but two signups can still
// race between that check and this INSERT. The UNIQUE constraint on email
// settles the race; the loser gets apperror.ErrDuplicate.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	account.ID = xid.New().String()
	account.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, phone, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Name,
		account.Email,
		account.Phone,
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Duplicate("user", "email")
		}
		return fmt.Errorf("sqlite: inserting account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves an account by its ID.
// Returns apperror.ErrNotFound if no account exists with that ID.
func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	a, err := db.scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, phone, password_hash, created_at
		 FROM accounts WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", id, err)
	}
	return a, nil
}

// GetAccountByEmail retrieves an account by its normalized email.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	a, err := db.scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, phone, password_hash, created_at
		 FROM accounts WHERE email = ?`,
		email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "account not found"}
		}
		return nil, fmt.Errorf("sqlite: getting account by email: %w", err)
	}
	return a, nil
}

func (db *DB) scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.Phone,
		&a.PasswordHash,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

// accountExists is used to tell "no such account" from "no such car" after a
// scoped statement matched nothing.
func (db *DB) accountExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking account %s: %w", id, err)
	}
	return true, nil
}
