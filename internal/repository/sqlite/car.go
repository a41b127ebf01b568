package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/model"
)

// Every statement in this file has "account_id = ?" in its WHERE clause.
// That is the whole ownership check.

const carColumns = `id, title, description, tags, images, created_at`

// AddCar appends a car to the account's collection.
func (db *DB) AddCar(ctx context.Context, accountID string, car *model.Car) error {
	exists, err := db.accountExists(ctx, accountID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("account", accountID)
	}

	images, err := json.Marshal(nonNil(car.Images))
	if err != nil {
		return fmt.Errorf("sqlite: encoding images: %w", err)
	}

	car.ID = xid.New().String()
	car.CreatedAt = time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO cars (id, account_id, title, description, tags, images, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		car.ID,
		accountID,
		car.Title,
		car.Description,
		car.Tags,
		string(images),
		car.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting car for account %s: %w", accountID, err)
	}

	return nil
}

// ListCars returns the account's cars in the order they were added.
func (db *DB) ListCars(ctx context.Context, accountID string) ([]model.Car, error) {
	exists, err := db.accountExists(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperror.NotFound("account", accountID)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+carColumns+`
		 FROM cars
		 WHERE account_id = ?
		 ORDER BY seq`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing cars for account %s: %w", accountID, err)
	}
	defer rows.Close()

	cars := make([]model.Car, 0)
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning car row: %w", err)
		}
		cars = append(cars, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cars: %w", err)
	}

	return cars, nil
}

// FindCar returns one car from the account's collection.
func (db *DB) FindCar(ctx context.Context, accountID, carID string) (*model.Car, error) {
	c, err := scanCar(db.conn.QueryRowContext(ctx,
		`SELECT `+carColumns+`
		 FROM cars
		 WHERE id = ? AND account_id = ?`,
		carID,
		accountID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.notFound(ctx, accountID, carID)
		}
		return nil, fmt.Errorf("sqlite: getting car %s: %w", carID, err)
	}
	return c, nil
}

// UpdateCar writes only the fields set in patch, in one UPDATE statement.
// images and created_at are never in the SET list.
func (db *DB) UpdateCar(ctx context.Context, accountID, carID string, patch model.CarPatch) (*model.Car, error) {
	if patch.IsEmpty() {
		return db.FindCar(ctx, accountID, carID)
	}

	var (
		sets []string
		args []any
	)
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, *patch.Tags)
	}
	args = append(args, carID, accountID)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE cars SET `+strings.Join(sets, ", ")+`
		 WHERE id = ? AND account_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating car %s: %w", carID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, db.notFound(ctx, accountID, carID)
	}

	return db.FindCar(ctx, accountID, carID)
}

// DeleteCar removes a car from the account's collection.
func (db *DB) DeleteCar(ctx context.Context, accountID, carID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM cars WHERE id = ? AND account_id = ?`,
		carID,
		accountID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting car %s: %w", carID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return db.notFound(ctx, accountID, carID)
	}

	return nil
}

// notFound picks the right NotFound after a scoped statement matched nothing.
func (db *DB) notFound(ctx context.Context, accountID, carID string) error {
	exists, err := db.accountExists(ctx, accountID)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("account", accountID)
	}
	return apperror.NotFound("car", carID)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*model.Car, error) {
	var (
		c      model.Car
		images string
	)
	if err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Tags,
		&images,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &c.Images); err != nil {
		return nil, fmt.Errorf("decoding images: %w", err)
	}
	c.Images = nonNil(c.Images)
	return &c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
