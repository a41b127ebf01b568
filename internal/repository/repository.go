// Package repository declares the storage interfaces the service layer needs.
//
// OWNERSHIP BY CONSTRUCTION:
// CarRepository has no method that takes a car ID on its own. Every call
// carries the owning account's ID, and implementations only ever look inside
// that account's cars. A car that belongs to someone else is therefore
// indistinguishable from a car that does not exist: both come back as
// apperror.ErrNotFound.
package repository

import (
	"context"

	"github.com/sakif/car-listings/internal/model"
)

type AccountRepository interface {
	// CreateAccount assigns ID and CreatedAt. It returns apperror.ErrDuplicate
	// when the email is already taken, even if two signups race.
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	// GetAccountByEmail expects an already normalized email.
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)
}

// CarRepository stores cars inside their owner's collection.
//
// Methods return apperror.ErrNotFound for a missing account (resource "account")
// and for a car that is not in this account's collection (resource "car").
// Each mutation is a single atomic operation scoped by (accountID, carID).
type CarRepository interface {
	// AddCar appends car to the account's collection, assigning ID and CreatedAt.
	AddCar(ctx context.Context, accountID string, car *model.Car) error
	// ListCars returns the account's cars in creation order, never nil.
	ListCars(ctx context.Context, accountID string) ([]model.Car, error)
	FindCar(ctx context.Context, accountID, carID string) (*model.Car, error)
	// UpdateCar applies patch and returns the car as stored afterwards.
	UpdateCar(ctx context.Context, accountID, carID string, patch model.CarPatch) (*model.Car, error)
	DeleteCar(ctx context.Context, accountID, carID string) error
}

// Store is a complete backend.
type Store interface {
	AccountRepository
	CarRepository
	Close() error
}
