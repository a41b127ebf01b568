package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/car-listings/internal/apperror"
	"github.com/sakif/car-listings/internal/model"
)

type accountDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Phone        string    `bson:"phone"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	Cars         []carDoc  `bson:"cars"`
}

func (d accountDoc) toModel() *model.Account {
	return &model.Account{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// withoutCars keeps account lookups from dragging the whole car array along.
var withoutCars = bson.D{{Key: "cars", Value: 0}}

// CreateAccount inserts a new account document with an empty car array.
// The unique index on email settles racing signups.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	account.ID = xid.New().String()
	account.CreatedAt = now()

	_, err := db.users.InsertOne(ctx, accountDoc{
		ID:           account.ID,
		Name:         account.Name,
		Email:        account.Email,
		Phone:        account.Phone,
		PasswordHash: account.PasswordHash,
		CreatedAt:    account.CreatedAt,
		Cars:         []carDoc{},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Duplicate("user", "email")
		}
		return fmt.Errorf("mongo: inserting account: %w", err)
	}

	return nil
}

// GetAccountByID retrieves an account by its ID.
func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	a, err := db.findAccount(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("mongo: getting account %s: %w", id, err)
	}
	return a, nil
}

// GetAccountByEmail retrieves an account by its normalized email.
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	a, err := db.findAccount(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "account not found"}
		}
		return nil, fmt.Errorf("mongo: getting account by email: %w", err)
	}
	return a, nil
}

func (db *DB) findAccount(ctx context.Context, filter bson.D) (*model.Account, error) {
	var doc accountDoc
	err := db.users.FindOne(ctx, filter, options.FindOne().SetProjection(withoutCars)).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (db *DB) accountExists(ctx context.Context, id string) (bool, error) {
	n, err := db.users.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("mongo: checking account %s: %w", id, err)
	}
	return n > 0, nil
}
