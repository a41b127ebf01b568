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

type carDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Tags        string    `bson:"tags"`
	Images      []string  `bson:"images"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (d carDoc) toModel() model.Car {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return model.Car{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Tags:        d.Tags,
		Images:      images,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// ownedCar matches the account document only if it holds carID.
func ownedCar(accountID, carID string) bson.D {
	return bson.D{
		{Key: "_id", Value: accountID},
		{Key: "cars._id", Value: carID},
	}
}

// AddCar pushes the car onto the end of the account's array.
func (db *DB) AddCar(ctx context.Context, accountID string, car *model.Car) error {
	car.ID = xid.New().String()
	car.CreatedAt = now()
	if car.Images == nil {
		car.Images = []string{}
	}

	doc := carDoc{
		ID:          car.ID,
		Title:       car.Title,
		Description: car.Description,
		Tags:        car.Tags,
		Images:      car.Images,
		CreatedAt:   car.CreatedAt,
	}

	res, err := db.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: accountID}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "cars", Value: doc}}}},
	)
	if err != nil {
		return fmt.Errorf("mongo: adding car for account %s: %w", accountID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("account", accountID)
	}

	return nil
}

// ListCars returns the account's cars in array order, which is insertion order.
func (db *DB) ListCars(ctx context.Context, accountID string) ([]model.Car, error) {
	var doc accountDoc
	err := db.users.FindOne(ctx,
		bson.D{{Key: "_id", Value: accountID}},
		options.FindOne().SetProjection(bson.D{{Key: "cars", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("account", accountID)
		}
		return nil, fmt.Errorf("mongo: listing cars for account %s: %w", accountID, err)
	}

	cars := make([]model.Car, 0, len(doc.Cars))
	for _, c := range doc.Cars {
		cars = append(cars, c.toModel())
	}
	return cars, nil
}

// FindCar projects the single matching array element with the positional
// operator.
func (db *DB) FindCar(ctx context.Context, accountID, carID string) (*model.Car, error) {
	var doc accountDoc
	err := db.users.FindOne(ctx,
		ownedCar(accountID, carID),
		options.FindOne().SetProjection(bson.D{{Key: "cars.$", Value: 1}}),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, db.notFound(ctx, accountID, carID)
		}
		return nil, fmt.Errorf("mongo: getting car %s: %w", carID, err)
	}
	if len(doc.Cars) == 0 {
		return nil, db.notFound(ctx, accountID, carID)
	}

	c := doc.Cars[0].toModel()
	return &c, nil
}

// UpdateCar sets only the patched fields on the matched element.
func (db *DB) UpdateCar(ctx context.Context, accountID, carID string, patch model.CarPatch) (*model.Car, error) {
	if patch.IsEmpty() {
		return db.FindCar(ctx, accountID, carID)
	}

	set := bson.D{}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "cars.$.title", Value: *patch.Title})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "cars.$.description", Value: *patch.Description})
	}
	if patch.Tags != nil {
		set = append(set, bson.E{Key: "cars.$.tags", Value: *patch.Tags})
	}

	res, err := db.users.UpdateOne(ctx,
		ownedCar(accountID, carID),
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return nil, fmt.Errorf("mongo: updating car %s: %w", carID, err)
	}
	if res.MatchedCount == 0 {
		return nil, db.notFound(ctx, accountID, carID)
	}

	return db.FindCar(ctx, accountID, carID)
}

// DeleteCar pulls the car out of the account's array.
func (db *DB) DeleteCar(ctx context.Context, accountID, carID string) error {
	res, err := db.users.UpdateOne(ctx,
		ownedCar(accountID, carID),
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "cars", Value: bson.D{{Key: "_id", Value: carID}}},
		}}},
	)
	if err != nil {
		return fmt.Errorf("mongo: deleting car %s: %w", carID, err)
	}
	if res.MatchedCount == 0 {
		return db.notFound(ctx, accountID, carID)
	}

	return nil
}

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
