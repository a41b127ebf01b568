// Package mongo implements the repository interfaces on MongoDB.
//
// LAYOUT:
// One document per account in the "users" collection. The account's cars are
// an embedded array, so a car cannot outlive its owner and there is no way to
// reach a car except through the owner's document:
//
//	{
//	  "_id": "<xid>", "name": ..., "email": ..., "phone": ...,
//	  "password_hash": ..., "created_at": ...,
//	  "cars": [ {"_id": "<xid>", "title": ..., "images": [...], ...}, ... ]
//	}
//
// ATOMICITY:
// Every car mutation is a single UpdateOne on the owner's document with
// $push, positional $set or $pull. Two requests editing different cars of
// the same account never overwrite each other's changes.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/sakif/car-listings/internal/repository"
)

var _ repository.Store = (*DB)(nil)

const usersCollection = "users"

// DB wraps a mongo client and implements repository.Store.
type DB struct {
	client *mongo.Client
	users  *mongo.Collection
}

// New connects to uri, selects database and makes sure the indexes exist.
func New(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	db := &DB{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
	}

	if err := db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: creating indexes: %w", err)
	}

	return db, nil
}

// ensureIndexes is safe to run on every start; creating an identical index
// is a no-op on the server.
func (db *DB) ensureIndexes(ctx context.Context) error {
	_, err := db.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}

// Close disconnects the client.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// Mongo stores datetimes with millisecond precision. Truncating before the
// write means the value handed back to the caller equals the stored one.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
