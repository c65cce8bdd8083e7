package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes every repository relies on. The unique
// indexes back ErrDuplicate and the one-questionnaire-per-year rule.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []struct {
		coll   string
		keys   bson.D
		unique bool
	}{
		{questionnairesCollection, bson.D{{Key: "userId", Value: 1}, {Key: "year", Value: 1}}, true},
		{usersCollection, bson.D{{Key: "email", Value: 1}}, true},
		{documentsCollection, bson.D{{Key: "userId", Value: 1}, {Key: "year", Value: -1}}, false},
		{questionSetsCollection, bson.D{{Key: "year", Value: 1}}, true},
	}
	for _, idx := range indexes {
		if err := createIndex(ctx, db.Collection(idx.coll), idx.keys, idx.unique); err != nil {
			return err
		}
	}
	return nil
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) error {
	opts := options.Index().SetUnique(unique)
	if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts}); err != nil {
		return fmt.Errorf("create index on %s: %w", coll.Name(), err)
	}
	return nil
}
