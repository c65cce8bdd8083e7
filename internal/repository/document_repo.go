package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taxnavo/internal/model"
)

const documentsCollection = "documents"

// DocumentRepo stores upload metadata. File bodies are never persisted.
type DocumentRepo interface {
	Create(ctx context.Context, doc *model.Document) error
	// ListByUser returns a user's documents, newest first. year 0 means every year.
	ListByUser(ctx context.Context, userID string, year int) ([]*model.Document, error)
	// Delete removes a document owned by userID, or returns ErrNotFound
	Delete(ctx context.Context, userID, id string) error
}

type documentRepo struct {
	collection *mongo.Collection
}

func NewDocumentRepo(db *mongo.Database) DocumentRepo {
	return &documentRepo{
		collection: db.Collection(documentsCollection),
	}
}

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *documentRepo) ListByUser(ctx context.Context, userID string, year int) ([]*model.Document, error) {
	filter := bson.M{"userId": userID}
	if year != 0 {
		filter["year"] = year
	}
	opts := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := []*model.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *documentRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
