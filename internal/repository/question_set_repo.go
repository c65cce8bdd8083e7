package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taxnavo/internal/model"
)

const questionSetsCollection = "question_sets"

// QuestionSetRepo stores question sets that override the embedded catalog
type QuestionSetRepo interface {
	Upsert(ctx context.Context, set *model.QuestionSet) error
	GetByYear(ctx context.Context, year int) (*model.QuestionSet, error)
	List(ctx context.Context) ([]*model.QuestionSet, error)
}

type questionSetRepo struct {
	collection *mongo.Collection
}

func NewQuestionSetRepo(db *mongo.Database) QuestionSetRepo {
	return &questionSetRepo{
		collection: db.Collection(questionSetsCollection),
	}
}

func (r *questionSetRepo) Upsert(ctx context.Context, set *model.QuestionSet) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"year": set.Year}, set, opts)
	return err
}

func (r *questionSetRepo) GetByYear(ctx context.Context, year int) (*model.QuestionSet, error) {
	var set model.QuestionSet
	err := r.collection.FindOne(ctx, bson.M{"year": year}).Decode(&set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *questionSetRepo) List(ctx context.Context) ([]*model.QuestionSet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sets []*model.QuestionSet
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}
