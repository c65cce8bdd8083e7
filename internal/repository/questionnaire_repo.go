package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taxnavo/internal/model"
)

const questionnairesCollection = "questionnaires"

// QuestionnaireRepo stores one answer map per user and tax year
type QuestionnaireRepo interface {
	// Load returns the stored answers, or an empty map when none exist
	Load(ctx context.Context, userID string, year int) (model.AnswerMap, error)
	// Save replaces the stored answers. Saving the same map twice is harmless.
	Save(ctx context.Context, userID string, year int, answers model.AnswerMap) error
	ListByUser(ctx context.Context, userID string) ([]*model.Questionnaire, error)
}

type questionnaireRepo struct {
	collection *mongo.Collection
}

// NewQuestionnaireRepo creates a new questionnaire repository
func NewQuestionnaireRepo(db *mongo.Database) QuestionnaireRepo {
	return &questionnaireRepo{
		collection: db.Collection(questionnairesCollection),
	}
}

func (r *questionnaireRepo) Load(ctx context.Context, userID string, year int) (model.AnswerMap, error) {
	var q model.Questionnaire
	err := r.collection.FindOne(ctx, bson.M{"userId": userID, "year": year}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.AnswerMap{}, nil
	}
	if err != nil {
		return nil, err
	}
	return q.Answers.Clone(), nil
}

func (r *questionnaireRepo) Save(ctx context.Context, userID string, year int, answers model.AnswerMap) error {
	now := time.Now()
	if answers == nil {
		answers = model.AnswerMap{}
	}
	update := bson.M{
		"$set":         bson.M{"answers": answers, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"userId": userID, "year": year},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *questionnaireRepo) ListByUser(ctx context.Context, userID string) ([]*model.Questionnaire, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*model.Questionnaire
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
