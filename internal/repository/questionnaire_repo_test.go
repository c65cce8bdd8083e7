package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"taxnavo/internal/model"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestQuestionnaireRepo_Load(t *testing.T) {
	mt := newMock(t)

	mt.Run("stored answers", func(mt *mtest.T) {
		repo := NewQuestionnaireRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "taxnavo.questionnaires", mtest.FirstBatch, bson.D{
			{Key: "userId", Value: "u1"},
			{Key: "year", Value: 2024},
			{Key: "answers", Value: bson.D{
				{Key: "4", Value: "Married"},
				{Key: "36", Value: 52000.5},
				{Key: "37", Value: int32(12)},
			}},
		}))

		answers, err := repo.Load(context.Background(), "u1", 2024)
		require.NoError(mt, err)
		assert.True(mt, answers.Equal(model.AnswerMap{
			"4":  model.Text("Married"),
			"36": model.Number(52000.5),
			"37": model.Number(12),
		}))
	})

	mt.Run("absent record is an empty map", func(mt *mtest.T) {
		repo := NewQuestionnaireRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "taxnavo.questionnaires", mtest.FirstBatch))

		answers, err := repo.Load(context.Background(), "u1", 2023)
		require.NoError(mt, err)
		assert.NotNil(mt, answers)
		assert.Empty(mt, answers)
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewQuestionnaireRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "boom"}))

		_, err := repo.Load(context.Background(), "u1", 2024)
		assert.Error(mt, err)
	})
}

func TestQuestionnaireRepo_Save(t *testing.T) {
	mt := newMock(t)

	mt.Run("upserts", func(mt *mtest.T) {
		repo := NewQuestionnaireRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := repo.Save(context.Background(), "u1", 2024, model.AnswerMap{"1": model.Text("Jane")})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)

		update := started.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, "Jane", update.Lookup("u", "$set", "answers", "1").StringValue())
		assert.Equal(mt, "u1", update.Lookup("q", "userId").StringValue())
	})

	mt.Run("write error", func(mt *mtest.T) {
		repo := NewQuestionnaireRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 121, Message: "validation"}))

		err := repo.Save(context.Background(), "u1", 2024, model.AnswerMap{})
		assert.Error(mt, err)
	})
}

func TestQuestionnaireRepo_ListByUser(t *testing.T) {
	mt := newMock(t)

	mt.Run("decodes all", func(mt *mtest.T) {
		repo := NewQuestionnaireRepo(mt.DB)
		ns := "taxnavo.questionnaires"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
				bson.D{{Key: "userId", Value: "u1"}, {Key: "year", Value: 2025}, {Key: "answers", Value: bson.D{}}},
				bson.D{{Key: "userId", Value: "u1"}, {Key: "year", Value: 2024}, {Key: "answers", Value: bson.D{{Key: "1", Value: "Jane"}}}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		list, err := repo.ListByUser(context.Background(), "u1")
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, 2025, list[0].Year)
		assert.Equal(mt, "Jane", list[1].Answers["1"].String())
	})
}
