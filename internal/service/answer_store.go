package service

import (
	"context"

	"go.uber.org/zap"

	"taxnavo/internal/cache"
	"taxnavo/internal/model"
	"taxnavo/internal/repository"
)

// Store is the load/save contract a questionnaire session is persisted through
type Store interface {
	Load(ctx context.Context, userID string, year int) (model.AnswerMap, error)
	Save(ctx context.Context, userID string, year int, answers model.AnswerMap) error
}

// AnswerStore puts the Redis answer cache in front of the questionnaire
// repository. Cache failures are logged and never fail a load or save.
type AnswerStore struct {
	repo   repository.QuestionnaireRepo
	cache  cache.AnswerCache
	logger *zap.Logger
}

// NewAnswerStore creates an answer store. answerCache may be nil.
func NewAnswerStore(repo repository.QuestionnaireRepo, answerCache cache.AnswerCache, logger *zap.Logger) *AnswerStore {
	return &AnswerStore{
		repo:   repo,
		cache:  answerCache,
		logger: logger.Named("answer_store"),
	}
}

func (s *AnswerStore) Load(ctx context.Context, userID string, year int) (model.AnswerMap, error) {
	if s.cache != nil {
		answers, err := s.cache.Get(ctx, userID, year)
		if err != nil {
			s.logger.Warn("answer cache read failed", zap.String("user_id", userID), zap.Int("year", year), zap.Error(err))
		} else if answers != nil {
			return answers, nil
		}
	}

	answers, err := s.repo.Load(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, userID, year, answers)
	return answers, nil
}

func (s *AnswerStore) Save(ctx context.Context, userID string, year int, answers model.AnswerMap) error {
	if err := s.repo.Save(ctx, userID, year, answers); err != nil {
		return err
	}
	s.fill(ctx, userID, year, answers)
	return nil
}

func (s *AnswerStore) fill(ctx context.Context, userID string, year int, answers model.AnswerMap) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, userID, year, answers); err != nil {
		s.logger.Warn("answer cache write failed", zap.String("user_id", userID), zap.Int("year", year), zap.Error(err))
		// a stale entry would shadow the saved answers
		_ = s.cache.Delete(ctx, userID, year)
	}
}
