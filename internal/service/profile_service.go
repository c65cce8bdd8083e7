package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taxnavo/internal/cache"
	"taxnavo/internal/engine"
	"taxnavo/internal/model"
)

// ProfileService builds the dashboard view across all tax years
type ProfileService struct {
	catalog Catalog
	store   Store
	cursors cache.CursorCache
	logger  *zap.Logger
}

// NewProfileService creates a profile service. cursors may be nil.
func NewProfileService(cat Catalog, store Store, cursors cache.CursorCache, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		catalog: cat,
		store:   store,
		cursors: cursors,
		logger:  logger.Named("profile"),
	}
}

type yearAnswers struct {
	set     *model.QuestionSet
	answers model.AnswerMap
	cursor  int
	hasPos  bool
}

// Get loads every year concurrently and derives the profile from the newest
// year that has answers. Profile fields are never written back as answers.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	years := s.catalog.Years()
	results := make([]yearAnswers, len(years))

	g, gctx := errgroup.WithContext(ctx)
	for i, year := range years {
		g.Go(func() error {
			set, err := s.catalog.Get(year)
			if err != nil {
				return err
			}
			answers, err := s.store.Load(gctx, userID, year)
			if err != nil {
				return fmt.Errorf("load %d: %w", year, err)
			}
			res := yearAnswers{set: set, answers: answers}
			if s.cursors != nil {
				cursor, ok, err := s.cursors.GetCursor(gctx, userID, year)
				if err != nil {
					s.logger.Warn("cursor cache read failed", zap.String("user_id", userID), zap.Int("year", year), zap.Error(err))
				}
				res.cursor, res.hasPos = cursor, ok
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := &model.Profile{Fields: map[string]string{}, CompletedYears: []int{}}
	for _, r := range results {
		profile.Years = append(profile.Years, yearProgress(r))
		if len(r.answers) == 0 {
			continue
		}
		profile.CompletedYears = append(profile.CompletedYears, r.set.Year)
		if profile.SourceYear == 0 {
			profile.SourceYear = r.set.Year
			profile.Fields = profileFields(r.set, r.answers)
		}
	}
	return profile, nil
}

func yearProgress(r yearAnswers) model.YearProgress {
	yp := model.YearProgress{
		Year:     r.set.Year,
		Title:    r.set.Title,
		Answered: len(r.answers),
		Total:    len(r.set.Questions),
	}
	if len(r.answers) == 0 && !r.hasPos {
		return yp
	}

	e := engine.New(r.set.Questions, r.answers)
	if r.hasPos {
		e.Seek(r.cursor)
	} else {
		e.Seek(lastAnswered(r.set, r.answers) + 1)
	}
	yp.Progress = e.Progress()
	return yp
}

func lastAnswered(set *model.QuestionSet, answers model.AnswerMap) int {
	last := -1
	for i, q := range set.Questions {
		if _, ok := answers[q.ID]; ok {
			last = i
		}
	}
	return last
}

func profileFields(set *model.QuestionSet, answers model.AnswerMap) map[string]string {
	fields := make(map[string]string)
	for _, q := range set.Questions {
		if q.ProfileField == "" {
			continue
		}
		if v, ok := answers[q.ID]; ok && !v.IsBlank() {
			fields[q.ProfileField] = v.String()
		}
	}
	return fields
}
