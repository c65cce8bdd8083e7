package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"taxnavo/internal/cache"
	"taxnavo/internal/catalog"
	"taxnavo/internal/engine"
	"taxnavo/internal/model"
)

var (
	ErrUnknownYear = catalog.ErrUnknownYear
	ErrSaveFailed  = errors.New("save failed")
)

// Catalog resolves the question set of a tax year
type Catalog interface {
	Get(year int) (*model.QuestionSet, error)
	Years() []int
}

type session struct {
	mu sync.Mutex

	key             SaveKey
	set             *model.QuestionSet
	engine          *engine.Engine
	hydrationFailed bool
	lastSavedAt     *time.Time
	lastSaveErr     string
	lastResultAt    time.Time
	lastUsed        time.Time
}

// QuestionnaireService keeps one engine per user and year in memory. The
// engine is not safe for concurrent use, so every call on a session holds
// the session's lock.
type QuestionnaireService struct {
	catalog Catalog
	store   Store
	cursors cache.CursorCache
	saver   *Saver
	logger  *zap.Logger
	ttl     time.Duration

	mu       sync.RWMutex
	sessions map[SaveKey]*session

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// afterLookup runs between the map lookup and the session lock; tests only
	afterLookup func()
}

// NewQuestionnaireService creates the service and starts the janitor that
// evicts sessions idle for longer than ttl. cursors may be nil.
func NewQuestionnaireService(cat Catalog, store Store, cursors cache.CursorCache, saver *Saver, ttl time.Duration, logger *zap.Logger) *QuestionnaireService {
	s := &QuestionnaireService{
		catalog:  cat,
		store:    store,
		cursors:  cursors,
		saver:    saver,
		logger:   logger.Named("questionnaire"),
		ttl:      ttl,
		sessions: make(map[SaveKey]*session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	saver.OnResult(s.recordSave)
	go s.janitor()
	return s
}

// Years lists the tax years a questionnaire exists for, newest first
func (s *QuestionnaireService) Years() []int {
	return s.catalog.Years()
}

// State returns the session view, creating the session on first use
func (s *QuestionnaireService) State(ctx context.Context, userID string, year int) (*model.SessionState, error) {
	sess, err := s.acquire(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return s.state(sess), nil
}

// RecordAnswer answers the current question. The new answers are handed to
// the saver; the returned state does not wait for the save.
func (s *QuestionnaireService) RecordAnswer(ctx context.Context, userID string, year int, id model.QuestionID, value model.AnswerValue) (*model.SessionState, error) {
	sess, err := s.acquire(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	if err := sess.engine.RecordAnswer(id, value); err != nil {
		return s.state(sess), err
	}
	return s.state(sess), nil
}

func (s *QuestionnaireService) Advance(ctx context.Context, userID string, year int) (*model.SessionState, error) {
	return s.move(ctx, userID, year, func(e *engine.Engine) { e.Advance() })
}

func (s *QuestionnaireService) Retreat(ctx context.Context, userID string, year int) (*model.SessionState, error) {
	return s.move(ctx, userID, year, func(e *engine.Engine) { e.Retreat() })
}

// Seek jumps to index, clamped to the question list. Visibility is not checked.
func (s *QuestionnaireService) Seek(ctx context.Context, userID string, year, index int) (*model.SessionState, error) {
	return s.move(ctx, userID, year, func(e *engine.Engine) { e.Seek(index) })
}

// SaveNow persists the current answers synchronously. On failure the
// in-memory state is kept and returned alongside an ErrSaveFailed error.
func (s *QuestionnaireService) SaveNow(ctx context.Context, userID string, year int) (*model.SessionState, error) {
	sess, err := s.acquire(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	err = s.saver.SaveNow(ctx, sess.key, sess.engine.Answers())
	sess.applySave(SaveResult{Key: sess.key, Err: err, At: time.Now()})
	if err != nil {
		return s.state(sess), fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return s.state(sess), nil
}

// Answers returns a copy of the session's answers
func (s *QuestionnaireService) Answers(ctx context.Context, userID string, year int) (model.AnswerMap, error) {
	sess, err := s.acquire(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return sess.engine.Answers(), nil
}

// RequiredDocuments lists the documents implied by the current answers
func (s *QuestionnaireService) RequiredDocuments(ctx context.Context, userID string, year int) ([]string, error) {
	sess, err := s.acquire(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return sess.set.RequiredDocuments(sess.engine.Answers()), nil
}

// Evict drops a session from memory. Its next use reloads from the store.
func (s *QuestionnaireService) Evict(userID string, year int) {
	s.mu.Lock()
	delete(s.sessions, SaveKey{userID, year})
	s.mu.Unlock()
}

// Close stops the janitor. Pending saves belong to the saver; close it separately.
func (s *QuestionnaireService) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *QuestionnaireService) move(ctx context.Context, userID string, year int, fn func(*engine.Engine)) (*model.SessionState, error) {
	sess, err := s.acquire(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	fn(sess.engine)
	if s.cursors != nil {
		if err := s.cursors.SetCursor(ctx, userID, year, sess.engine.Cursor()); err != nil {
			s.logger.Warn("cursor cache write failed", zap.String("user_id", userID), zap.Int("year", year), zap.Error(err))
		}
	}
	return s.state(sess), nil
}

// acquire returns the live session for (userID, year) with sess.mu held. A
// session evicted between lookup and lock is looked up again.
func (s *QuestionnaireService) acquire(ctx context.Context, userID string, year int) (*session, error) {
	for {
		sess, err := s.session(ctx, userID, year)
		if err != nil {
			return nil, err
		}
		if s.afterLookup != nil {
			s.afterLookup()
		}
		sess.mu.Lock()
		s.mu.RLock()
		live := s.sessions[sess.key] == sess
		s.mu.RUnlock()
		if live {
			sess.lastUsed = time.Now()
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// session returns the live session for (userID, year), hydrating it from the
// store on first use. A failed load starts the session empty.
func (s *QuestionnaireService) session(ctx context.Context, userID string, year int) (*session, error) {
	key := SaveKey{userID, year}
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	set, err := s.catalog.Get(year)
	if err != nil {
		return nil, err
	}

	sess = &session{key: key, set: set, lastUsed: time.Now()}
	answers, err := s.store.Load(ctx, userID, year)
	if err != nil {
		s.logger.Warn("hydration failed, starting empty", zap.String("user_id", userID), zap.Int("year", year), zap.Error(err))
		answers = model.AnswerMap{}
		sess.hydrationFailed = true
	}

	sess.engine = engine.New(set.Questions, answers, engine.WithOnChange(func(snapshot model.AnswerMap) {
		if err := s.saver.Submit(key, snapshot); err != nil {
			s.logger.Warn("save not queued", zap.String("user_id", userID), zap.Int("year", year), zap.Error(err))
		}
	}))

	if s.cursors != nil {
		cursor, ok, err := s.cursors.GetCursor(ctx, userID, year)
		if err != nil {
			s.logger.Warn("cursor cache read failed", zap.String("user_id", userID), zap.Int("year", year), zap.Error(err))
		} else if ok {
			sess.engine.Seek(cursor)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[key]; ok {
		return existing, nil
	}
	s.sessions[key] = sess
	return sess, nil
}

// state must be called with sess.mu held
func (s *QuestionnaireService) state(sess *session) *model.SessionState {
	e := sess.engine
	st := &model.SessionState{
		Year:            sess.key.Year,
		Cursor:          e.Cursor(),
		Total:           e.Len(),
		Progress:        e.Progress(),
		Complete:        e.IsComplete(),
		Answers:         e.Answers(),
		HydrationFailed: sess.hydrationFailed,
		Save: model.SaveStatus{
			Pending:     s.saver.Pending(sess.key),
			LastSavedAt: sess.lastSavedAt,
			LastError:   sess.lastSaveErr,
		},
	}
	if q, ok := e.Current(); ok {
		st.Question = q
	}
	return st
}

func (s *QuestionnaireService) recordSave(res SaveResult) {
	s.mu.RLock()
	sess, ok := s.sessions[res.Key]
	s.mu.RUnlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.applySave(res)
}

// applySave records a save outcome unless a newer one is already recorded.
// Must be called with sess.mu held.
func (sess *session) applySave(res SaveResult) {
	if res.At.Before(sess.lastResultAt) {
		return
	}
	sess.lastResultAt = res.At
	if res.Err != nil {
		sess.lastSaveErr = res.Err.Error()
		return
	}
	at := res.At
	sess.lastSavedAt = &at
	sess.lastSaveErr = ""
}

func (s *QuestionnaireService) janitor() {
	defer close(s.done)
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.evictIdle(now)
		}
	}
}

func (s *QuestionnaireService) evictIdle(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, sess := range s.sessions {
		// a locked session is in use
		if !sess.mu.TryLock() {
			continue
		}
		idle := now.Sub(sess.lastUsed) > s.ttl
		sess.mu.Unlock()
		// a reload before the pending save lands would hydrate stale answers
		if idle && !s.saver.Pending(key) {
			delete(s.sessions, key)
			s.logger.Debug("session evicted", zap.String("user_id", key.UserID), zap.Int("year", key.Year))
		}
	}
}
