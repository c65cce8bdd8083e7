package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"taxnavo/internal/model"
)

var ErrSaverClosed = errors.New("saver is closed")

// SaveKey identifies one persisted questionnaire
type SaveKey struct {
	UserID string
	Year   int
}

// SaveResult is the outcome of one save attempt
type SaveResult struct {
	Key SaveKey
	Err error
	At  time.Time
}

// Saver persists answer snapshots in the background with a bounded number of
// workers. Snapshots for the same key are coalesced: only the newest pending
// one is written, and saves of one key never overlap. A failed save is
// reported, not retried.
type Saver struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger

	mu          sync.Mutex
	cond        *sync.Cond
	pending     map[SaveKey]model.AnswerMap
	inflight    map[SaveKey]bool
	queue       []SaveKey
	closed      bool
	onResult    func(SaveResult)
	broadcaster Broadcaster

	wg sync.WaitGroup
}

// NewSaver starts workers goroutines. Call Close to stop them.
func NewSaver(store Store, workers int, timeout time.Duration, logger *zap.Logger) *Saver {
	if workers < 1 {
		workers = 1
	}
	s := &Saver{
		store:    store,
		timeout:  timeout,
		logger:   logger.Named("saver"),
		pending:  make(map[SaveKey]model.AnswerMap),
		inflight: make(map[SaveKey]bool),
	}
	s.cond = sync.NewCond(&s.mu)

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// SetBroadcaster sets the broadcaster for save events
func (s *Saver) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	s.broadcaster = b
	s.mu.Unlock()
}

// OnResult registers fn to be called after every save, from a worker goroutine
func (s *Saver) OnResult(fn func(SaveResult)) {
	s.mu.Lock()
	s.onResult = fn
	s.mu.Unlock()
}

// Submit queues a snapshot for saving and returns immediately. A snapshot
// still waiting for a worker is replaced.
func (s *Saver) Submit(key SaveKey, answers model.AnswerMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSaverClosed
	}

	_, waiting := s.pending[key]
	s.pending[key] = answers
	if !waiting && !s.inflight[key] {
		s.queue = append(s.queue, key)
		s.cond.Broadcast()
	}
	return nil
}

// Pending reports whether a save for key is queued or running
func (s *Saver) Pending(key SaveKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, waiting := s.pending[key]
	return waiting || s.inflight[key]
}

// SaveNow writes answers synchronously and returns the store's error. Any
// queued snapshot for key is dropped, since answers supersedes it. The
// OnResult handler is not called; the caller has the result.
func (s *Saver) SaveNow(ctx context.Context, key SaveKey, answers model.AnswerMap) error {
	s.mu.Lock()
	delete(s.pending, key)
	for s.inflight[key] {
		s.cond.Wait()
	}
	s.inflight[key] = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	err := s.store.Save(ctx, key.UserID, key.Year, answers)
	cancel()

	at := time.Now()
	s.finish(key)
	s.report(SaveResult{Key: key, Err: err, At: at}, false)
	return err
}

// Close stops accepting snapshots, waits for queued ones to be written and
// stops the workers. It returns ctx.Err() if ctx ends first.
func (s *Saver) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Saver) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		key := s.queue[0]
		s.queue = s.queue[1:]
		answers, ok := s.pending[key]
		if !ok || s.inflight[key] {
			// dropped by SaveNow, or SaveNow is writing it; finish requeues
			s.mu.Unlock()
			continue
		}
		delete(s.pending, key)
		s.inflight[key] = true
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.store.Save(ctx, key.UserID, key.Year, answers)
		cancel()

		// stamped before finish so a SaveNow waiting on this key reports a later time
		at := time.Now()
		s.finish(key)
		s.report(SaveResult{Key: key, Err: err, At: at}, true)
	}
}

// finish clears the in-flight mark and requeues a snapshot that arrived meanwhile
func (s *Saver) finish(key SaveKey) {
	s.mu.Lock()
	delete(s.inflight, key)
	if _, ok := s.pending[key]; ok {
		s.queue = append(s.queue, key)
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *Saver) report(res SaveResult, notify bool) {
	s.mu.Lock()
	onResult, b := s.onResult, s.broadcaster
	s.mu.Unlock()

	fields := []zap.Field{zap.String("user_id", res.Key.UserID), zap.Int("year", res.Key.Year)}
	event := model.SaveEvent{Year: res.Key.Year, OK: res.Err == nil, SavedAt: res.At}
	msgType := MsgSaveSucceeded
	if res.Err != nil {
		s.logger.Error("save failed", append(fields, zap.Error(res.Err))...)
		event.Error = res.Err.Error()
		msgType = MsgSaveFailed
	} else {
		s.logger.Debug("saved", fields...)
	}

	if notify && onResult != nil {
		onResult(res)
	}
	if b != nil {
		b.BroadcastToUser(res.Key.UserID, msgType, event)
	}
}
