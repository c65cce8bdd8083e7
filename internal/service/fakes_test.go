package service

import (
	"context"
	"sync"

	"taxnavo/internal/model"
)

type savedCall struct {
	Key     SaveKey
	Answers model.AnswerMap
}

// fakeStore is an in-memory Store. Set block to hold saves until released.
type fakeStore struct {
	mu      sync.Mutex
	data    map[SaveKey]model.AnswerMap
	saves   []savedCall
	loadErr error
	saveErr error
	block   chan struct{}
	started chan SaveKey
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[SaveKey]model.AnswerMap)}
}

func (f *fakeStore) Load(ctx context.Context, userID string, year int) (model.AnswerMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.data[SaveKey{userID, year}].Clone(), nil
}

func (f *fakeStore) Save(ctx context.Context, userID string, year int, answers model.AnswerMap) error {
	key := SaveKey{userID, year}
	f.mu.Lock()
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- key
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, savedCall{Key: key, Answers: answers.Clone()})
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[key] = answers.Clone()
	return nil
}

func (f *fakeStore) calls() []savedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]savedCall(nil), f.saves...)
}

func (f *fakeStore) stored(key SaveKey) model.AnswerMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key].Clone()
}

type broadcast struct {
	UserID  string
	MsgType string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs []broadcast
}

func (b *fakeBroadcaster) BroadcastToUser(userID string, msgType string, payload interface{}) {
	b.mu.Lock()
	b.msgs = append(b.msgs, broadcast{userID, msgType, payload})
	b.mu.Unlock()
}

func (b *fakeBroadcaster) messages() []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast(nil), b.msgs...)
}
