package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"taxnavo/internal/model"
)

// fileStore keeps every year's answers in one JSON file:
//
//	{"2024": {"1": "Pat", "5": "Yes"}, "2025": {...}}
//
// The user id is ignored; the file belongs to whoever runs the CLI.
type fileStore struct {
	mu   sync.Mutex
	path string
}

func newFileStore(path string) *fileStore {
	return &fileStore{path: path}
}

func (s *fileStore) Load(ctx context.Context, userID string, year int) (model.AnswerMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.read()
	if err != nil {
		return nil, err
	}
	answers := all[strconv.Itoa(year)]
	if answers == nil {
		return model.AnswerMap{}, nil
	}
	return answers, nil
}

func (s *fileStore) Save(ctx context.Context, userID string, year int, answers model.AnswerMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.read()
	if err != nil {
		return err
	}
	all[strconv.Itoa(year)] = answers

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	// atomic replace
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) read() (map[string]model.AnswerMap, error) {
	all := make(map[string]model.AnswerMap)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return all, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	return all, nil
}
