package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"taxnavo/internal/model"
)

// presentField keeps the hash alive when the cached map is empty, so an empty
// questionnaire is a hit rather than a miss. Answers are stored under
// answerPrefix so no question id can collide with it.
const (
	presentField = "present"
	answerPrefix = "q:"
)

// AnswerCache is a read-through copy of stored answer maps
type AnswerCache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, userID string, year int) (model.AnswerMap, error)
	// Set replaces the cached map
	Set(ctx context.Context, userID string, year int, answers model.AnswerMap) error
	Delete(ctx context.Context, userID string, year int) error
}

type answerCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewAnswerCache creates a new answer cache
func NewAnswerCache(client redis.Cmdable) AnswerCache {
	return &answerCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *answerCache) answersKey(userID string, year int) string {
	return fmt.Sprintf("user:%s:year:%d:answers", userID, year)
}

func (c *answerCache) Get(ctx context.Context, userID string, year int) (model.AnswerMap, error) {
	fields, err := c.client.HGetAll(ctx, c.answersKey(userID, year)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	answers := make(model.AnswerMap, len(fields))
	for k, raw := range fields {
		id, ok := strings.CutPrefix(k, answerPrefix)
		if !ok {
			continue
		}
		var v model.AnswerValue
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("cached answer %s: %w", id, err)
		}
		answers[model.QuestionID(id)] = v
	}
	return answers, nil
}

func (c *answerCache) Set(ctx context.Context, userID string, year int, answers model.AnswerMap) error {
	values := make([]interface{}, 0, 2*len(answers)+2)
	values = append(values, presentField, "1")
	for id, v := range answers {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		values = append(values, answerPrefix+string(id), string(data))
	}

	key := c.answersKey(userID, year)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, values...)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	return err
}

func (c *answerCache) Delete(ctx context.Context, userID string, year int) error {
	return c.client.Del(ctx, c.answersKey(userID, year)).Err()
}
