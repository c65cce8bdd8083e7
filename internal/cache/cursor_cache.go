package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CursorCache remembers where a user left each questionnaire
type CursorCache interface {
	SetCursor(ctx context.Context, userID string, year, cursor int) error
	// GetCursor reports ok=false when no position is stored
	GetCursor(ctx context.Context, userID string, year int) (cursor int, ok bool, err error)
}

type cursorCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCursorCache(client redis.Cmdable) CursorCache {
	return &cursorCache{
		client: client,
		ttl:    30 * 24 * time.Hour,
	}
}

func (c *cursorCache) cursorKey(userID string, year int) string {
	return fmt.Sprintf("user:%s:year:%d:cursor", userID, year)
}

func (c *cursorCache) SetCursor(ctx context.Context, userID string, year, cursor int) error {
	return c.client.Set(ctx, c.cursorKey(userID, year), cursor, c.ttl).Err()
}

func (c *cursorCache) GetCursor(ctx context.Context, userID string, year int) (int, bool, error) {
	n, err := c.client.Get(ctx, c.cursorKey(userID, year)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}
