package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"kanban-api/domain"
)

type backend interface {
	FetchCards(ctx context.Context) ([]domain.Card, error)
	InsertCard(ctx context.Context, title, content string, column domain.Column, position int) (domain.Card, error)
	UpdateCard(ctx context.Context, id string, upd domain.CardUpdate) error
	DeleteCard(ctx context.Context, id string) error
}

// Cache wraps a card store with Redis-backed caching of the full card list.
// Every mutation passes through to the backing store and evicts the cache.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) FetchCards(ctx context.Context) ([]domain.Card, error) {
	if cards, ok := c.loadFromCache(ctx); ok {
		return cards, nil
	}

	cards, err := c.base.FetchCards(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, cards)
	return cards, nil
}

func (c *Cache) InsertCard(ctx context.Context, title, content string, column domain.Column, position int) (domain.Card, error) {
	card, err := c.base.InsertCard(ctx, title, content, column, position)
	if err != nil {
		return domain.Card{}, err
	}
	c.evict(ctx)
	return card, nil
}

func (c *Cache) UpdateCard(ctx context.Context, id string, upd domain.CardUpdate) error {
	if err := c.base.UpdateCard(ctx, id, upd); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) DeleteCard(ctx context.Context, id string) error {
	if err := c.base.DeleteCard(ctx, id); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context) ([]domain.Card, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, cardsCacheKey()).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, cardsCacheKey()).Err()
		}
		return nil, false
	}
	var cards []domain.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		_ = c.redis.Del(ctx, cardsCacheKey()).Err()
		return nil, false
	}
	return cards, true
}

func (c *Cache) store(ctx context.Context, cards []domain.Card) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, cardsCacheKey(), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, cardsCacheKey()).Result()
}

func cardsCacheKey() string {
	return "cards:" + boardPartition
}
