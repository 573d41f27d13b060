package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/voyagen/vidstate/internal/cache"
	"github.com/voyagen/vidstate/internal/log"
	"github.com/voyagen/vidstate/internal/models"
)

// CachedStore wraps a Store with a Redis cache for the latest state per
// conversation. Recording an event invalidates that conversation's entry.
type CachedStore struct {
	inner  Store
	cache  *cache.Redis
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, cache: c, ttl: ttl, logger: log.WithComponent("cache")}
}

const latestKeyPrefix = "video:latest:"

func latestKey(convID string) string {
	return latestKeyPrefix + convID
}

// Flush drops every cached latest-state entry.
func (c *CachedStore) Flush(ctx context.Context) error {
	return cache.DelPattern(ctx, c.cache, latestKeyPrefix+"*")
}

func (c *CachedStore) RecordVideoState(ctx context.Context, ev models.VideoStateEvent) error {
	if err := c.inner.RecordVideoState(ctx, ev); err != nil {
		return err
	}
	key := latestKey(ev.ConvID)
	if err := cache.Del(ctx, c.cache, key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
	return nil
}

func (c *CachedStore) LatestVideoStates(ctx context.Context, convID string) ([]models.VideoStateEvent, error) {
	key := latestKey(convID)
	v, err := cache.Get[[]models.VideoStateEvent](ctx, c.cache, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}
	events, err := c.inner.LatestVideoStates(ctx, convID)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, events, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	return events, nil
}

// --- passthrough (no caching) ---

func (c *CachedStore) ListVideoStateEvents(ctx context.Context, filter EventFilter) ([]models.VideoStateEvent, error) {
	return c.inner.ListVideoStateEvents(ctx, filter)
}

func (c *CachedStore) GetVideoStateEvent(ctx context.Context, id uuid.UUID) (*models.VideoStateEvent, error) {
	return c.inner.GetVideoStateEvent(ctx, id)
}
