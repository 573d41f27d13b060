package main

import (
	"context"
	"errors"
	"time"

	"github.com/voyagen/vidstate/internal/avs"
	"github.com/voyagen/vidstate/internal/cache"
	"github.com/voyagen/vidstate/internal/log"
	"github.com/voyagen/vidstate/internal/models"
	"github.com/voyagen/vidstate/internal/service"
	"github.com/voyagen/vidstate/internal/store"
)

const (
	dequeueTimeout = 5 * time.Second
	retryBackoff   = 2 * time.Second
)

// runEventWorker drains engine callbacks from the Redis event queue until ctx
// is cancelled.
func runEventWorker(ctx context.Context, rds *cache.Redis, s store.Store) {
	logger := log.WithComponent("worker")
	logger.Info().Msg("event worker started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("event worker stopping")
			return
		default:
		}

		ev, err := cache.DequeueEvent(ctx, rds, dequeueTimeout)
		if err != nil {
			logger.Warn().Err(err).Msg("dequeue failed")
			sleepCtx(ctx, retryBackoff)
			continue
		}
		if ev == nil {
			continue
		}
		if ev.At == nil {
			at := time.Now().UTC()
			ev.At = &at
		}
		if !processEvent(ctx, s, *ev) {
			continue
		}
		if err := cache.RequeueEvent(ctx, rds, *ev); err != nil {
			logger.Error().Err(err).Str(log.FieldConvID, ev.ConvID).Msg("requeue failed, engine event lost")
		}
		sleepCtx(ctx, retryBackoff)
	}
}

// processEvent handles one queued callback and reports whether it should be
// retried. Malformed events and unknown codes are dropped; store failures
// are retried.
func processEvent(ctx context.Context, s store.Store, ev avs.Event) bool {
	logger := log.WithComponent("worker")
	rec, err := service.HandleEvent(ctx, s, ev)
	switch {
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, avs.ErrInvalidEvent):
		entry := logger.Error().Err(err).Str(log.FieldConvID, ev.ConvID)
		if ev.State != nil {
			entry = entry.Int(log.FieldCode, *ev.State)
		}
		entry.Msg("dropping engine event")
		return false
	case err != nil:
		logger.Warn().Err(err).Str(log.FieldConvID, ev.ConvID).Msg("handle engine event, will retry")
		return true
	default:
		logger.Debug().
			Str(log.FieldEventID, rec.ID.String()).
			Str(log.FieldConvID, rec.ConvID).
			Str(log.FieldUserID, rec.UserID).
			Stringer(log.FieldState, rec.State).
			Msg("engine event recorded")
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
