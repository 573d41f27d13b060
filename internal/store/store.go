package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/voyagen/vidstate/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines persistence for decoded engine video state events.
type Store interface {
	// RecordVideoState appends an event to the history.
	RecordVideoState(ctx context.Context, ev models.VideoStateEvent) error
	// LatestVideoStates returns the most recent event per user in a conversation.
	LatestVideoStates(ctx context.Context, convID string) ([]models.VideoStateEvent, error)
	// ListVideoStateEvents returns event history matching the filter, newest first.
	ListVideoStateEvents(ctx context.Context, filter EventFilter) ([]models.VideoStateEvent, error)
	// GetVideoStateEvent returns a single event by id.
	GetVideoStateEvent(ctx context.Context, id uuid.UUID) (*models.VideoStateEvent, error)
}

// EventFilter holds filters for listing events.
type EventFilter struct {
	ConvID string
	UserID string // optional
	Limit  int    // default 50, max 500
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// NormalizedLimit clamps Limit to [1, 500], defaulting to 50.
func (f EventFilter) NormalizedLimit() int {
	switch {
	case f.Limit <= 0:
		return defaultLimit
	case f.Limit > maxLimit:
		return maxLimit
	default:
		return f.Limit
	}
}
