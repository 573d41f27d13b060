package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoStateEvent is an engine video state callback after decoding (one row in video_state_events).
type VideoStateEvent struct {
	ID         uuid.UUID  `json:"id"`
	ConvID     string     `json:"conv_id"`
	UserID     string     `json:"user_id"`
	State      VideoState `json:"state"`
	Code       int        `json:"code"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// VideoStateCode pairs a state name with its engine code (GET /api/video-states).
type VideoStateCode struct {
	Name VideoState `json:"name"`
	Code int        `json:"code"`
}
