package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voyagen/vidstate/internal/avs"
	"github.com/voyagen/vidstate/internal/log"
	"github.com/voyagen/vidstate/internal/metrics"
	"github.com/voyagen/vidstate/internal/models"
	"github.com/voyagen/vidstate/internal/store"
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// HandleEvent decodes an engine callback and records it.
// An unknown state code is logged, counted and returned wrapped; the event
// is not recorded and no default state is substituted.
func HandleEvent(ctx context.Context, s store.Store, ev avs.Event) (models.VideoStateEvent, error) {
	if err := ev.Validate(); err != nil {
		return models.VideoStateEvent{}, err
	}

	state, err := models.VideoStateFromCode(*ev.State)
	if err != nil {
		metrics.InvalidCodesTotal.Inc()
		logger := log.WithComponent("events")
		logger.Error().
			Err(err).
			Str(log.FieldConvID, ev.ConvID).
			Str(log.FieldUserID, ev.UserID).
			Int(log.FieldCode, *ev.State).
			Msg("engine sent unknown video state code")
		return models.VideoStateEvent{}, fmt.Errorf("decode engine event: %w", err)
	}

	rec := models.VideoStateEvent{
		ID:         uuid.New(),
		ConvID:     ev.ConvID,
		UserID:     ev.UserID,
		State:      state,
		Code:       *ev.State,
		OccurredAt: now(),
	}
	if ev.At != nil && !ev.At.IsZero() {
		rec.OccurredAt = ev.At.UTC()
	}

	if err := s.RecordVideoState(ctx, rec); err != nil {
		return models.VideoStateEvent{}, fmt.Errorf("record video state: %w", err)
	}
	metrics.EventsTotal.WithLabelValues(state.String()).Inc()
	return rec, nil
}

// Commander delivers commands to the engine bridge.
type Commander interface {
	Send(ctx context.Context, cmd avs.Command) error
}

// ErrMissingConvID is returned when a command has no conversation.
var ErrMissingConvID = errors.New("conv_id is required")

// RequestVideoState asks the engine to put the conversation's local video
// into state, translating it to the engine's code.
func RequestVideoState(ctx context.Context, c Commander, convID string, state models.VideoState) (avs.Command, error) {
	if convID == "" {
		return avs.Command{}, ErrMissingConvID
	}
	if !state.Valid() {
		return avs.Command{}, fmt.Errorf("%w: %s", models.ErrInvalidState, state)
	}
	cmd := avs.Command{ConvID: convID, State: state.Code()}
	if err := c.Send(ctx, cmd); err != nil {
		return avs.Command{}, fmt.Errorf("send engine command: %w", err)
	}
	metrics.CommandsTotal.WithLabelValues(state.String()).Inc()
	logger := log.WithComponent("commands")
	logger.Debug().
		Str(log.FieldConvID, convID).
		Stringer(log.FieldState, state).
		Int(log.FieldCode, cmd.State).
		Msg("video state command sent")
	return cmd, nil
}
