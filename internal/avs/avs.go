// Package avs holds the numeric vocabulary of the AVS call engine and the
// shapes of the callbacks and commands exchanged with its bridge.
package avs

import (
	"errors"
	"time"
)

// Video state constants published by the engine's flow manager.
// Changing these values breaks compatibility with deployed engines.
const (
	VideoStateStopped = 0
	VideoStateStarted = 1
)

// ErrInvalidEvent is returned by Event.Validate.
var ErrInvalidEvent = errors.New("invalid engine event")

// Event is a video state callback emitted by the engine for one participant.
// State is the raw engine code; it is decoded by models.VideoStateFromCode.
// A nil State means the callback carried no code.
type Event struct {
	ConvID string     `json:"conv_id"`
	UserID string     `json:"user_id"`
	State  *int       `json:"state"`
	At     *time.Time `json:"at,omitempty"`
}

// Code returns a pointer to code, for building Events.
func Code(code int) *int {
	return &code
}

// Validate checks that the identifying fields and a state code are present.
// The code itself is not interpreted.
func (e Event) Validate() error {
	if e.ConvID == "" {
		return errors.Join(ErrInvalidEvent, errors.New("conv_id is required"))
	}
	if e.UserID == "" {
		return errors.Join(ErrInvalidEvent, errors.New("user_id is required"))
	}
	if e.State == nil {
		return errors.Join(ErrInvalidEvent, errors.New("state is required"))
	}
	return nil
}

// Command asks the engine to change the local video state of a conversation.
type Command struct {
	ConvID string `json:"conv_id"`
	State  int    `json:"state"`
}
