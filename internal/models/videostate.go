package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/voyagen/vidstate/internal/avs"
)

// VideoState is the application-level video state of a call participant.
type VideoState int

// Video states, in declaration order. The zero value is not a valid state.
const (
	VideoStarted VideoState = iota + 1
	VideoStopped
)

// videoStateTable maps each state to its name and engine code.
var videoStateTable = [...]struct {
	state VideoState
	name  string
	code  int
}{
	{VideoStarted, "started", avs.VideoStateStarted},
	{VideoStopped, "stopped", avs.VideoStateStopped},
}

// ErrInvalidState matches every error returned for an unknown engine code or state name.
var ErrInvalidState = errors.New("invalid video state")

// InvalidStateError reports an engine code that maps to no VideoState.
type InvalidStateError struct {
	Code int
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("unknown/invalid video state code: %d", e.Code)
}

// Is makes errors.Is(err, ErrInvalidState) hold for any *InvalidStateError.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

func init() {
	seen := make(map[int]VideoState, len(videoStateTable))
	for _, row := range videoStateTable {
		if prev, ok := seen[row.code]; ok {
			panic(fmt.Sprintf("models: video states %s and %s share engine code %d", prev, row.state, row.code))
		}
		seen[row.code] = row.state
	}
}

// VideoStates returns every defined state in declaration order.
func VideoStates() []VideoState {
	out := make([]VideoState, len(videoStateTable))
	for i, row := range videoStateTable {
		out[i] = row.state
	}
	return out
}

// VideoStateFromCode returns the state bound to an engine code.
// Unknown codes are rejected with *InvalidStateError; there is no default.
func VideoStateFromCode(code int) (VideoState, error) {
	for _, row := range videoStateTable {
		if row.code == code {
			return row.state, nil
		}
	}
	return 0, &InvalidStateError{Code: code}
}

// ParseVideoState looks a state up by its name, ignoring case.
func ParseVideoState(name string) (VideoState, error) {
	for _, row := range videoStateTable {
		if strings.EqualFold(row.name, strings.TrimSpace(name)) {
			return row.state, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown name %q", ErrInvalidState, name)
}

// Code returns the engine code for s. It panics for values outside the
// defined set, which can only be produced by an unchecked conversion.
func (s VideoState) Code() int {
	for _, row := range videoStateTable {
		if row.state == s {
			return row.code
		}
	}
	panic(fmt.Sprintf("models: Code called on undefined %s", s))
}

// Valid reports whether s is one of the defined states.
func (s VideoState) Valid() bool {
	for _, row := range videoStateTable {
		if row.state == s {
			return true
		}
	}
	return false
}

func (s VideoState) String() string {
	for _, row := range videoStateTable {
		if row.state == s {
			return row.name
		}
	}
	return fmt.Sprintf("VideoState(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s VideoState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *VideoState) UnmarshalText(text []byte) error {
	v, err := ParseVideoState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
