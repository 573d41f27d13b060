package avs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validate(t *testing.T) {
	assert.NoError(t, Event{ConvID: "c1", UserID: "u1", State: Code(42)}.Validate())
	assert.NoError(t, Event{ConvID: "c1", UserID: "u1", State: Code(VideoStateStopped)}.Validate())
	assert.ErrorIs(t, Event{UserID: "u1", State: Code(1)}.Validate(), ErrInvalidEvent)
	assert.ErrorIs(t, Event{ConvID: "c1", State: Code(1)}.Validate(), ErrInvalidEvent)
}

func TestEvent_MissingStateIsInvalid(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"conv_id":"c1","user_id":"u1"}`), &ev))
	assert.Nil(t, ev.State)

	err := ev.Validate()
	require.ErrorIs(t, err, ErrInvalidEvent)
	assert.Contains(t, err.Error(), "state is required")

	require.NoError(t, json.Unmarshal([]byte(`{"conv_id":"c1","user_id":"u1","state":null}`), &ev))
	assert.ErrorIs(t, ev.Validate(), ErrInvalidEvent)
}

func TestEvent_DecodeCallback(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"conv_id":"c1","user_id":"u1","state":0}`), &ev))
	assert.Equal(t, "c1", ev.ConvID)
	require.NotNil(t, ev.State)
	assert.Equal(t, VideoStateStopped, *ev.State)
	assert.Nil(t, ev.At)
	assert.NoError(t, ev.Validate())
}
