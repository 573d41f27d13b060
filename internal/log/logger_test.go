package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "vidstate-test"})

	// Later calls are ignored.
	Configure(Config{Level: "error"})

	l := WithComponent("worker")
	l.Info().Int(FieldCode, 99).Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "vidstate-test", entry["service"])
	assert.Equal(t, "worker", entry[FieldComponent])
	assert.Equal(t, float64(99), entry[FieldCode])
	assert.Equal(t, "hello", entry["message"])
}
