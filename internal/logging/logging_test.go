package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestWithComponentAddsField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", JSON: true, Output: &buf})
	t.Cleanup(func() { Logger = zerolog.Nop() })

	log := WithComponent("store")
	log.Warn().Str("key", "ogsm.goals.v1").Msg("corrupt payload")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "store", entry["component"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "ogsm.goals.v1", entry["key"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", JSON: true, Output: &buf})
	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())
}
