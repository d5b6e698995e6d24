package logger

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("production", "debug", &buf)

	log.Debug().Int64("bus_id", 7).Msg("snapshot broadcast")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "bus-tracker", entry["service"])
	assert.EqualValues(t, 7, entry["bus_id"])
	assert.Equal(t, "snapshot broadcast", entry["message"])
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := newWithWriter("production", tt.level, &bytes.Buffer{})
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNew_DevelopmentIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("development", "info", &buf)

	log.Info().Msg("starting")

	assert.Contains(t, buf.String(), "starting")
	assert.False(t, json.Valid(buf.Bytes()))
}
