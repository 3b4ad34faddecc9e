package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":    slog.LevelError,
		" WARN ":   slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"info":     slog.LevelInfo,
		"debug":    slog.LevelDebug,
		"nonsense": slog.LevelDebug,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithWriterFiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown", "namespace", "maps_coffee_nyc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "namespace=maps_coffee_nyc")
}
