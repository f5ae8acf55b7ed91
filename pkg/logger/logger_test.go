package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSONHandlerTagsService(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "", "info")
	log.Info("hello", "source", "air_quality")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "airboard", line["service"])
	require.Equal(t, "air_quality", line["source"])
	require.Equal(t, "hello", line["msg"])
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "json", "warn")
	log.Info("dropped")
	require.Zero(t, buf.Len())

	log.Warn("kept")
	require.Contains(t, buf.String(), "kept")
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "text", "debug")
	log.Debug("console line")
	require.Contains(t, buf.String(), "console line")
	require.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warning"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
