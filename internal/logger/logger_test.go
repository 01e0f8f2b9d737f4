package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadableHandler_PrefixAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewReadableHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.With(slog.String("component", "aggregator"), slog.String("feed", "Test")).
		Info("Feed fetched", slog.String("op", "usecase.Aggregate"), slog.Int("items", 3))

	out := buf.String()
	assert.Contains(t, out, "INFO [aggregator] (usecase.Aggregate): Feed fetched")
	assert.Contains(t, out, "feed=Test")
	assert.Contains(t, out, "items=3")
}

func TestReadableHandler_FormatsSpecialAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewReadableHandler(&buf, nil))

	log.Warn("fetch failed",
		slog.Any("error", errors.New("boom")),
		slog.String("url", "https://news.google.com/rss/search?q=AI+Music+Industry+OR+Generative+Audio"),
		slog.Duration("duration", 1234567*time.Microsecond),
	)

	out := buf.String()
	assert.Contains(t, out, `error="boom"`)
	assert.Contains(t, out, "url=https://news.google.com/...")
	assert.Contains(t, out, "took=1.235s")
}

func TestReadableHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewReadableHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN: visible")
}

func TestReadableHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewReadableHandler(&buf, nil))

	log.WithGroup("geo").Info("lookup", slog.String("region", "DE"))

	assert.Contains(t, buf.String(), "geo.region=DE")
}

func TestLevelDispatcherHandler_SplitsErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	log := slog.New(NewLevelDispatcherHandler(&out, &errOut, &slog.HandlerOptions{Level: slog.LevelInfo}))

	log.Info("regular")
	log.Error("broken")

	assert.Contains(t, out.String(), "regular")
	assert.NotContains(t, out.String(), "broken")
	assert.Contains(t, errOut.String(), "ERROR: broken")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}

func TestReadableHandler_AddSource(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewReadableHandler(&buf, &slog.HandlerOptions{AddSource: true}))

	log.Info("with source")

	assert.Regexp(t, `<logger_test\.go:\d+>: with source`, buf.String())
}

func TestReadableHandler_NoSourceByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewReadableHandler(&buf, nil))

	log.Info("plain")

	assert.NotContains(t, buf.String(), "<logger_test.go")
	assert.Contains(t, buf.String(), "INFO: plain")
}
