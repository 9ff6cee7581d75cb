package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDefault(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-1")
	ctx = WithStage(ctx, "render")
	ctx = WithFile(ctx, "/in/a.md")

	assert.Equal(t, LogContext{BuildID: "build-1", Stage: "render", File: "/in/a.md"}, GetContext(ctx))
}

func TestOverwriteContextValue(t *testing.T) {
	ctx := WithStage(context.Background(), "config")
	ctx = WithStage(ctx, "render")

	assert.Equal(t, "render", GetContext(ctx).Stage)
}

func TestEmptyContext(t *testing.T) {
	assert.Equal(t, LogContext{}, GetContext(context.Background()))
	assert.Empty(t, Attrs(context.Background()))
}

func TestAttrsSkipEmptyFields(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b")

	attrs := Attrs(ctx)
	require.Len(t, attrs, 1)
	assert.Equal(t, "build_id", attrs[0].Key)
}

func TestLoggerCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithStage(WithBuildID(context.Background(), "b-42"), "assets")

	Logger(ctx, base).Info("installed")

	m := decodeLine(t, &buf)
	assert.Equal(t, "b-42", m["build_id"])
	assert.Equal(t, "assets", m["stage"])
	assert.Equal(t, "installed", m["msg"])
}

func TestLoggerWithoutContextReturnsBase(t *testing.T) {
	base := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	assert.Same(t, base, Logger(context.Background(), base))
	assert.NotNil(t, Logger(context.Background(), nil))
}

func TestWarnContext(t *testing.T) {
	buf := captureDefault(t, slog.LevelInfo)
	ctx := WithFile(WithBuildID(context.Background(), "b-1"), "/in/page.md")

	WarnContext(ctx, "warning message", slog.String("reason", "timeout"))

	m := decodeLine(t, buf)
	assert.Equal(t, "WARN", m["level"])
	assert.Equal(t, "b-1", m["build_id"])
	assert.Equal(t, "/in/page.md", m["file"])
	assert.Equal(t, "timeout", m["reason"])
}

func TestDebugContextRespectsLevel(t *testing.T) {
	buf := captureDefault(t, slog.LevelInfo)
	DebugContext(WithBuildID(context.Background(), "b"), "hidden")
	assert.Zero(t, buf.Len())

	buf = captureDefault(t, slog.LevelDebug)
	DebugContext(WithBuildID(context.Background(), "b"), "shown", slog.Int("count", 42))
	m := decodeLine(t, buf)
	assert.EqualValues(t, 42, m["count"])
}

func TestInfoAndErrorContext(t *testing.T) {
	buf := captureDefault(t, slog.LevelInfo)
	InfoContext(WithStage(context.Background(), "write"), "done")
	assert.Equal(t, "write", decodeLine(t, buf)["stage"])

	buf.Reset()
	ErrorContext(WithStage(context.Background(), "config"), "failed")
	m := decodeLine(t, buf)
	assert.Equal(t, "ERROR", m["level"])
	assert.Equal(t, "config", m["stage"])
}
