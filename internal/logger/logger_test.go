package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWriter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Info("recipe created", "recipe_id", 7)

	assert.Contains(t, buf.String(), `"msg":"recipe created"`)
	assert.Contains(t, buf.String(), `"recipe_id":7`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			log.Info("hello")

			assert.Equal(t, tt.wantJSON, strings.HasPrefix(buf.String(), "{"), buf.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("info"))
	assert.True(t, ValidLevel("Warn"))
	assert.False(t, ValidLevel("verbose"))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	r := slog.NewRecord(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC), slog.LevelWarn, "tag renamed", 0)
	r.AddAttrs(slog.String("name", "Thai food"), slog.Int("tag_id", 3))
	require.NoError(t, h.Handle(context.Background(), r))

	out := buf.String()
	assert.Contains(t, out, "15:04:05")
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "tag renamed")
	assert.Contains(t, out, `name="Thai food"`)
	assert.Contains(t, out, "tag_id=3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	nilOpts := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, nilOpts.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, nilOpts.Enabled(context.Background(), slog.LevelInfo))
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.With("request_id", "abc").WithGroup("http").Info("done", "status", 200)

	out := buf.String()
	assert.Contains(t, out, "request_id=abc")
	assert.Contains(t, out, "http.status=200")
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.WithError(errors.New("boom")).
		WithField("user_id", "user-1").
		WithFields(map[string]any{"recipe_id": 9}).
		Info("failed")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"user_id":"user-1"`)
	assert.Contains(t, out, `"recipe_id":9`)
}

func TestContextLogger(t *testing.T) {
	fallback := slog.Default()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := Discard().Logger
	ctx := WithContext(context.Background(), scoped)
	assert.Same(t, scoped, FromContext(ctx, fallback))
}
