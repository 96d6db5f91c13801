package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, ParseLevel("debug"), slog.LevelDebug)
	assert.Equal(t, ParseLevel("WARN"), slog.LevelWarn)
	assert.Equal(t, ParseLevel("error"), slog.LevelError)
	assert.Equal(t, ParseLevel("bogus"), slog.LevelInfo)
}

func TestNewConsoleHandlerJSON(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "json"
	cfg.Logging.Level = "warn"

	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, cfg))
	logger.Info("hidden")
	logger.Warn("shown", "table", "users")

	out := buf.String()
	assert.Assert(t, !strings.Contains(out, "hidden"))
	assert.Assert(t, strings.Contains(out, `"msg":"shown"`))
	assert.Assert(t, strings.Contains(out, `"table":"users"`))
}

func TestMultiHandlerRespectsEachLevel(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}}
	assert.Assert(t, multi.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(multi).With("component", "test")
	logger.Debug("detail")
	logger.Warn("problem")

	assert.Assert(t, strings.Contains(debugBuf.String(), "detail"))
	assert.Assert(t, strings.Contains(debugBuf.String(), "component=test"))
	assert.Assert(t, !strings.Contains(warnBuf.String(), "detail"))
	assert.Assert(t, strings.Contains(warnBuf.String(), "problem"))
}

func TestSetupLoggerWithoutSeq(t *testing.T) {
	logger, closeFn := SetupLogger(nil)
	defer closeFn()
	assert.Assert(t, logger != nil)
}
