package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/uptix/pkg/observability"
)

// newLogger writes to w at level, with centisecond timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a command took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Update finished (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by setup, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks turns library events into debug logs.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.ResolveHooks = logHooks{}
	_ observability.HTTPHooks    = logHooks{}
)

func (h logHooks) OnExtract(_ context.Context, file string, count int, err error) {
	if err != nil {
		h.logger.Debug("extract failed", "file", file, "err", err)
		return
	}
	h.logger.Debug("extracted", "file", file, "dependencies", count)
}

func (h logHooks) OnResolveStart(_ context.Context, depType, key string) {
	h.logger.Debug("resolving", "type", depType, "key", key)
}

func (h logHooks) OnResolveComplete(_ context.Context, depType, key string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("resolve failed", "type", depType, "key", key, "duration", d, "err", err)
		return
	}
	h.logger.Debug("resolve done", "type", depType, "key", key, "duration", d)
}

func (h logHooks) OnEnrichFailed(_ context.Context, key string, err error) {
	h.logger.Debug("no version metadata", "key", key, "err", err)
}

func (h logHooks) OnLockWrite(_ context.Context, path string, entries int, err error) {
	if err != nil {
		h.logger.Debug("lock write failed", "path", path, "err", err)
		return
	}
	h.logger.Debug("lock written", "path", path, "entries", entries)
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

// registerHooks routes library events to logger.
func registerHooks(logger *log.Logger) {
	h := logHooks{logger: logger}
	observability.SetResolveHooks(h)
	observability.SetHTTPHooks(h)
}
