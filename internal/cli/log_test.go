package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/uptix/pkg/observability"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info shown at info", log.InfoLevel, func(l *log.Logger) { l.Info("wrote lock file") }, true},
		{"debug hidden at info", log.InfoLevel, func(l *log.Logger) { l.Debug("resolving") }, false},
		{"debug shown with verbose", log.DebugLevel, func(l *log.Logger) { l.Debug("resolving") }, true},
		{"warn shown at info", log.InfoLevel, func(l *log.Logger) { l.Warn("resolution failed") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v (%q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestProgressReportsElapsed(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Update finished")

	out := buf.String()
	if !strings.Contains(out, "Update finished (") {
		t.Errorf("progress output = %q, want message with duration", out)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("empty context should yield the default logger")
	}

	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), logger)
	if loggerFromContext(ctx) != logger {
		t.Fatal("loggerFromContext did not return the attached logger")
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := logHooks{logger: newLogger(&buf, log.DebugLevel)}

	ctx := context.Background()
	h.OnExtract(ctx, "hosts/db.nix", 2, nil)
	h.OnResolveStart(ctx, "docker", "postgres:15")
	h.OnResolveComplete(ctx, "docker", "postgres:15", time.Second, nil)
	h.OnResolveComplete(ctx, "github_release", "$GITHUB_RELEASE$:o/r$", time.Second, errors.New("no releases"))
	h.OnEnrichFailed(ctx, "redis:7", errors.New("no config blob"))
	h.OnLockWrite(ctx, "uptix.lock", 2, nil)

	for _, want := range []string{"hosts/db.nix", "postgres:15", "no releases", "no config blob", "uptix.lock"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	var buf bytes.Buffer
	h := logHooks{logger: newLogger(&buf, log.InfoLevel)}
	h.OnRequest(context.Background(), "GET", "ghcr.io", "/v2/")
	h.OnResponse(context.Background(), "GET", "ghcr.io", "/v2/", 401, time.Millisecond)
	if buf.Len() != 0 {
		t.Errorf("info-level logger wrote debug events: %s", buf.String())
	}
}

func TestRegisterHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	registerHooks(newLogger(&buf, log.DebugLevel))
	observability.HTTP().OnError(context.Background(), "HEAD", "registry-1.docker.io", "/v2/library/redis/manifests/7", errors.New("connection reset"))

	if !strings.Contains(buf.String(), "connection reset") {
		t.Errorf("registered hooks did not log: %q", buf.String())
	}
}
