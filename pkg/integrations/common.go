package integrations

import (
	stderrors "errors"
	"net/http"
	"time"
)

// DefaultTimeout bounds every request so one unreachable host cannot hang
// a run.
const DefaultTimeout = 10 * time.Second

const maxBodySize = 16 << 20

var (
	// ErrNotFound is returned when the requested resource doesn't exist.
	ErrNotFound = stderrors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = stderrors.New("network error")
)

// NewHTTPClient creates an HTTP client with the given timeout, falling back
// to [DefaultTimeout] when timeout is not positive.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
