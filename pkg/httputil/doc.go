// Package httputil provides HTTP utilities shared by the registry and
// GitHub clients.
//
// # Retry
//
// [Retry] wraps requests with automatic retry for transient failures:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    // ...
//	})
//
// Only errors wrapped in [RetryableError] trigger retries. Network errors,
// 5xx and 429 responses are retryable; other 4xx responses are not. The
// delay doubles after each attempt. A throttled response may carry a
// Retry-After header; [ParseRetryAfter] turns it into the wait used for
// the next attempt instead of the backoff.
//
// Responses are never cached: every run re-resolves every requested
// dependency.
package httputil
