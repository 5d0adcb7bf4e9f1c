package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/uptix/pkg/httputil"
)

func ExampleRetry() {
	attempts := 0
	err := httputil.Retry(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		if attempts == 1 {
			return &httputil.RetryableError{Err: errors.New("registry returned 502")}
		}
		return nil
	})
	fmt.Println(attempts, err)
	// Output: 2 <nil>
}
