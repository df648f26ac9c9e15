package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrSourceNotReady is returned by Await when the source never became
// available within the retry budget.
var ErrSourceNotReady = errors.New("dashboard: statistics source not ready")

// PrimaryIndicator is the entity whose presence marks a source as loaded.
const PrimaryIndicator = "cond_pag"

// RetryPolicy bounds how long Await keeps polling.
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
}

// DefaultRetryPolicy polls every 100ms for up to five seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 50, Interval: 100 * time.Millisecond}
}

// SourceLookup returns the current source, or false while none is loaded.
type SourceLookup func() (Source, bool)

// Await polls lookup until it yields a source holding the primary indicator
// entity. It gives up after policy.Attempts tries or when ctx is done.
// An empty primary accepts any source.
func Await(ctx context.Context, lookup SourceLookup, primary string, policy RetryPolicy) (Source, error) {
	attempts := max(policy.Attempts, 1)
	for i := 1; ; i++ {
		if src, ok := lookup(); ok && src != nil {
			if primary == "" {
				return src, nil
			}
			if _, has := src.Stat(primary); has {
				return src, nil
			}
		}
		if i >= attempts {
			return nil, fmt.Errorf("%w after %d attempts", ErrSourceNotReady, attempts)
		}

		t := time.NewTimer(policy.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
