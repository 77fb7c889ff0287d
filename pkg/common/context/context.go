// Package context holds the small context helpers the pull loop relies on.
package context

import (
	"context"
)

// IsCanceled returns true if the context has been canceled or has expired.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout.
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

// Check returns the context error once ctx is done, nil otherwise.
// It is cheap enough to call once per pulled element.
func Check(ctx context.Context) error {
	if IsCanceled(ctx) {
		return ctx.Err()
	}
	return nil
}

// OrBackground returns ctx, or context.Background() when ctx is nil.
func OrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
