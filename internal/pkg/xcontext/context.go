// Package xcontext has context helpers for work that must outlive a request.
package xcontext

import (
	"context"
	"time"
)

// DetachWithTimeout returns a context that keeps the parent's values but not
// its cancellation, bounded by timeout. Used for cleanup that must finish
// even when the triggering request is cancelled mid-way.
func DetachWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
