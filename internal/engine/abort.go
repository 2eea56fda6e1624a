package engine

import "context"

// abortRequested reports whether inference for ctx should stop early.
func abortRequested(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
