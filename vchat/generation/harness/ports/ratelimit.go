package harnessports

import "context"

// RateLimiter paces outbound calls per backend key. Acquire blocks until a
// slot is available or ctx is done.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
