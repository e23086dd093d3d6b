package harnessports

import (
	"context"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
)

// Provider sends one backend-shaped request and returns the raw answer.
// Errors wrap generation.ErrTransport; body decoding is left to
// generation.ExtractReply so every backend fails the same way.
type Provider interface {
	Kind() generation.Kind
	Send(ctx context.Context, req *generation.Request) (*generation.Response, error)
}

// Closer is implemented by providers that hold native resources.
type Closer interface {
	Close() error
}
