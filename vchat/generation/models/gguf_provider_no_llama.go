//go:build !llama || no_llama

package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrLlamaNotCompiled is returned by builds without the llama tag.
var ErrLlamaNotCompiled = errors.New("llama.cpp support not compiled in; rebuild with -tags llama or set local.runner=server")

// GGUFProvider is unavailable in this build.
type GGUFProvider struct{}

// NewGGUFProvider validates config and reports that in-process inference
// is not available.
func NewGGUFProvider(config *GGUFModelConfig) (*GGUFProvider, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return nil, ErrLlamaNotCompiled
}

func (p *GGUFProvider) Generate(context.Context, string, int, float64) (string, error) {
	return "", ErrLlamaNotCompiled
}

func (p *GGUFProvider) Close() error { return nil }
