package models

import "context"

// TextGenerator completes a flattened prompt with a locally loaded model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	Close() error
}

var _ TextGenerator = (*GGUFProvider)(nil)
