//go:build llama && !no_llama

package models

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GGUFProvider runs a pool of llama.cpp model instances.
type GGUFProvider struct {
	config  *GGUFModelConfig
	pool    chan *llama.LLama
	breaker *breaker
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewGGUFProvider loads config.PoolSize instances of the model.
func NewGGUFProvider(config *GGUFModelConfig) (*GGUFProvider, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := CheckModelFile(config.ModelPath); err != nil {
		return nil, err
	}

	p := &GGUFProvider{
		config:  config,
		pool:    make(chan *llama.LLama, config.PoolSize),
		breaker: newBreaker(config.BreakerThreshold, config.BreakerCooldown),
		logger:  log.With().Str("component", "gguf").Str("model_path", config.ModelPath).Logger(),
	}

	for i := 0; i < config.PoolSize; i++ {
		model, err := llama.New(config.ModelPath,
			llama.SetContext(config.ContextSize),
			llama.SetGPULayers(config.GPULayers),
		)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to load model instance %d: %w", i, err)
		}
		p.pool <- model
	}

	p.logger.Info().Int("pool_size", config.PoolSize).Msg("local model loaded")
	return p, nil
}

func (p *GGUFProvider) borrow(ctx context.Context) (*llama.LLama, error) {
	if p.breaker.open() {
		return nil, ErrBreakerOpen
	}

	borrowCtx, cancel := context.WithTimeout(ctx, p.config.BorrowTimeout)
	defer cancel()

	select {
	case model, ok := <-p.pool:
		if !ok {
			return nil, fmt.Errorf("provider closed")
		}
		return model, nil
	case <-borrowCtx.Done():
		return nil, fmt.Errorf("borrow timeout after %v: %w", p.config.BorrowTimeout, borrowCtx.Err())
	}
}

func (p *GGUFProvider) giveBack(model *llama.LLama) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		model.Free()
		return
	}
	select {
	case p.pool <- model:
	default:
		model.Free()
	}
}

// Generate completes prompt. Prediction stops early once ctx is done.
func (p *GGUFProvider) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	model, err := p.borrow(ctx)
	if err != nil {
		p.recordFailure(err)
		return "", err
	}
	defer p.giveBack(model)

	start := time.Now()
	out, err := model.Predict(prompt,
		llama.SetTokens(maxTokens),
		llama.SetTemperature(float32(temperature)),
		llama.SetTopP(p.config.TopP),
		llama.SetThreads(p.config.Threads),
		llama.SetStopWords(p.config.StopWords...),
		llama.SetTokenCallback(func(string) bool { return ctx.Err() == nil }),
	)
	if err != nil {
		p.recordFailure(err)
		return "", fmt.Errorf("prediction failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.breaker.success()
	p.logger.Debug().Dur("duration", time.Since(start)).Int("output_length", len(out)).Msg("generation completed")
	return out, nil
}

func (p *GGUFProvider) recordFailure(err error) {
	n := p.breaker.failure()
	p.logger.Warn().Err(err).Int("failure_count", n).Msg("local generation failed")
}

// Close frees every pooled instance.
func (p *GGUFProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.pool)
	for model := range p.pool {
		model.Free()
	}
	p.logger.Info().Msg("local model closed")
	return nil
}
