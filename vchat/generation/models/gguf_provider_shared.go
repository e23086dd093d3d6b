package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the provider is cooling down after
// repeated failures.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// GGUFModelConfig holds configuration for GGUF model loading
type GGUFModelConfig struct {
	ModelPath   string
	ContextSize int
	GPULayers   int
	Threads     int
	TopP        float32
	StopWords   []string

	// Pooling and resilience settings
	PoolSize         int
	BorrowTimeout    time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DefaultGGUFConfig returns default configuration for a GGUF chat model.
// Generation stops when the model starts a new user line.
func DefaultGGUFConfig(modelPath, userLabel string) *GGUFModelConfig {
	if userLabel == "" {
		userLabel = "User"
	}
	return &GGUFModelConfig{
		ModelPath:        modelPath,
		ContextSize:      2048,
		GPULayers:        0, // CPU-only by default
		Threads:          4,
		TopP:             0.9,
		StopWords:        []string{"\n" + userLabel + ":"},
		PoolSize:         1,
		BorrowTimeout:    5 * time.Second,
		BreakerThreshold: 5,
		BreakerCooldown:  60 * time.Second,
	}
}

// ValidateConfig validates the GGUF model configuration
func ValidateConfig(config *GGUFModelConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if config.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if config.ContextSize <= 0 {
		return fmt.Errorf("context size must be positive, got %d", config.ContextSize)
	}
	if config.GPULayers < 0 {
		return fmt.Errorf("GPU layers cannot be negative, got %d", config.GPULayers)
	}
	if config.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", config.Threads)
	}
	if config.TopP < 0 || config.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1, got %f", config.TopP)
	}
	if config.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", config.PoolSize)
	}
	if config.BorrowTimeout <= 0 {
		return fmt.Errorf("borrow timeout must be positive, got %v", config.BorrowTimeout)
	}
	if config.BreakerThreshold <= 0 {
		return fmt.Errorf("breaker threshold must be positive, got %d", config.BreakerThreshold)
	}
	if config.BreakerCooldown <= 0 {
		return fmt.Errorf("breaker cooldown must be positive, got %v", config.BreakerCooldown)
	}
	return nil
}

// CheckModelFile verifies path exists and carries the GGUF magic.
func CheckModelFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("read model header: %w", err)
	}
	if !bytes.Equal(magic, []byte("GGUF")) {
		return fmt.Errorf("%s is not a GGUF file", path)
	}
	return nil
}

// breaker trips after threshold consecutive failures and resets once
// cooldown has elapsed since the last one.
type breaker struct {
	mu          sync.Mutex
	threshold   int
	cooldown    time.Duration
	failures    int
	lastFailure time.Time
	now         func() time.Time
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (b *breaker) open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return false
	}
	if b.now().Sub(b.lastFailure) > b.cooldown {
		b.failures = 0
		return false
	}
	return true
}

func (b *breaker) success() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

func (b *breaker) failure() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()
	return b.failures
}
