package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiny.gguf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDefaultGGUFConfig(t *testing.T) {
	cfg := DefaultGGUFConfig("/models/tiny.gguf", "Human")
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, []string{"\nHuman:"}, cfg.StopWords)

	cfg = DefaultGGUFConfig("/models/tiny.gguf", "")
	assert.Equal(t, []string{"\nUser:"}, cfg.StopWords)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GGUFModelConfig)
	}{
		{"empty path", func(c *GGUFModelConfig) { c.ModelPath = "" }},
		{"zero context", func(c *GGUFModelConfig) { c.ContextSize = 0 }},
		{"negative gpu layers", func(c *GGUFModelConfig) { c.GPULayers = -1 }},
		{"zero threads", func(c *GGUFModelConfig) { c.Threads = 0 }},
		{"top_p above one", func(c *GGUFModelConfig) { c.TopP = 1.5 }},
		{"zero pool", func(c *GGUFModelConfig) { c.PoolSize = 0 }},
		{"zero borrow timeout", func(c *GGUFModelConfig) { c.BorrowTimeout = 0 }},
		{"zero breaker threshold", func(c *GGUFModelConfig) { c.BreakerThreshold = 0 }},
		{"zero cooldown", func(c *GGUFModelConfig) { c.BreakerCooldown = 0 }},
	}

	assert.Error(t, ValidateConfig(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGGUFConfig("/models/tiny.gguf", "User")
			tt.mutate(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestCheckModelFile(t *testing.T) {
	good := writeModel(t, append([]byte("GGUF"), make([]byte, 16)...))
	assert.NoError(t, CheckModelFile(good))

	bad := writeModel(t, []byte("not a model"))
	assert.Error(t, CheckModelFile(bad))

	short := writeModel(t, []byte("GG"))
	assert.Error(t, CheckModelFile(short))

	assert.Error(t, CheckModelFile(filepath.Join(t.TempDir(), "missing.gguf")))
}

func TestBreaker(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := newBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	assert.False(t, b.open())
	b.failure()
	assert.False(t, b.open())
	b.failure()
	assert.True(t, b.open())

	now = now.Add(30 * time.Second)
	assert.True(t, b.open(), "still cooling down")

	now = now.Add(31 * time.Second)
	assert.False(t, b.open(), "cooldown elapsed")

	b.failure()
	b.success()
	b.failure()
	assert.False(t, b.open(), "success resets the count")
}
