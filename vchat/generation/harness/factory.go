package harness

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/vchat/vchat/config"
	"github.com/ZanzyTHEbar/vchat/vchat/generation"
	"github.com/ZanzyTHEbar/vchat/vchat/generation/harness/adapters"
	ports "github.com/ZanzyTHEbar/vchat/vchat/generation/harness/ports"
	"github.com/ZanzyTHEbar/vchat/vchat/generation/models"
)

// Factory creates and wires harness components from configuration.
type Factory struct {
	cfg        *config.Config
	logger     zerolog.Logger
	registerer prometheus.Registerer
	httpClient *http.Client
}

// NewFactory creates a new harness factory. reg may be nil to skip metrics
// registration.
func NewFactory(cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) *Factory {
	return &Factory{cfg: cfg, logger: logger, registerer: reg}
}

// WithHTTPClient overrides the client used by HTTP backends.
func (f *Factory) WithHTTPClient(c *http.Client) *Factory {
	f.httpClient = c
	return f
}

// CreateSession builds the provider selected by backend.kind and wraps it
// in a Session.
func (f *Factory) CreateSession() (*Session, error) {
	kind, params, err := f.cfg.Params()
	if err != nil {
		return nil, err
	}

	provider, err := f.CreateProvider(kind)
	if err != nil {
		return nil, err
	}

	return NewSession(provider, Options{
		Params:  params,
		Timeout: f.cfg.Backend.Timeout,
		Limiter: f.createRateLimiter(),
		Tracer:  f.createTracer(),
		Metrics: NewMetrics(f.registerer),
		Logger:  f.logger,
	})
}

// CreateProvider builds the backend adapter for kind.
func (f *Factory) CreateProvider(kind generation.Kind) (ports.Provider, error) {
	switch kind {
	case generation.KindHosted:
		if err := f.cfg.CredentialError(); err != nil {
			return nil, err
		}
		return adapters.NewHostedProvider(f.httpClient, f.cfg.Hosted.Endpoint, f.cfg.Hosted.APIKey)
	case generation.KindChat:
		return adapters.NewChatProvider(f.cfg.Chat.BaseURL, f.cfg.Chat.APIKey, f.httpClient)
	case generation.KindLocal:
		return f.createLocalProvider()
	default:
		return nil, fmt.Errorf("unknown backend kind %q", kind)
	}
}

func (f *Factory) createLocalProvider() (ports.Provider, error) {
	local := f.cfg.Local
	if local.Runner == config.RunnerServer {
		return adapters.NewLocalServerProvider(local.ServerURL, f.httpClient)
	}

	gcfg := models.DefaultGGUFConfig(local.ModelPath, local.UserLabel)
	gcfg.ContextSize = local.ContextSize
	gcfg.GPULayers = local.GPULayers
	gcfg.Threads = local.Threads
	gcfg.PoolSize = local.PoolSize

	gen, err := models.NewGGUFProvider(gcfg)
	if err != nil {
		return nil, fmt.Errorf("load local model: %w", err)
	}
	return adapters.NewLocalModelProvider(gen), nil
}

// createRateLimiter creates a rate limiter adapter from config.
func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.Harness.RateLimitEnabled {
		return noOpRateLimiter{}
	}
	return adapters.NewKeyedLimiter(f.cfg.Harness.RateLimitRPS, f.cfg.Harness.RateLimitBurst)
}

// createTracer creates a tracer adapter from config.
func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.Harness.EnableTracing {
		return adapters.NopTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}
