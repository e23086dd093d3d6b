package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	internal "github.com/ZanzyTHEbar/vchat/vchat"
	"github.com/ZanzyTHEbar/vchat/vchat/generation"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Hosted  HostedConfig  `mapstructure:"hosted"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Local   LocalConfig   `mapstructure:"local"`
	Harness HarnessConfig `mapstructure:"harness"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
}

// BackendConfig selects the backend and the shared generation parameters.
type BackendConfig struct {
	Kind        string        `mapstructure:"kind"`        // "hosted", "chat", "local"
	Temperature float64       `mapstructure:"temperature"` // Sampling temperature
	MaxTokens   int           `mapstructure:"max_tokens"`  // Max output tokens
	Timeout     time.Duration `mapstructure:"timeout"`     // Per-exchange deadline
}

// HostedConfig stores the hosted generative-text API settings.
type HostedConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	APIKey    string `mapstructure:"api_key"`
	ModelRole string `mapstructure:"model_role"` // Label for assistant turns
}

// ChatConfig stores the OpenAI-compatible chat-completion settings.
type ChatConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// LocalConfig stores the local model settings.
type LocalConfig struct {
	Runner         string `mapstructure:"runner"`     // "server" or "gguf"
	ModelPath      string `mapstructure:"model_path"` // GGUF file for the in-process runner
	ServerURL      string `mapstructure:"server_url"` // OpenAI-compatible completions server
	Model          string `mapstructure:"model"`
	ContextTurns   int    `mapstructure:"context_turns"` // Prior turns replayed in the prompt
	UserLabel      string `mapstructure:"user_label"`
	AssistantLabel string `mapstructure:"assistant_label"`
	PromptTemplate string `mapstructure:"prompt_template"`
	ContextSize    int    `mapstructure:"context_size"`
	GPULayers      int    `mapstructure:"gpu_layers"`
	Threads        int    `mapstructure:"threads"`
	PoolSize       int    `mapstructure:"pool_size"`
}

const (
	RunnerServer = "server"
	RunnerGGUF   = "gguf"
)

// HarnessConfig stores pacing and tracing settings.
type HarnessConfig struct {
	RateLimitEnabled bool    `mapstructure:"rate_limit_enabled"`
	RateLimitRPS     float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
	EnableTracing    bool    `mapstructure:"enable_tracing"`
}

// MetricsConfig enables the Prometheus listener when Listen is set.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// UIConfig stores terminal front-end preferences.
type UIConfig struct {
	Title          string `mapstructure:"title"`
	Theme          string `mapstructure:"theme"` // "violet", "fraoula", "plain"
	NewestFirst    bool   `mapstructure:"newest_first"`
	RenderMarkdown bool   `mapstructure:"render_markdown"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // Used while the TUI owns the terminal
}

// Themes lists the accepted ui.theme values.
var Themes = []string{"violet", "fraoula", "plain"}

// Loader reads configuration through its own viper instance.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader prepares a loader for configPath, or the default search path
// when configPath is empty.
func NewLoader(configPath string) *Loader {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.AddConfigPath(filepath.Join("/etc", internal.DefaultAppName))
		v.SetConfigName(internal.DefaultConfigName)
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("VCHAT")
	// Replace dots with underscores in env var names e.g. backend.max_tokens becomes VCHAT_BACKEND_MAX_TOKENS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("hosted.api_key", "VCHAT_HOSTED_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("chat.api_key", "VCHAT_CHAT_API_KEY", "OPENROUTER_API_KEY")

	return &Loader{v: v, path: configPath}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.kind", string(generation.KindHosted))
	v.SetDefault("backend.temperature", generation.DefaultTemperature)
	v.SetDefault("backend.max_tokens", generation.DefaultMaxTokens)
	v.SetDefault("backend.timeout", "60s")

	v.SetDefault("hosted.endpoint", generation.DefaultHostedEndpoint)
	v.SetDefault("hosted.api_key", "")
	v.SetDefault("hosted.model_role", generation.DefaultModelRole)

	v.SetDefault("chat.base_url", generation.DefaultChatBaseURL)
	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.model", generation.DefaultChatModel)

	v.SetDefault("local.runner", RunnerServer)
	v.SetDefault("local.model_path", "")
	v.SetDefault("local.server_url", generation.DefaultLocalServerURL)
	v.SetDefault("local.model", "")
	v.SetDefault("local.context_turns", generation.DefaultContextTurns)
	v.SetDefault("local.user_label", generation.DefaultUserLabel)
	v.SetDefault("local.assistant_label", generation.DefaultAssistantLabel)
	v.SetDefault("local.prompt_template", "")
	v.SetDefault("local.context_size", 2048)
	v.SetDefault("local.gpu_layers", 0) // CPU-only by default
	v.SetDefault("local.threads", 4)
	v.SetDefault("local.pool_size", 1)

	v.SetDefault("harness.rate_limit_enabled", true)
	v.SetDefault("harness.rate_limit_rps", 1.0)
	v.SetDefault("harness.rate_limit_burst", 3)
	v.SetDefault("harness.enable_tracing", false)

	v.SetDefault("metrics.listen", "")

	v.SetDefault("ui.title", "vchat")
	v.SetDefault("ui.theme", "violet")
	v.SetDefault("ui.newest_first", false)
	v.SetDefault("ui.render_markdown", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", internal.DefaultLogFile)
}

// Load reads the config file if one is found, applies env overrides and
// validates the result. A missing file on the search path is not an error.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FileUsed returns the config file that was read, or "".
func (l *Loader) FileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch re-decodes the config file on every write and hands the result to
// onChange. It reports false when no file was loaded.
func (l *Loader) Watch(onChange func(*Config, error)) bool {
	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.decode())
	})
	l.v.WatchConfig()
	return true
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}

// BackendKind parses backend.kind.
func (c *Config) BackendKind() (generation.Kind, error) {
	return generation.ParseKind(c.Backend.Kind)
}

// Params maps the config onto the generation params of the selected backend.
func (c *Config) Params() (generation.Kind, generation.Params, error) {
	kind, err := c.BackendKind()
	if err != nil {
		return "", generation.Params{}, err
	}

	p := generation.DefaultParams(kind)
	p.Temperature = c.Backend.Temperature
	p.MaxTokens = c.Backend.MaxTokens

	switch kind {
	case generation.KindHosted:
		p.ModelRole = c.Hosted.ModelRole
	case generation.KindChat:
		p.Model = c.Chat.Model
	case generation.KindLocal:
		p.Model = c.Local.Model
		p.ContextTurns = c.Local.ContextTurns
		p.UserLabel = c.Local.UserLabel
		p.AssistantLabel = c.Local.AssistantLabel
		p.PromptTemplate = c.Local.PromptTemplate
	}

	if err := p.Validate(kind); err != nil {
		return "", generation.Params{}, err
	}
	return kind, p, nil
}

// Validate checks the settings the selected backend depends on.
func (c *Config) Validate() error {
	kind, _, err := c.Params()
	if err != nil {
		return fmt.Errorf("invalid backend config: %w", err)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %v", c.Backend.Timeout)
	}

	switch kind {
	case generation.KindHosted:
		if c.Hosted.Endpoint == "" {
			return errors.New("hosted.endpoint is required")
		}
	case generation.KindChat:
		if c.Chat.BaseURL == "" {
			return errors.New("chat.base_url is required")
		}
	case generation.KindLocal:
		switch c.Local.Runner {
		case RunnerServer:
			if c.Local.ServerURL == "" {
				return errors.New("local.server_url is required for the server runner")
			}
		case RunnerGGUF:
			if c.Local.ModelPath == "" {
				return errors.New("local.model_path is required for the gguf runner")
			}
		default:
			return fmt.Errorf("local.runner must be %q or %q, got %q", RunnerServer, RunnerGGUF, c.Local.Runner)
		}
	}

	if c.Harness.RateLimitEnabled && (c.Harness.RateLimitRPS <= 0 || c.Harness.RateLimitBurst <= 0) {
		return fmt.Errorf("harness rate limit needs positive rps and burst, got %g/%d", c.Harness.RateLimitRPS, c.Harness.RateLimitBurst)
	}

	if !slices.Contains(Themes, c.UI.Theme) {
		return fmt.Errorf("ui.theme must be one of %s, got %q", strings.Join(Themes, ", "), c.UI.Theme)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	return nil
}

// CredentialError reports the API key the selected backend is missing, or nil.
func (c *Config) CredentialError() error {
	kind, err := c.BackendKind()
	if err != nil {
		return err
	}
	switch kind {
	case generation.KindHosted:
		if c.Hosted.APIKey == "" {
			return errors.New("hosted.api_key is not set (or export GEMINI_API_KEY)")
		}
	case generation.KindChat:
		if c.Chat.APIKey == "" {
			return errors.New("chat.api_key is not set (or export OPENROUTER_API_KEY)")
		}
	}
	return nil
}

