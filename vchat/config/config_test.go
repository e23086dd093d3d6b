package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))

	for _, key := range []string{"GEMINI_API_KEY", "OPENROUTER_API_KEY", "VCHAT_HOSTED_API_KEY", "VCHAT_CHAT_API_KEY", "VCHAT_BACKEND_KIND"} {
		suite.T().Setenv(key, "")
		os.Unsetenv(key)
	}
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "hosted", cfg.Backend.Kind)
	assert.Equal(suite.T(), 0.7, cfg.Backend.Temperature)
	assert.Equal(suite.T(), 300, cfg.Backend.MaxTokens)
	assert.Equal(suite.T(), 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(suite.T(), generation.DefaultHostedEndpoint, cfg.Hosted.Endpoint)
	assert.Equal(suite.T(), "model", cfg.Hosted.ModelRole)
	assert.Equal(suite.T(), 6, cfg.Local.ContextTurns)
	assert.Equal(suite.T(), "User", cfg.Local.UserLabel)
	assert.Equal(suite.T(), "Bot", cfg.Local.AssistantLabel)
	assert.Equal(suite.T(), RunnerServer, cfg.Local.Runner)
	assert.Equal(suite.T(), "violet", cfg.UI.Theme)
	assert.True(suite.T(), cfg.UI.RenderMarkdown)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	path := suite.writeConfig(`
backend:
  kind: local
  temperature: 0.2
  max_tokens: 128
  timeout: 5s
local:
  runner: gguf
  model_path: /models/tiny.gguf
  context_turns: 4
  user_label: Human
  assistant_label: AI
ui:
  theme: fraoula
  newest_first: true
`)

	loader := NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), path, loader.FileUsed())

	assert.Equal(suite.T(), "local", cfg.Backend.Kind)
	assert.Equal(suite.T(), 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(suite.T(), RunnerGGUF, cfg.Local.Runner)
	assert.True(suite.T(), cfg.UI.NewestFirst)

	kind, p, err := cfg.Params()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), generation.KindLocal, kind)
	assert.Equal(suite.T(), 0.2, p.Temperature)
	assert.Equal(suite.T(), 128, p.MaxTokens)
	assert.Equal(suite.T(), 4, p.ContextTurns)
	assert.Equal(suite.T(), "Human", p.UserLabel)
	assert.Equal(suite.T(), "AI", p.AssistantLabel)
}

func (suite *ConfigTestSuite) TestSearchPathFindsWorkingDirectoryConfig() {
	suite.writeConfig("backend:\n  kind: chat\n")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "chat", cfg.Backend.Kind)
}

func (suite *ConfigTestSuite) TestEnvironmentOverrides() {
	suite.T().Setenv("VCHAT_BACKEND_KIND", "chat")
	suite.T().Setenv("VCHAT_BACKEND_MAX_TOKENS", "64")
	suite.T().Setenv("OPENROUTER_API_KEY", "sk-or-test")
	suite.T().Setenv("GEMINI_API_KEY", "gm-test")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "chat", cfg.Backend.Kind)
	assert.Equal(suite.T(), 64, cfg.Backend.MaxTokens)
	assert.Equal(suite.T(), "sk-or-test", cfg.Chat.APIKey)
	assert.Equal(suite.T(), "gm-test", cfg.Hosted.APIKey)
	assert.NoError(suite.T(), cfg.CredentialError())
}

func (suite *ConfigTestSuite) TestPrefixedKeyWinsOverVendorAlias() {
	suite.T().Setenv("VCHAT_HOSTED_API_KEY", "primary")
	suite.T().Setenv("GEMINI_API_KEY", "alias")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "primary", cfg.Hosted.APIKey)
}

func (suite *ConfigTestSuite) TestCredentialError() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)
	assert.Error(suite.T(), cfg.CredentialError())

	cfg.Backend.Kind = "local"
	assert.NoError(suite.T(), cfg.CredentialError())
}

func (suite *ConfigTestSuite) TestInvalidConfigs() {
	cases := map[string]string{
		"unknown backend":      "backend:\n  kind: telegraph\n",
		"temperature too high": "backend:\n  temperature: 1.5\n",
		"zero max tokens":      "backend:\n  max_tokens: 0\n",
		"zero timeout":         "backend:\n  timeout: 0s\n",
		"gguf without model":   "backend:\n  kind: local\nlocal:\n  runner: gguf\n",
		"unknown runner":       "backend:\n  kind: local\nlocal:\n  runner: cloud\n",
		"zero context turns":   "backend:\n  kind: local\nlocal:\n  context_turns: 0\n",
		"unknown theme":        "ui:\n  theme: neon\n",
		"bad log level":        "log:\n  level: loud\n",
		"zero burst":           "harness:\n  rate_limit_burst: 0\n",
	}

	for name, content := range cases {
		suite.Run(name, func() {
			_, err := LoadConfig(suite.writeConfig(content))
			assert.Error(suite.T(), err)
		})
	}
}

func (suite *ConfigTestSuite) TestMissingExplicitFile() {
	_, err := LoadConfig(filepath.Join(suite.tempDir, "absent.yaml"))
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestWatchRequiresFile() {
	loader := NewLoader("")
	_, err := loader.Load()
	require.NoError(suite.T(), err)
	assert.False(suite.T(), loader.Watch(func(*Config, error) {}))
}

func (suite *ConfigTestSuite) TestWatchReloadsParams() {
	path := suite.writeConfig("backend:\n  temperature: 0.5\n")
	loader := NewLoader(path)
	_, err := loader.Load()
	require.NoError(suite.T(), err)

	changes := make(chan *Config, 4)
	require.True(suite.T(), loader.Watch(func(cfg *Config, err error) {
		if err == nil {
			changes <- cfg
		}
	}))

	require.NoError(suite.T(), os.WriteFile(path, []byte("backend:\n  temperature: 0.9\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(suite.T(), 0.9, cfg.Backend.Temperature)
	case <-time.After(5 * time.Second):
		suite.T().Fatal("config change not observed")
	}
}
