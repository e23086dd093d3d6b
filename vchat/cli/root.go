package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/vchat/vchat/config"
	"github.com/ZanzyTHEbar/vchat/vchat/generation/harness"
	"github.com/ZanzyTHEbar/vchat/vchat/tui"
)

var (
	version = "dev"
	commit  = "unknown"
)

// options are the global flags shared by every command.
type options struct {
	configPath string
	backend    string
	debug      bool
}

// NewRootCmd builds the vchat command tree. The bare command opens the chat
// screen.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "vchat",
		Short: "Terminal chat client for hosted, OpenAI-compatible and local language models",
		Long: `vchat keeps a conversation in memory and sends it, turn by turn, to the
configured backend: a hosted generative-text API, an OpenAI-compatible
chat-completion API, or a local quantized model.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts)
		},
	}

	// Disable completion command
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default ./config.yaml, then the user config dir)")
	root.PersistentFlags().StringVarP(&opts.backend, "backend", "b", "", "override backend.kind: hosted, chat or local")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newAskCmd(opts))
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies flag overrides.
func loadConfig(opts *options) (*config.Loader, *config.Config, error) {
	loader := config.NewLoader(opts.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return nil, nil, err
	}
	return loader, cfg, nil
}

func applyOverrides(cfg *config.Config, opts *options) error {
	if opts.backend != "" {
		cfg.Backend.Kind = opts.backend
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	return cfg.Validate()
}

func runChat(ctx context.Context, opts *options) error {
	loader, cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	reg, stopMetrics := startMetrics(cfg.Metrics.Listen, logger)
	defer stopMetrics()

	session, err := harness.NewFactory(cfg, logger, reg).CreateSession()
	if err != nil {
		return err
	}
	defer session.Close()

	watching := loader.Watch(func(next *config.Config, err error) {
		if err == nil {
			err = applyOverrides(next, opts)
		}
		if err != nil {
			logger.Warn().Err(err).Msg("config reload rejected")
			return
		}
		kind, params, err := next.Params()
		if err != nil || kind != session.Kind() {
			logger.Warn().Str("backend", next.Backend.Kind).Msg("backend change needs a restart; keeping current backend")
			return
		}
		if err := session.SetParams(params); err != nil {
			logger.Warn().Err(err).Msg("config reload rejected")
		}
	})
	if watching {
		logger.Info().Str("file", loader.FileUsed()).Msg("watching config for changes")
	}

	logger.Info().Str("session", session.ID()).Str("backend", string(session.Kind())).Msg("chat started")

	model := tui.New(ctx, session, tui.Options{
		Title:          cfg.UI.Title,
		Theme:          cfg.UI.Theme,
		NewestFirst:    cfg.UI.NewestFirst,
		RenderMarkdown: cfg.UI.RenderMarkdown,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}
