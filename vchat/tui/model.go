package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/ZanzyTHEbar/vchat/vchat/generation/harness"
	"github.com/ZanzyTHEbar/vchat/vchat/transcript"
)

// Submitter is the conversation the UI drives.
type Submitter interface {
	Submit(ctx context.Context, message string) (harness.Exchange, bool)
	Turns() []transcript.Turn
}

// Options configures the chat screen.
type Options struct {
	Title          string
	Theme          string
	NewestFirst    bool
	RenderMarkdown bool
}

// replyMsg carries the result of one Submit back to Update.
type replyMsg struct {
	exchange harness.Exchange
	accepted bool
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	ctx  context.Context
	sub  Submitter
	opts Options

	theme    Theme
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	pending string // message awaiting a reply
	waiting bool
	lastErr error

	width  int
	height int
	ready  bool
}

func New(ctx context.Context, sub Submitter, opts Options) Model {
	theme := ThemeByName(opts.Theme)

	in := textinput.New()
	in.Placeholder = "Type a message and press Enter"
	in.CharLimit = 4000
	in.Prompt = "> "
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Spinner

	return Model{
		ctx:      ctx,
		sub:      sub,
		opts:     opts,
		theme:    theme,
		input:    in,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) submit(message string) tea.Cmd {
	ctx, sub := m.ctx, m.sub
	return func() tea.Msg {
		ex, ok := sub.Submit(ctx, message)
		return replyMsg{exchange: ex, accepted: ok}
	}
}
