package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	headerHeight = 1
	footerHeight = 4 // bordered input plus help line
)

// Update handles all messages and returns the updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.input.Width = max(msg.Width-6, 10)
		m.renderer = newRenderer(m.opts.RenderMarkdown, msg.Width-4)
		m.refresh()
		return m, nil

	case replyMsg:
		m.waiting = false
		m.pending = ""
		if msg.accepted {
			m.lastErr = msg.exchange.Err
		}
		m.refresh()
		return m, nil
	}

	// Ticks only touch the help line.
	if m.waiting {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleEnter submits the input. Blank input and input typed while a reply
// is pending are left alone.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	message := m.input.Value()
	if m.waiting || strings.TrimSpace(message) == "" {
		return m, nil
	}

	m.input.Reset()
	m.waiting = true
	m.pending = message
	m.refresh()

	return m, tea.Batch(m.spinner.Tick, m.submit(message))
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcriptView())
	if m.opts.NewestFirst {
		m.viewport.GotoTop()
	} else {
		m.viewport.GotoBottom()
	}
}

func newRenderer(enabled bool, width int) *glamour.TermRenderer {
	if !enabled || width <= 0 {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}
