package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ZanzyTHEbar/vchat/vchat/generation/harness"
	"github.com/ZanzyTHEbar/vchat/vchat/transcript"
)

const thinking = "Thinking..."

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := m.opts.Title
	if title == "" {
		title = "vchat"
	}
	header := m.theme.Title.Render(title)

	help := "enter send • pgup/pgdn scroll • esc quit"
	switch {
	case m.waiting:
		help = m.spinner.View() + " " + thinking
	case m.lastErr != nil:
		help = "last reply failed (" + harness.Outcome(m.lastErr) + ") • " + help
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.theme.Input.Render(m.input.View()),
		m.theme.Help.Render(help),
	)
}

// transcriptView renders the turns plus any pending message.
func (m Model) transcriptView() string {
	turns := m.sub.Turns()
	blocks := make([]string, 0, len(turns)+2)
	for _, t := range turns {
		blocks = append(blocks, m.renderTurn(t))
	}
	if m.pending != "" {
		blocks = append(blocks,
			m.renderTurn(transcript.Turn{Role: transcript.RoleUser, Content: m.pending}),
			m.theme.BotLabel.Render("Bot: ")+m.theme.Pending.Render(thinking),
		)
	}
	if m.opts.NewestFirst {
		for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
			blocks[i], blocks[j] = blocks[j], blocks[i]
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderTurn(t transcript.Turn) string {
	if t.Role == transcript.RoleUser {
		return m.theme.UserLabel.Render("You: ") + t.Content
	}

	body := t.Content
	if m.renderer != nil {
		if out, err := m.renderer.Render(t.Content); err == nil {
			body = strings.TrimSpace(out)
		}
	} else if m.width > 0 {
		body = lipgloss.NewStyle().Width(m.width - 2).Render(body)
	}
	return m.theme.BotLabel.Render("Bot:") + "\n" + m.theme.Body.Render(body)
}
