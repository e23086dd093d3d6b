package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the styles for one colour scheme.
type Theme struct {
	Name      string
	Title     lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Body      lipgloss.Style
	Pending   lipgloss.Style
	Spinner   lipgloss.Style
	Input     lipgloss.Style
	Help      lipgloss.Style
}

// ThemeByName returns the named theme; unknown names get "plain".
func ThemeByName(name string) Theme {
	switch name {
	case "violet":
		return colourTheme(name, "#4B0082", "#C779D9", "#EDE7F6", "#7B1FA2", "#9400D3")
	case "fraoula":
		return colourTheme(name, "#9400D3", "#EDE7F6", "#C779D9", "#311B92", "#C779D9")
	default:
		return Theme{
			Name:      "plain",
			Title:     lipgloss.NewStyle().Bold(true),
			UserLabel: lipgloss.NewStyle().Bold(true),
			BotLabel:  lipgloss.NewStyle().Bold(true),
			Body:      lipgloss.NewStyle(),
			Pending:   lipgloss.NewStyle().Faint(true),
			Spinner:   lipgloss.NewStyle(),
			Input:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()),
			Help:      lipgloss.NewStyle().Faint(true),
		}
	}
}

func colourTheme(name, title, user, bot, border, accent string) Theme {
	return Theme{
		Name: name,
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(title)).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(user)),
		BotLabel:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(bot)),
		Body:      lipgloss.NewStyle().Foreground(lipgloss.Color(bot)),
		Pending:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(accent)),
		Spinner:   lipgloss.NewStyle().Foreground(lipgloss.Color(accent)),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(border)),
		Help: lipgloss.NewStyle().Foreground(lipgloss.Color(border)),
	}
}
