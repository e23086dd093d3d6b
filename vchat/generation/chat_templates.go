package generation

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/ZanzyTHEbar/vchat/vchat/transcript"
)

// FlatTemplate renders "<Label>: <content>\n" per turn and ends with an open
// assistant cue, e.g. "User: A\nBot: B\nUser: C\nBot:".
const FlatTemplate = "{{range .Lines}}{{.Label}}: {{.Content}}\n{{end}}{{.Cue}}:"

type promptLine struct {
	Label   string
	Content string
}

// promptData is what a local prompt template sees.
type promptData struct {
	Lines          []promptLine
	Cue            string
	UserLabel      string
	AssistantLabel string
}

// renderLocalPrompt flattens turns with the configured template.
func renderLocalPrompt(turns []transcript.Turn, p Params) (string, error) {
	text := p.PromptTemplate
	if strings.TrimSpace(text) == "" {
		text = FlatTemplate
	}

	tmpl, err := template.New("local").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid local prompt template: %w", err)
	}

	data := promptData{
		Lines:          make([]promptLine, len(turns)),
		Cue:            p.AssistantLabel,
		UserLabel:      p.UserLabel,
		AssistantLabel: p.AssistantLabel,
	}
	for i, t := range turns {
		label := p.UserLabel
		if t.Role == transcript.RoleAssistant {
			label = p.AssistantLabel
		}
		data.Lines[i] = promptLine{Label: label, Content: t.Content}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render local prompt: %w", err)
	}
	return sb.String(), nil
}
