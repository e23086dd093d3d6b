package generation

import (
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"

	"github.com/ZanzyTHEbar/vchat/vchat/transcript"
)

// ErrEmptyMessage is returned when the new message is blank after trimming.
var ErrEmptyMessage = errors.New("message is empty")

// BuildRequest shapes the prior turns plus a new user message into the
// payload the given backend expects. It does not mutate turns and returns
// equal output for equal input.
func BuildRequest(turns []transcript.Turn, message string, kind Kind, p Params) (*Request, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if err := p.Validate(kind); err != nil {
		return nil, err
	}

	switch kind {
	case KindHosted:
		return &Request{Kind: kind, Hosted: buildHosted(turns, message, p)}, nil
	case KindChat:
		return &Request{Kind: kind, Chat: buildChat(turns, message, p)}, nil
	case KindLocal:
		local, err := buildLocal(turns, message, p)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: kind, Local: local}, nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", kind)
	}
}

func buildHosted(turns []transcript.Turn, message string, p Params) *HostedRequest {
	contents := make([]HostedContent, 0, len(turns)+1)
	for _, t := range turns {
		role := "user"
		if t.Role == transcript.RoleAssistant {
			role = p.ModelRole
		}
		contents = append(contents, HostedContent{Role: role, Parts: []HostedPart{{Text: t.Content}}})
	}
	contents = append(contents, HostedContent{Role: "user", Parts: []HostedPart{{Text: message}}})

	return &HostedRequest{
		Contents: contents,
		GenerationConfig: HostedGenerationConfig{
			Temperature:     p.Temperature,
			MaxOutputTokens: p.MaxTokens,
		},
	}
}

func buildChat(turns []transcript.Turn, message string, p Params) *openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	for _, t := range turns {
		if t.Role == transcript.RoleAssistant {
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(t.Content))
			continue
		}
		msgs = append(msgs, openai.UserMessage(t.Content))
	}
	msgs = append(msgs, openai.UserMessage(message))

	return &openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.Model),
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(p.MaxTokens)),
		Temperature: openai.Float(p.Temperature),
	}
}

func buildLocal(turns []transcript.Turn, message string, p Params) (*LocalPrompt, error) {
	window := transcript.Window(turns, p.ContextTurns)
	window = append(window, transcript.Turn{Role: transcript.RoleUser, Content: message})

	prompt, err := renderLocalPrompt(window, p)
	if err != nil {
		return nil, err
	}

	return &LocalPrompt{
		Model:        p.Model,
		Prompt:       prompt,
		MaxNewTokens: p.MaxTokens,
		Temperature:  p.Temperature,
	}, nil
}
