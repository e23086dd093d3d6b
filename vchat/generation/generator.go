package generation

import (
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
)

// Kind selects which backend wire shape a request is built for.
type Kind string

const (
	KindHosted Kind = "hosted" // hosted generative-text API (contents/parts envelope)
	KindChat   Kind = "chat"   // OpenAI-compatible chat completions
	KindLocal  Kind = "local"  // locally loaded quantized model, flattened prompt
)

// ParseKind validates a backend name from configuration or flags.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindHosted, KindChat, KindLocal:
		return k, nil
	default:
		return "", fmt.Errorf("unknown backend kind %q (want hosted, chat or local)", s)
	}
}

// DisplayName is used in placeholder replies and logs.
func (k Kind) DisplayName() string {
	switch k {
	case KindHosted:
		return "hosted generative-text API"
	case KindChat:
		return "chat-completion API"
	case KindLocal:
		return "local model"
	default:
		return "backend"
	}
}

// Params holds the generation settings applied to every request of a session.
type Params struct {
	Model       string  // model identifier (chat and local server)
	Temperature float64 // sampling temperature
	MaxTokens   int     // maximum output tokens

	ModelRole string // hosted label for assistant turns, e.g. "model"

	ContextTurns   int    // local: number of prior turns replayed (K)
	UserLabel      string // local: label for user turns
	AssistantLabel string // local: label for assistant turns and the open cue
	PromptTemplate string // local: optional text/template overriding the flattened format
}

// Validate checks the params against the limits of the given backend.
func (p Params) Validate(kind Kind) error {
	maxTemp := 2.0
	if kind == KindHosted {
		maxTemp = 1.0
	}
	if p.Temperature < 0 || p.Temperature > maxTemp {
		return fmt.Errorf("temperature must be between 0 and %.0f, got %g", maxTemp, p.Temperature)
	}
	if p.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", p.MaxTokens)
	}

	switch kind {
	case KindHosted:
		if p.ModelRole == "" {
			return fmt.Errorf("hosted backend requires a model role label")
		}
	case KindChat:
		if p.Model == "" {
			return fmt.Errorf("chat backend requires a model identifier")
		}
	case KindLocal:
		if p.ContextTurns <= 0 {
			return fmt.Errorf("context turns must be positive, got %d", p.ContextTurns)
		}
		if p.UserLabel == "" || p.AssistantLabel == "" {
			return fmt.Errorf("local backend requires user and assistant labels")
		}
	default:
		return fmt.Errorf("unknown backend kind %q", kind)
	}
	return nil
}

// Request is the backend-shaped payload produced by BuildRequest.
// Exactly one of Hosted, Chat or Local is set, matching Kind.
type Request struct {
	Kind   Kind
	Hosted *HostedRequest
	Chat   *openai.ChatCompletionNewParams
	Local  *LocalPrompt
}

// HostedRequest is the generateContent request envelope.
type HostedRequest struct {
	Contents         []HostedContent        `json:"contents"`
	GenerationConfig HostedGenerationConfig `json:"generationConfig"`
}

type HostedContent struct {
	Role  string       `json:"role"`
	Parts []HostedPart `json:"parts"`
}

type HostedPart struct {
	Text string `json:"text"`
}

type HostedGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// LocalPrompt is a flattened transcript the local model completes from.
type LocalPrompt struct {
	Model        string  `json:"model,omitempty"`
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
}
