package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
	ports "github.com/ZanzyTHEbar/vchat/vchat/generation/harness/ports"
)

// ChatProvider talks to an OpenAI-compatible chat-completion endpoint.
// The raw body is returned so reply extraction stays in one place.
type ChatProvider struct {
	client openai.Client
}

func NewChatProvider(baseURL, apiKey string, httpClient *http.Client) (*ChatProvider, error) {
	if apiKey == "" {
		return nil, errors.New("chat api key missing; provide chat.api_key or OPENROUTER_API_KEY")
	}
	return &ChatProvider{client: newOpenAIClient(baseURL, apiKey, httpClient)}, nil
}

func (p *ChatProvider) Kind() generation.Kind { return generation.KindChat }

func (p *ChatProvider) Send(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	if req == nil || req.Chat == nil {
		return nil, fmt.Errorf("chat provider: request has no chat payload")
	}

	var raw []byte
	if err := p.client.Post(ctx, "chat/completions", req.Chat, &raw); err != nil {
		return nil, transportError(err)
	}
	return &generation.Response{Kind: generation.KindChat, Format: generation.FormatJSON, Body: raw}, nil
}

// newOpenAIClient builds a client with retries disabled; a failed call is a
// single attempt.
func newOpenAIClient(baseURL, apiKey string, httpClient *http.Client) openai.Client {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return openai.NewClient(opts...)
}

// transportError classifies an openai-go failure as ErrTransport, keeping
// the vendor message for non-2xx answers.
func transportError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = generation.EnvelopeMessage([]byte(apiErr.RawJSON()))
		}
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return fmt.Errorf("%w: HTTP %d: %s", generation.ErrTransport, apiErr.StatusCode, msg)
	}
	return fmt.Errorf("%w: %v", generation.ErrTransport, err)
}

var _ ports.Provider = (*ChatProvider)(nil)
