package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
	ports "github.com/ZanzyTHEbar/vchat/vchat/generation/harness/ports"
	"github.com/ZanzyTHEbar/vchat/vchat/generation/models"
)

// LocalServerProvider sends flattened prompts to a llama.cpp-style server
// exposing an OpenAI-compatible /completions endpoint.
type LocalServerProvider struct {
	client openai.Client
}

func NewLocalServerProvider(serverURL string, httpClient *http.Client) (*LocalServerProvider, error) {
	if serverURL == "" {
		return nil, errors.New("local server url is required")
	}
	return &LocalServerProvider{client: newOpenAIClient(serverURL, "", httpClient)}, nil
}

func (p *LocalServerProvider) Kind() generation.Kind { return generation.KindLocal }

func (p *LocalServerProvider) Send(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	if req == nil || req.Local == nil {
		return nil, fmt.Errorf("local provider: request has no prompt")
	}

	payload, err := json.Marshal(req.Local)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var raw []byte
	if err := p.client.Post(ctx, "completions", json.RawMessage(payload), &raw); err != nil {
		return nil, transportError(err)
	}
	return &generation.Response{
		Kind:   generation.KindLocal,
		Format: generation.FormatJSON,
		Body:   raw,
		Prompt: req.Local.Prompt,
	}, nil
}

// LocalModelProvider runs the prompt through an in-process model.
type LocalModelProvider struct {
	gen models.TextGenerator
}

func NewLocalModelProvider(gen models.TextGenerator) *LocalModelProvider {
	return &LocalModelProvider{gen: gen}
}

func (p *LocalModelProvider) Kind() generation.Kind { return generation.KindLocal }

// Send returns the raw model output; the runner may echo the prompt.
func (p *LocalModelProvider) Send(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	if req == nil || req.Local == nil {
		return nil, fmt.Errorf("local provider: request has no prompt")
	}

	out, err := p.gen.Generate(ctx, req.Local.Prompt, req.Local.MaxNewTokens, req.Local.Temperature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransport, err)
	}
	return &generation.Response{
		Kind:   generation.KindLocal,
		Format: generation.FormatText,
		Body:   []byte(out),
		Prompt: req.Local.Prompt,
	}, nil
}

func (p *LocalModelProvider) Close() error { return p.gen.Close() }

var (
	_ ports.Provider = (*LocalServerProvider)(nil)
	_ ports.Provider = (*LocalModelProvider)(nil)
	_ ports.Closer   = (*LocalModelProvider)(nil)
)
