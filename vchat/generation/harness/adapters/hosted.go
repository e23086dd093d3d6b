package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
	ports "github.com/ZanzyTHEbar/vchat/vchat/generation/harness/ports"
)

// maxResponseBytes caps how much of a backend body is read into memory.
const maxResponseBytes = 4 << 20

// HostedProvider posts generateContent requests to a hosted generative-text API.
type HostedProvider struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewHostedProvider builds a provider for endpoint. A nil client uses
// http.DefaultClient; deadlines come from the request context.
func NewHostedProvider(client *http.Client, endpoint, apiKey string) (*HostedProvider, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid hosted endpoint %q: %w", endpoint, err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HostedProvider{client: client, endpoint: endpoint, apiKey: apiKey}, nil
}

func (p *HostedProvider) Kind() generation.Kind { return generation.KindHosted }

// Send posts req.Hosted and returns the 2xx body untouched.
func (p *HostedProvider) Send(ctx context.Context, req *generation.Request) (*generation.Response, error) {
	if req == nil || req.Hosted == nil {
		return nil, fmt.Errorf("hosted provider: request has no hosted payload")
	}

	payload, err := json.Marshal(req.Hosted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	target, err := p.url()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", generation.ErrTransport, redact(err.Error(), p.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", generation.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}

	return &generation.Response{Kind: generation.KindHosted, Format: generation.FormatJSON, Body: body}, nil
}

func (p *HostedProvider) url() (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid hosted endpoint: %w", err)
	}
	if p.apiKey != "" {
		q := u.Query()
		q.Set("key", p.apiKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// statusError turns a non-2xx answer into a transport error quoting the
// vendor message when the body carries one.
func statusError(code int, body []byte) error {
	if msg := generation.EnvelopeMessage(body); msg != "" {
		return fmt.Errorf("%w: HTTP %d: %s", generation.ErrTransport, code, msg)
	}
	return fmt.Errorf("%w: HTTP %d %s", generation.ErrTransport, code, http.StatusText(code))
}

var _ ports.Provider = (*HostedProvider)(nil)
