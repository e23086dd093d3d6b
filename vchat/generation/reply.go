package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Failure categories. Every failed exchange wraps exactly one of these.
var (
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
	ErrMissingField      = errors.New("missing reply field")
)

// Format tells ExtractReply how to read a response body.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// Response is a raw backend answer tagged with the kind that produced it.
type Response struct {
	Kind   Kind
	Format Format
	Body   []byte
	Prompt string // local only: the prompt the runner may echo back
}

// Reply is the text appended to the transcript for one exchange.
// Text is never empty; on failure it is a placeholder and Err is set.
type Reply struct {
	Text string
	Err  error
}

func (r Reply) Failed() bool { return r.Err != nil }

// ExtractReply pulls the generated text out of a backend response.
// It never panics and never returns an empty Text.
func ExtractReply(resp *Response) Reply {
	if resp == nil {
		return FailedReply("", fmt.Errorf("%w: no response", ErrMissingField))
	}

	text, err := extractText(resp)
	if err != nil {
		return FailedReply(resp.Kind, err)
	}
	if text == "" {
		return FailedReply(resp.Kind, fmt.Errorf("%w: reply text is empty", ErrMissingField))
	}
	return Reply{Text: text}
}

// FailedReply wraps err into a reply whose text is the matching placeholder.
func FailedReply(kind Kind, err error) Reply {
	return Reply{Text: Placeholder(kind, err), Err: err}
}

// Placeholder renders the user-visible text shown in place of a reply.
// Each failure category yields a distinct prefix.
func Placeholder(kind Kind, err error) string {
	name := kind.DisplayName()
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}

	switch {
	case errors.Is(err, ErrTransport):
		return fmt.Sprintf("Error connecting to %s: %s", name, detail)
	case errors.Is(err, ErrMalformedResponse):
		return fmt.Sprintf("Error decoding %s response: %s", name, detail)
	case errors.Is(err, ErrMissingField):
		return fmt.Sprintf("Unexpected %s response structure: %s", name, detail)
	default:
		return fmt.Sprintf("Error: %s request failed: %s", name, detail)
	}
}

// EnvelopeMessage returns the vendor error message carried by an error body,
// or "" when body has none.
func EnvelopeMessage(body []byte) string {
	for _, path := range []string{"error.message", "error", "message"} {
		if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

func extractText(resp *Response) (string, error) {
	switch resp.Kind {
	case KindHosted:
		var body hostedResponse
		if err := decodeChecked(resp.Body, hostedSchema, &body); err != nil {
			return "", err
		}
		return body.Candidates[0].Content.Parts[0].Text, nil

	case KindChat:
		var body chatResponse
		if err := decodeChecked(resp.Body, chatSchema, &body); err != nil {
			return "", err
		}
		return body.Choices[0].Message.Content, nil

	case KindLocal:
		if resp.Format == FormatText {
			return stripPrompt(string(resp.Body), resp.Prompt), nil
		}
		var body localResponse
		if err := decodeChecked(resp.Body, localSchema, &body); err != nil {
			return "", err
		}
		return stripPrompt(body.Choices[0].Text, resp.Prompt), nil

	default:
		return "", fmt.Errorf("%w: unsupported backend %q", ErrMissingField, resp.Kind)
	}
}

// decodeChecked parses body, validates it against schema and decodes it into dst.
func decodeChecked(body []byte, schema *gojsonschema.Schema, dst any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v (body: %q)", ErrMalformedResponse, err, snippet(body))
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrMissingField, describeInvalid(result, body))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func describeInvalid(result *gojsonschema.Result, body []byte) string {
	if msg := EnvelopeMessage(body); msg != "" {
		return "backend error: " + msg
	}
	parts := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}

// stripPrompt removes an echoed prompt from local output.
func stripPrompt(out, prompt string) string {
	if prompt != "" {
		out = strings.TrimPrefix(out, prompt)
	}
	return strings.TrimSpace(out)
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
