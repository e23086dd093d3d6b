package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
	"github.com/ZanzyTHEbar/vchat/vchat/transcript"
)

func build(t *testing.T, kind generation.Kind) *generation.Request {
	t.Helper()
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Content: "A"},
		{Role: transcript.RoleAssistant, Content: "B"},
	}
	req, err := generation.BuildRequest(turns, "C", kind, generation.DefaultParams(kind))
	require.NoError(t, err)
	return req
}

func TestHostedProvider_Send(t *testing.T) {
	var gotKey string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}`))
	}))
	defer srv.Close()

	p, err := NewHostedProvider(srv.Client(), srv.URL+"/v1beta/models/m:generateContent", "secret")
	require.NoError(t, err)

	resp, err := p.Send(context.Background(), build(t, generation.KindHosted))
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "model", gjson.GetBytes(gotBody, "contents.1.role").String())
	assert.Equal(t, int64(300), gjson.GetBytes(gotBody, "generationConfig.maxOutputTokens").Int())
	assert.Equal(t, "hi", generation.ExtractReply(resp).Text)
}

func TestHostedProvider_NonSuccessIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	p, err := NewHostedProvider(srv.Client(), srv.URL, "bad")
	require.NoError(t, err)

	_, err = p.Send(context.Background(), build(t, generation.KindHosted))
	require.ErrorIs(t, err, generation.ErrTransport)
	assert.Contains(t, err.Error(), "API key not valid")
	assert.Contains(t, err.Error(), "400")
}

func TestHostedProvider_UnreachableRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	p, err := NewHostedProvider(nil, endpoint, "topsecret")
	require.NoError(t, err)

	_, err = p.Send(context.Background(), build(t, generation.KindHosted))
	require.ErrorIs(t, err, generation.ErrTransport)
	assert.NotContains(t, err.Error(), "topsecret")
}

func TestRedact(t *testing.T) {
	secret := "ab+c/d="
	msg := `Post "https://example.com/v1?key=` + url.QueryEscape(secret) + `": dial tcp: refused (` + secret + `)`

	out := redact(msg, secret)
	assert.NotContains(t, out, secret)
	assert.NotContains(t, out, url.QueryEscape(secret))
	assert.Contains(t, out, "key=***")
	assert.Equal(t, "nothing here", redact("nothing here", ""))
}

func TestHostedProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p, err := NewHostedProvider(srv.Client(), srv.URL, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = p.Send(ctx, build(t, generation.KindHosted))
	assert.ErrorIs(t, err, generation.ErrTransport)
}

func TestHostedProvider_RejectsBadEndpoint(t *testing.T) {
	_, err := NewHostedProvider(nil, "not a url", "")
	assert.Error(t, err)
}

func TestChatProvider_Send(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	p, err := NewChatProvider(srv.URL+"/api/v1/", "sk-test", srv.Client())
	require.NoError(t, err)

	resp, err := p.Send(context.Background(), build(t, generation.KindChat))
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "/api/v1/chat/completions", gotPath)
	assert.Equal(t, generation.DefaultChatModel, gjson.GetBytes(gotBody, "model").String())
	assert.Equal(t, "assistant", gjson.GetBytes(gotBody, "messages.1.role").String())
	assert.Equal(t, "hello", generation.ExtractReply(resp).Text)
}

func TestChatProvider_ErrorEnvelope(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"No auth credentials found","code":401}}`))
	}))
	defer srv.Close()

	p, err := NewChatProvider(srv.URL+"/", "sk-bad", srv.Client())
	require.NoError(t, err)

	_, err = p.Send(context.Background(), build(t, generation.KindChat))
	require.ErrorIs(t, err, generation.ErrTransport)
	assert.Contains(t, err.Error(), "No auth credentials found")
	assert.Equal(t, 1, calls, "no retries")
}

func TestChatProvider_RequiresKey(t *testing.T) {
	_, err := NewChatProvider("", "", nil)
	assert.Error(t, err)
}

func TestLocalServerProvider_Send(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"text":" I am fine. "}]}`))
	}))
	defer srv.Close()

	p, err := NewLocalServerProvider(srv.URL+"/v1/", srv.Client())
	require.NoError(t, err)

	resp, err := p.Send(context.Background(), build(t, generation.KindLocal))
	require.NoError(t, err)

	assert.Equal(t, "/v1/completions", gotPath)
	assert.Equal(t, "User: A\nBot: B\nUser: C\nBot:", gjson.GetBytes(gotBody, "prompt").String())
	assert.Equal(t, int64(300), gjson.GetBytes(gotBody, "max_tokens").Int())
	assert.Equal(t, "I am fine.", generation.ExtractReply(resp).Text)
}

type fakeGenerator struct {
	out    string
	err    error
	prompt string
	closed bool
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func (f *fakeGenerator) Close() error {
	f.closed = true
	return nil
}

func TestLocalModelProvider_StripsEcho(t *testing.T) {
	req := build(t, generation.KindLocal)
	gen := &fakeGenerator{out: req.Local.Prompt + " Sure.\n"}
	p := NewLocalModelProvider(gen)

	resp, err := p.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.Local.Prompt, gen.prompt)
	assert.Equal(t, "Sure.", generation.ExtractReply(resp).Text)

	require.NoError(t, p.Close())
	assert.True(t, gen.closed)
}

func TestLocalModelProvider_ErrorIsTransport(t *testing.T) {
	p := NewLocalModelProvider(&fakeGenerator{err: errors.New("out of memory")})
	_, err := p.Send(context.Background(), build(t, generation.KindLocal))
	assert.ErrorIs(t, err, generation.ErrTransport)
}

func TestProviders_RejectMismatchedRequest(t *testing.T) {
	hosted, err := NewHostedProvider(nil, "http://localhost", "")
	require.NoError(t, err)
	_, err = hosted.Send(context.Background(), build(t, generation.KindChat))
	assert.Error(t, err)

	local := NewLocalModelProvider(&fakeGenerator{})
	_, err = local.Send(context.Background(), build(t, generation.KindHosted))
	assert.Error(t, err)
}

func TestKeyedLimiter(t *testing.T) {
	l := NewKeyedLimiter(1, 1)

	release, err := l.Acquire(context.Background(), "hosted")
	require.NoError(t, err)
	release()

	// The bucket is empty; a short deadline cannot be met.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "hosted")
	assert.Error(t, err)

	// Keys have separate buckets.
	_, err = l.Acquire(context.Background(), "chat")
	assert.NoError(t, err)
}

func TestZerologTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf).Level(zerolog.DebugLevel))

	ctx, finish := tracer.StartSpan(context.Background(), "exchange", map[string]any{"backend": "chat"})
	tracer.Event(ctx, "request_built", map[string]any{"turns": 2})
	finish(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"span":"exchange"`)
	assert.Contains(t, out, `"event":"request_built"`)
	assert.Contains(t, out, `"backend":"chat"`)
	assert.Contains(t, out, `"error":"boom"`)
}
