package harness

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/panics"

	"github.com/ZanzyTHEbar/vchat/vchat/generation"
	"github.com/ZanzyTHEbar/vchat/vchat/generation/harness/adapters"
	ports "github.com/ZanzyTHEbar/vchat/vchat/generation/harness/ports"
	"github.com/ZanzyTHEbar/vchat/vchat/transcript"
)

// DefaultTimeout bounds one backend round trip.
const DefaultTimeout = 60 * time.Second

// State is the session's position in the submit cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingReply
)

func (s State) String() string {
	if s == StateAwaitingReply {
		return "awaiting_reply"
	}
	return "idle"
}

// Exchange is the pair of turns appended by one accepted submit.
type Exchange struct {
	User      transcript.Turn
	Assistant transcript.Turn
	Err       error // non-nil when Assistant holds a placeholder
	Duration  time.Duration
}

// Options configures a Session. Zero values get no-op collaborators.
type Options struct {
	Params  generation.Params
	Timeout time.Duration
	Limiter ports.RateLimiter
	Tracer  ports.Tracer
	Metrics *Metrics
	Logger  zerolog.Logger
}

// Session owns one conversation: its transcript, its backend and the
// Idle/AwaitingReply cycle. At most one exchange is in flight; a submit
// arriving while one is pending is ignored.
type Session struct {
	id       string
	provider ports.Provider
	limiter  ports.RateLimiter
	tracer   ports.Tracer
	metrics  *Metrics
	logger   zerolog.Logger
	timeout  time.Duration

	mu     sync.Mutex
	state  State
	params generation.Params
	log    *transcript.Transcript
}

func NewSession(provider ports.Provider, opts Options) (*Session, error) {
	if provider == nil {
		return nil, fmt.Errorf("session requires a provider")
	}
	if err := opts.Params.Validate(provider.Kind()); err != nil {
		return nil, fmt.Errorf("invalid generation params: %w", err)
	}

	s := &Session{
		id:       uuid.NewString(),
		provider: provider,
		limiter:  opts.Limiter,
		tracer:   opts.Tracer,
		metrics:  opts.Metrics,
		timeout:  opts.Timeout,
		params:   opts.Params,
		log:      transcript.New(),
	}
	if s.limiter == nil {
		s.limiter = noOpRateLimiter{}
	}
	if s.tracer == nil {
		s.tracer = adapters.NopTracer{}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	s.logger = opts.Logger.With().
		Str("session", s.id).
		Str("backend", string(provider.Kind())).
		Logger()

	return s, nil
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Kind() generation.Kind { return s.provider.Kind() }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the transcript, oldest first.
func (s *Session) Turns() []transcript.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Turns()
}

// SetParams replaces the generation params used by later submits.
func (s *Session) SetParams(p generation.Params) error {
	if err := p.Validate(s.provider.Kind()); err != nil {
		return err
	}
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
	s.logger.Info().Float64("temperature", p.Temperature).Int("max_tokens", p.MaxTokens).Msg("generation params updated")
	return nil
}

// Submit runs one exchange with the trimmed message. It returns false
// without touching the transcript or the backend when message is blank or
// another exchange is pending. Otherwise it blocks until the backend answers, fails or times
// out, then appends the user turn and the reply (or a placeholder).
func (s *Session) Submit(ctx context.Context, message string) (Exchange, bool) {
	message = strings.TrimSpace(message)
	if message == "" {
		s.metrics.reject("empty")
		return Exchange{}, false
	}

	s.mu.Lock()
	if s.state == StateAwaitingReply {
		s.mu.Unlock()
		s.metrics.reject("busy")
		s.logger.Debug().Msg("submit ignored while awaiting reply")
		return Exchange{}, false
	}
	s.state = StateAwaitingReply
	history := s.log.Turns()
	params := s.params
	s.mu.Unlock()

	start := time.Now()
	user := transcript.NewTurn(transcript.RoleUser, message)
	reply := s.exchange(ctx, history, message, params)
	assistant := transcript.NewTurn(transcript.RoleAssistant, reply.Text)
	elapsed := time.Since(start)

	s.mu.Lock()
	s.log.Append(user, assistant)
	s.state = StateIdle
	s.mu.Unlock()

	s.metrics.observe(s.Kind(), reply.Err, elapsed)
	if reply.Err != nil {
		s.logger.Warn().Err(reply.Err).Str("outcome", Outcome(reply.Err)).Dur("duration", elapsed).Msg("exchange failed")
	} else {
		s.logger.Info().Dur("duration", elapsed).Int("reply_length", len(reply.Text)).Msg("exchange completed")
	}

	return Exchange{User: user, Assistant: assistant, Err: reply.Err, Duration: elapsed}, true
}

// exchange never panics; a panic inside the round trip becomes a placeholder.
func (s *Session) exchange(ctx context.Context, history []transcript.Turn, message string, params generation.Params) (reply generation.Reply) {
	var pc panics.Catcher
	pc.Try(func() {
		reply = s.roundTrip(ctx, history, message, params)
	})
	if r := pc.Recovered(); r != nil {
		s.logger.Error().Str("stack", string(r.Stack)).Interface("panic", r.Value).Msg("exchange panicked")
		reply = generation.FailedReply(s.Kind(), fmt.Errorf("%w: %v", generation.ErrTransport, r.AsError()))
	}
	return reply
}

func (s *Session) roundTrip(ctx context.Context, history []transcript.Turn, message string, params generation.Params) generation.Reply {
	kind := s.Kind()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, finish := s.tracer.StartSpan(ctx, "exchange", map[string]any{
		"session": s.id,
		"backend": string(kind),
		"turns":   len(history),
	})

	req, err := generation.BuildRequest(history, message, kind, params)
	if err != nil {
		finish(err)
		return generation.FailedReply(kind, err)
	}

	release, err := s.limiter.Acquire(ctx, string(kind))
	if err != nil {
		err = fmt.Errorf("%w: %v", generation.ErrTransport, err)
		finish(err)
		return generation.FailedReply(kind, err)
	}
	defer release()

	s.tracer.Event(ctx, "request_sent", nil)
	resp, err := s.provider.Send(ctx, req)
	if err != nil {
		finish(err)
		return generation.FailedReply(kind, err)
	}

	reply := generation.ExtractReply(resp)
	finish(reply.Err)
	return reply
}

// Close releases provider resources such as loaded model weights.
func (s *Session) Close() error {
	if c, ok := s.provider.(ports.Closer); ok {
		return c.Close()
	}
	return nil
}

type noOpRateLimiter struct{}

func (noOpRateLimiter) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

var _ ports.RateLimiter = noOpRateLimiter{}
