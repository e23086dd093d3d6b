package transcript

import "time"

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. Turns are never edited after creation.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn stamps a turn with the current time.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, CreatedAt: time.Now()}
}

// Transcript is the append-only, chronologically ordered history of one session.
// It is not safe for concurrent use; the owning session serializes access.
type Transcript struct {
	turns []Turn
}

func New() *Transcript {
	return &Transcript{}
}

// Append adds turns in the order given.
func (t *Transcript) Append(turns ...Turn) {
	t.turns = append(t.turns, turns...)
}

// Len returns the number of turns recorded so far.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the full history, oldest first.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Last returns a copy of the most recent k turns, oldest first.
// A non-positive k returns the whole history.
func (t *Transcript) Last(k int) []Turn {
	return Window(t.turns, k)
}

// Window returns a copy of the trailing k entries of turns.
func Window(turns []Turn, k int) []Turn {
	if k <= 0 || k >= len(turns) {
		k = len(turns)
	}
	out := make([]Turn, k)
	copy(out, turns[len(turns)-k:])
	return out
}
