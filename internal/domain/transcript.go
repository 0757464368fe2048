package domain

import "time"

// Role identifies who contributed a turn.
type Role string

const (
	// RoleStudent marks speech and screen captures sent by the candidate.
	RoleStudent Role = "student"
	// RoleInterviewer marks questions produced by the reasoning model.
	RoleInterviewer Role = "interviewer"
)

// Frame is an encoded screen capture attached to a student turn.
type Frame struct {
	MIMEType string
	Data     []byte
}

// Turn is a single entry of the interview transcript.
type Turn struct {
	Role  Role
	Text  string
	Image *Frame
	At    time.Time
}

// Transcript is the ordered, append-only conversation log of one session.
// It is owned by a single session goroutine and is not safe for concurrent use.
type Transcript struct {
	turns []Turn
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds turns in order, stamping any zero timestamps.
func (t *Transcript) Append(turns ...Turn) {
	now := time.Now().UTC()
	for _, turn := range turns {
		if turn.At.IsZero() {
			turn.At = now
		}
		t.turns = append(t.turns, turn)
	}
}

// Turns returns a copy of the recorded turns.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}
