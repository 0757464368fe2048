package interview

import (
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/reasoning"
)

// Session is the per-connection interview record. It is owned by the
// goroutine serving the connection.
type Session struct {
	ID        string
	StartedAt time.Time

	state      State
	transcript *domain.Transcript
	reasoner   *reasoning.Session
	turns      int
	fallbacks  int
}

func newSession(model reasoning.Model, imageWindow int) *Session {
	transcript := domain.NewTranscript()
	return &Session{
		ID:         uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		state:      StateOpen,
		transcript: transcript,
		reasoner:   reasoning.NewSession(model, transcript, imageWindow),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Transcript returns the ordered conversation log.
func (s *Session) Transcript() []domain.Turn {
	return s.transcript.Turns()
}

func (s *Session) fire(event Event) error {
	next, err := Transition(s.state, event)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// release drops the reasoning session once the connection is gone.
func (s *Session) release() {
	s.reasoner = nil
}
