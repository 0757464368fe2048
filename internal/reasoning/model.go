// Package reasoning talks to the multimodal model that interviews the student.
package reasoning

import (
	"context"
	"errors"
)

var (
	// ErrReasoning is returned when the model could not produce a question.
	ErrReasoning = errors.New("reasoning: ask failed")
	// ErrGrading is returned when the model output is not a usable scorecard.
	ErrGrading = errors.New("reasoning: grading failed")
)

// Part is one piece of a message: text or an inline image.
type Part struct {
	Text      string
	ImageData []byte
	ImageMIME string
}

// IsImage reports whether the part carries image bytes.
func (p Part) IsImage() bool {
	return len(p.ImageData) > 0
}

// Speaker is the author of a message sent to the model.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerModel Speaker = "model"
)

// Message is one conversational message in model terms.
type Message struct {
	Speaker Speaker
	Parts   []Part
}

// Model is the reasoning collaborator: given a system instruction and the
// conversation so far it returns the next reply text.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest is a single call to the model.
type GenerateRequest struct {
	System   string
	Messages []Message
	// JSON asks the model for a JSON response body where supported.
	JSON bool
}

// ModelLister enumerates model identifiers the account can use.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Unavailable is used when no model credentials are configured. Every turn
// then falls back and grading yields the default scorecard.
type Unavailable struct{}

// Generate always fails.
func (Unavailable) Generate(context.Context, GenerateRequest) (string, error) {
	return "", errors.New("no reasoning model configured")
}
