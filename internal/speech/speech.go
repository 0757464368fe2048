// Package speech turns interviewer questions into spoken audio.
package speech

import (
	"context"
	"errors"
)

// ErrSynthesis is returned whenever audio could not be produced.
var ErrSynthesis = errors.New("speech: synthesis failed")

// Synthesizer converts a full utterance into base64-encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Disabled is used when no speech provider is configured. Every call fails,
// which downgrades responses to text-only.
type Disabled struct{}

// Synthesize always returns ErrSynthesis.
func (Disabled) Synthesize(context.Context, string) (string, error) {
	return "", ErrSynthesis
}
