package reasoning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/media"
)

// SystemInstruction primes the model as the interviewer.
const SystemInstruction = "You are an expert Technical Interviewer. You are watching a student present a project. " +
	"Analyze the screen (code, UI, architecture) and their speech. " +
	"Ask one sharp, concise follow-up question. " +
	"When asked to 'EVALUATE', output ONLY a JSON object with scores (0-100) for " +
	"'tech', 'clarity', 'originality', and a string for 'feedback'."

const (
	askSuffix       = "Ask the next technical question."
	evaluatePrompt  = "EVALUATE the student's performance now. Return ONLY JSON."
	omittedCapture  = "[earlier screen capture omitted]"
	emptyTranscript = "(no turns were recorded)"

	// DefaultImageWindow is how many recent screen captures are resent.
	DefaultImageWindow = 3
)

// Session is one interview conversation with the model. The transcript is
// owned by the caller; Session only appends to it after a successful ask.
type Session struct {
	model       Model
	transcript  *domain.Transcript
	imageWindow int
}

// NewSession binds a model to a transcript. imageWindow <= 0 uses the default.
func NewSession(model Model, transcript *domain.Transcript, imageWindow int) *Session {
	if imageWindow <= 0 {
		imageWindow = DefaultImageWindow
	}
	if transcript == nil {
		transcript = domain.NewTranscript()
	}
	return &Session{model: model, transcript: transcript, imageWindow: imageWindow}
}

// Transcript returns the log this session appends to.
func (s *Session) Transcript() *domain.Transcript {
	return s.transcript
}

// Ask sends the student's speech and screen to the model and returns the
// next question. The transcript is only advanced when a question comes back.
func (s *Session) Ask(ctx context.Context, img *media.Image, text string) (string, error) {
	var frame *domain.Frame
	if img != nil {
		data, mime, err := img.Payload()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrReasoning, err)
		}
		frame = &domain.Frame{MIMEType: mime, Data: data}
	}

	student := domain.Turn{Role: domain.RoleStudent, Text: text, Image: frame}
	history := append(s.transcript.Turns(), student)

	reply, err := s.model.Generate(ctx, GenerateRequest{
		System:   SystemInstruction,
		Messages: s.conversation(history),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReasoning, err)
	}
	question := strings.TrimSpace(reply)
	if question == "" {
		return "", fmt.Errorf("%w: empty response", ErrReasoning)
	}

	now := time.Now().UTC()
	student.At = now
	s.transcript.Append(student, domain.Turn{Role: domain.RoleInterviewer, Text: question, At: now})
	return question, nil
}

// Grade asks the model for a scorecard over the whole transcript. On
// ErrGrading the returned scorecard is the default one and is safe to use.
func (s *Session) Grade(ctx context.Context) (domain.Scorecard, error) {
	reply, err := s.model.Generate(ctx, GenerateRequest{
		System: SystemInstruction,
		Messages: []Message{{
			Speaker: SpeakerUser,
			Parts: []Part{
				{Text: RenderTranscript(s.transcript.Turns())},
				{Text: evaluatePrompt},
			},
		}},
		JSON: true,
	})
	if err != nil {
		return domain.DefaultScorecard(), fmt.Errorf("%w: %v", ErrGrading, err)
	}
	return ParseScorecard(reply)
}

// conversation maps transcript turns to model messages. Only the last
// imageWindow screen captures are sent as images.
func (s *Session) conversation(turns []domain.Turn) []Message {
	keepFrom := len(turns)
	seen := 0
	for i := len(turns) - 1; i >= 0 && seen < s.imageWindow; i-- {
		if turns[i].Image != nil {
			keepFrom = i
			seen++
		}
	}

	msgs := make([]Message, 0, len(turns))
	for i, turn := range turns {
		if turn.Role == domain.RoleInterviewer {
			msgs = append(msgs, Message{Speaker: SpeakerModel, Parts: []Part{{Text: turn.Text}}})
			continue
		}
		parts := []Part{{Text: "Student says: " + turn.Text}}
		if turn.Image != nil {
			if i >= keepFrom {
				parts = append(parts, Part{ImageData: turn.Image.Data, ImageMIME: turn.Image.MIMEType})
			} else {
				parts = append(parts, Part{Text: omittedCapture})
			}
		}
		parts = append(parts, Part{Text: askSuffix})
		msgs = append(msgs, Message{Speaker: SpeakerUser, Parts: parts})
	}
	return msgs
}

// RenderTranscript formats turns as plain text for grading.
func RenderTranscript(turns []domain.Turn) string {
	if len(turns) == 0 {
		return emptyTranscript
	}
	var b strings.Builder
	for _, turn := range turns {
		switch turn.Role {
		case domain.RoleInterviewer:
			b.WriteString("Interviewer: ")
		default:
			b.WriteString("Student: ")
		}
		b.WriteString(turn.Text)
		if turn.Image != nil {
			b.WriteString(" [screen capture shown]")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
