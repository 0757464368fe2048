package reasoning

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/media"
)

type fakeModel struct {
	replies  []string
	err      error
	requests []GenerateRequest
}

func (f *fakeModel) Generate(_ context.Context, req GenerateRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeLister struct {
	models []string
	err    error
}

func (f fakeLister) ListModels(context.Context) ([]string, error) {
	return f.models, f.err
}

func testImage(t *testing.T) *media.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	img, err := media.Decode("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
	require.NoError(t, err)
	return img
}

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name   string
		lister fakeLister
		want   string
	}{
		{
			name:   "first preference wins",
			lister: fakeLister{models: []string{"models/gemini-1.5-flash", "models/gemini-3-flash-preview"}},
			want:   "models/gemini-3-flash-preview",
		},
		{
			name:   "falls through preference order",
			lister: fakeLister{models: []string{"models/embedding-001", "models/gemini-2.5-flash"}},
			want:   "models/gemini-2.5-flash",
		},
		{
			name:   "no known model",
			lister: fakeLister{models: []string{"models/embedding-001"}},
			want:   FallbackModel,
		},
		{
			name:   "probe error",
			lister: fakeLister{err: errors.New("no connectivity")},
			want:   FallbackModel,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectModel(context.Background(), tc.lister, PreferredModels, FallbackModel, nil)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseScorecard(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.Scorecard
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"tech": 72, "clarity": 80, "originality": 65, "feedback": "Solid fundamentals."}`,
			want: domain.Scorecard{Tech: 72, Clarity: 80, Originality: 65, Feedback: "Solid fundamentals."},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"tech\": 90, \"clarity\": 70, \"originality\": 50, \"feedback\": \"Good.\"}\n```",
			want: domain.Scorecard{Tech: 90, Clarity: 70, Originality: 50, Feedback: "Good."},
		},
		{
			name: "missing tech and feedback",
			raw:  `{"clarity": 40, "originality": 30}`,
			want: domain.Scorecard{Tech: 0, Clarity: 40, Originality: 30, Feedback: "N/A"},
		},
		{
			name: "non numeric clarity",
			raw:  `{"tech": 50, "clarity": "excellent", "originality": 20, "feedback": "ok"}`,
			want: domain.Scorecard{Tech: 50, Clarity: 0, Originality: 20, Feedback: "ok"},
		},
		{
			name: "out of range and fractional",
			raw:  `{"tech": 150, "clarity": -20, "originality": 64.6, "feedback": "x"}`,
			want: domain.Scorecard{Tech: 100, Clarity: 0, Originality: 65, Feedback: "x"},
		},
		{
			name: "numeric strings",
			raw:  `{"tech": "75", "clarity": "80%", "originality": null, "feedback": 12}`,
			want: domain.Scorecard{Tech: 75, Clarity: 80, Originality: 0, Feedback: "N/A"},
		},
		{
			name: "prose around object",
			raw:  "Here is the result: {\"tech\": 10, \"clarity\": 20, \"originality\": 30, \"feedback\": \"f\"} Thanks!",
			want: domain.Scorecard{Tech: 10, Clarity: 20, Originality: 30, Feedback: "f"},
		},
		{
			name:    "not json",
			raw:     "I cannot grade this.",
			want:    domain.DefaultScorecard(),
			wantErr: true,
		},
		{
			name:    "json array",
			raw:     "[1, 2, 3]",
			want:    domain.DefaultScorecard(),
			wantErr: true,
		},
		{
			name:    "null",
			raw:     "null",
			want:    domain.DefaultScorecard(),
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseScorecard(tc.raw)
			require.Equal(t, tc.want, got)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrGrading)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAskAppendsBothTurnsOnSuccess(t *testing.T) {
	model := &fakeModel{replies: []string{"  Why did you pick JWT?  ", "How is it stored?"}}
	transcript := domain.NewTranscript()
	sess := NewSession(model, transcript, 0)

	q, err := sess.Ask(context.Background(), testImage(t), "This is my login page")
	require.NoError(t, err)
	require.Equal(t, "Why did you pick JWT?", q)

	turns := transcript.Turns()
	require.Len(t, turns, 2)
	require.Equal(t, domain.RoleStudent, turns[0].Role)
	require.Equal(t, "This is my login page", turns[0].Text)
	require.NotNil(t, turns[0].Image)
	require.Equal(t, "image/png", turns[0].Image.MIMEType)
	require.Equal(t, domain.RoleInterviewer, turns[1].Role)
	require.Equal(t, "Why did you pick JWT?", turns[1].Text)

	req := model.requests[0]
	require.Equal(t, SystemInstruction, req.System)
	require.Len(t, req.Messages, 1)
	parts := req.Messages[0].Parts
	require.Equal(t, "Student says: This is my login page", parts[0].Text)
	require.True(t, parts[1].IsImage())
	require.Equal(t, askSuffix, parts[2].Text)

	_, err = sess.Ask(context.Background(), nil, "It goes in a cookie")
	require.NoError(t, err)
	require.Equal(t, 4, transcript.Len())
	require.Len(t, model.requests[1].Messages, 3)
	require.Equal(t, SpeakerModel, model.requests[1].Messages[1].Speaker)
}

func TestAskFailureLeavesTranscriptUntouched(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
	}{
		{name: "upstream error", model: &fakeModel{err: errors.New("deadline exceeded")}},
		{name: "empty reply", model: &fakeModel{replies: []string{"   "}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transcript := domain.NewTranscript()
			sess := NewSession(tc.model, transcript, 0)

			q, err := sess.Ask(context.Background(), testImage(t), "hello")
			require.ErrorIs(t, err, ErrReasoning)
			require.Empty(t, q)
			require.Zero(t, transcript.Len())
		})
	}
}

func TestConversationLimitsImageWindow(t *testing.T) {
	frame := &domain.Frame{MIMEType: "image/png", Data: []byte{1}}
	turns := []domain.Turn{
		{Role: domain.RoleStudent, Text: "one", Image: frame},
		{Role: domain.RoleInterviewer, Text: "q1"},
		{Role: domain.RoleStudent, Text: "two", Image: frame},
		{Role: domain.RoleInterviewer, Text: "q2"},
		{Role: domain.RoleStudent, Text: "three", Image: frame},
	}
	sess := NewSession(&fakeModel{}, nil, 2)

	msgs := sess.conversation(turns)
	require.Len(t, msgs, 5)
	require.Equal(t, omittedCapture, msgs[0].Parts[1].Text)
	require.True(t, msgs[2].Parts[1].IsImage())
	require.True(t, msgs[4].Parts[1].IsImage())
}

func TestGradeUsesRenderedTranscript(t *testing.T) {
	model := &fakeModel{replies: []string{"Why JWT?", "```json\n{\"tech\":72,\"clarity\":80,\"originality\":65,\"feedback\":\"Solid fundamentals.\"}\n```"}}
	sess := NewSession(model, nil, 0)

	_, err := sess.Ask(context.Background(), testImage(t), "This is my login page")
	require.NoError(t, err)

	card, err := sess.Grade(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.Scorecard{Tech: 72, Clarity: 80, Originality: 65, Feedback: "Solid fundamentals."}, card)

	req := model.requests[1]
	require.True(t, req.JSON)
	require.Len(t, req.Messages, 1)
	rendered := req.Messages[0].Parts[0].Text
	require.Contains(t, rendered, "Student: This is my login page [screen capture shown]")
	require.Contains(t, rendered, "Interviewer: Why JWT?")
	require.Equal(t, evaluatePrompt, req.Messages[0].Parts[1].Text)
}

func TestGradeFailuresReturnDefaultScorecard(t *testing.T) {
	for _, model := range []*fakeModel{
		{err: errors.New("upstream 500")},
		{replies: []string{"not json at all"}},
	} {
		card, err := NewSession(model, nil, 0).Grade(context.Background())
		require.ErrorIs(t, err, ErrGrading)
		require.Equal(t, domain.DefaultScorecard(), card)
	}
}

func TestRenderTranscriptEmpty(t *testing.T) {
	require.Equal(t, emptyTranscript, RenderTranscript(nil))
	require.False(t, strings.HasSuffix(RenderTranscript([]domain.Turn{{Role: domain.RoleStudent, Text: "hi"}}), "\n"))
}

func TestToContentsMapsRolesAndImages(t *testing.T) {
	contents := toContents([]Message{
		{Speaker: SpeakerUser, Parts: []Part{{Text: "Student says: hi"}, {ImageData: []byte{1, 2}, ImageMIME: "image/jpeg"}}},
		{Speaker: SpeakerModel, Parts: []Part{{Text: "Why?"}}},
	})
	require.Len(t, contents, 2)
	require.Equal(t, "user", contents[0].Role)
	require.Equal(t, "Student says: hi", contents[0].Parts[0].Text)
	require.NotNil(t, contents[0].Parts[1].InlineData)
	require.Equal(t, "image/jpeg", contents[0].Parts[1].InlineData.MIMEType)
	require.Equal(t, string(genai.RoleModel), contents[1].Role)
}

func TestGeminiWithModelBindsCopy(t *testing.T) {
	g, err := NewGemini(context.Background(), "test-key", http.DefaultClient, nil)
	require.NoError(t, err)
	require.Equal(t, FallbackModel, g.ModelName())

	bound := g.WithModel("models/gemini-2.5-flash")
	require.Equal(t, "models/gemini-2.5-flash", bound.ModelName())
	require.Equal(t, FallbackModel, g.ModelName())

	_, err = NewGemini(context.Background(), "", nil, nil)
	require.Error(t, err)
}
