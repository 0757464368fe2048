// Package interview runs mock interview sessions over a message channel.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/interview-labs/internal/domain"
	"github.com/ashureev/interview-labs/internal/media"
	"github.com/ashureev/interview-labs/internal/reasoning"
	"github.com/ashureev/interview-labs/internal/speech"
	"github.com/ashureev/interview-labs/internal/store"
	"github.com/ashureev/interview-labs/internal/transcript"
)

// ErrDisconnected is returned by Serve when the peer went away before the
// session finished.
var ErrDisconnected = errors.New("interview: transport disconnected")

var errMissingText = errors.New("turn has no text field")

// Conn is a bidirectional message channel to one client.
type Conn interface {
	// Read blocks for the next inbound message. It is only ever called from
	// one goroutine at a time, concurrently with Write.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one outbound message.
	Write(ctx context.Context, data []byte) error
	// Close terminates the channel from the server side.
	Close(reason string) error
}

// Timeouts bound each upstream call made during a session.
type Timeouts struct {
	Ask       time.Duration
	Grade     time.Duration
	Synthesis time.Duration
	Store     time.Duration
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Ask:       30 * time.Second,
		Grade:     60 * time.Second,
		Synthesis: 15 * time.Second,
		Store:     5 * time.Second,
	}
}

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Model       reasoning.Model
	Synthesizer speech.Synthesizer
	Store       store.ReportStore
	Transcripts transcript.Logger
	Manager     *SessionManager
	Logger      *slog.Logger
	Timeouts    Timeouts
	ImageWindow int
}

// Orchestrator drives interview sessions. It is safe for concurrent use;
// each session is served by its own goroutine.
type Orchestrator struct {
	model       reasoning.Model
	synthesizer speech.Synthesizer
	store       store.ReportStore
	transcripts transcript.Logger
	manager     *SessionManager
	logger      *slog.Logger
	timeouts    Timeouts
	imageWindow int
}

// New creates an orchestrator from its collaborators.
func New(d Deps) *Orchestrator {
	if d.Synthesizer == nil {
		d.Synthesizer = speech.Disabled{}
	}
	if d.Transcripts == nil {
		d.Transcripts = transcript.Nop{}
	}
	if d.Manager == nil {
		d.Manager = NewSessionManager()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	defaults := DefaultTimeouts()
	if d.Timeouts.Ask <= 0 {
		d.Timeouts.Ask = defaults.Ask
	}
	if d.Timeouts.Grade <= 0 {
		d.Timeouts.Grade = defaults.Grade
	}
	if d.Timeouts.Synthesis <= 0 {
		d.Timeouts.Synthesis = defaults.Synthesis
	}
	if d.Timeouts.Store <= 0 {
		d.Timeouts.Store = defaults.Store
	}
	return &Orchestrator{
		model:       d.Model,
		synthesizer: d.Synthesizer,
		store:       d.Store,
		transcripts: d.Transcripts,
		manager:     d.Manager,
		logger:      d.Logger,
		timeouts:    d.Timeouts,
		imageWindow: d.ImageWindow,
	}
}

// Manager returns the registry of live sessions.
func (o *Orchestrator) Manager() *SessionManager {
	return o.manager
}

// NewSession creates an open session with an empty transcript.
func (o *Orchestrator) NewSession() *Session {
	return newSession(o.model, o.imageWindow)
}

// Serve runs a fresh session on conn until it finishes or the peer leaves.
func (o *Orchestrator) Serve(ctx context.Context, conn Conn) error {
	return o.ServeSession(ctx, o.NewSession(), conn)
}

// ServeSession runs sess on conn. It returns nil after a FINAL_REPORT was
// delivered and ErrDisconnected if the transport failed first. Losing the
// peer cancels whatever upstream call the session is waiting on.
func (o *Orchestrator) ServeSession(ctx context.Context, sess *Session, conn Conn) error {
	log := o.logger.With("session_id", sess.ID)

	o.manager.Register(sess.ID, conn)
	defer o.manager.Unregister(sess.ID, conn)
	defer sess.release()

	sessCtx, cancel := context.WithCancelCause(ctx)
	inbox := newInbox(sessCtx, cancel, conn)
	defer func() {
		cancel(context.Canceled)
		inbox.wait()
	}()

	log.Info("Interview session started")
	o.record(sess, "session_started", "", "", nil)

	err := o.loop(sessCtx, sess, conn, inbox, log)
	age := time.Since(sess.StartedAt)
	if err != nil {
		if sess.State() != StateClosed {
			_ = sess.fire(EventDisconnect)
		}
		log.Info("Interview session closed without report", "turns", sess.turns, "duration", age, "reason", err)
		o.record(sess, "session_closed", "", "", map[string]any{"reason": err.Error(), "turns": sess.turns, "duration_ms": age.Milliseconds()})
		return err
	}

	log.Info("Interview session completed", "turns", sess.turns, "fallbacks", sess.fallbacks, "duration", age)
	o.record(sess, "session_closed", "", "", map[string]any{"reason": "finished", "turns": sess.turns, "duration_ms": age.Milliseconds()})
	return nil
}

func (o *Orchestrator) loop(ctx context.Context, sess *Session, conn Conn, inbox *inbox, log *slog.Logger) error {
	for {
		var data []byte
		select {
		case data = <-inbox.frames:
		case <-ctx.Done():
			return peerLost(ctx)
		}

		msg, parseErr := parseInbound(data)
		if parseErr == nil && msg.isFinish() {
			inbox.discard()
			return o.finish(ctx, sess, conn, log)
		}
		if err := o.turn(ctx, sess, conn, msg, parseErr, log); err != nil {
			return err
		}
	}
}

// turn handles one student contribution. Only transport errors are returned.
func (o *Orchestrator) turn(ctx context.Context, sess *Session, conn Conn, msg inbound, parseErr error, log *slog.Logger) error {
	if err := sess.fire(EventTurn); err != nil {
		return err
	}
	sess.turns++

	question, err := o.ask(ctx, sess, msg, parseErr)
	if ctx.Err() != nil {
		return peerLost(ctx)
	}
	if err != nil {
		sess.fallbacks++
		log.Warn("Turn failed, sending fallback", "turn", sess.turns, "error", err)
		o.record(sess, "turn_fallback", "outbound", FallbackText, map[string]any{"error": err.Error()})
		return o.send(ctx, conn, newAIResponse(FallbackText, nil))
	}
	o.record(sess, "ai_question", "outbound", question, map[string]any{"turn": sess.turns})

	var audio *string
	synthCtx, cancel := context.WithTimeout(ctx, o.timeouts.Synthesis)
	encoded, err := o.synthesizer.Synthesize(synthCtx, question)
	cancel()
	if ctx.Err() != nil {
		return peerLost(ctx)
	}
	if err != nil {
		log.Warn("Speech synthesis failed, sending text only", "turn", sess.turns, "error", err)
	} else {
		audio = &encoded
	}

	return o.send(ctx, conn, newAIResponse(question, audio))
}

func (o *Orchestrator) ask(ctx context.Context, sess *Session, msg inbound, parseErr error) (string, error) {
	if parseErr != nil {
		return "", fmt.Errorf("%w: malformed message: %v", media.ErrDecode, parseErr)
	}
	img, err := media.Decode(msg.Frame)
	if err != nil {
		return "", err
	}
	if msg.Text == nil {
		return "", errMissingText
	}
	o.record(sess, "student_turn", "inbound", *msg.Text, map[string]any{"turn": sess.turns, "image_format": img.Format})

	askCtx, cancel := context.WithTimeout(ctx, o.timeouts.Ask)
	defer cancel()
	return sess.reasoner.Ask(askCtx, img, *msg.Text)
}

// finish grades the transcript, persists the report and closes the channel.
// A disconnect observed before persistence aborts without storing anything.
func (o *Orchestrator) finish(ctx context.Context, sess *Session, conn Conn, log *slog.Logger) error {
	if err := sess.fire(EventFinish); err != nil {
		return err
	}
	log.Info("Generating final evaluation", "turns", sess.turns, "transcript_len", sess.transcript.Len())

	gradeCtx, cancel := context.WithTimeout(ctx, o.timeouts.Grade)
	card, err := sess.reasoner.Grade(gradeCtx)
	cancel()
	if err != nil {
		log.Warn("Grading failed, using default scorecard", "error", err)
		card = domain.DefaultScorecard()
	}
	card = card.Normalize()

	if ctx.Err() != nil {
		return peerLost(ctx)
	}

	var reportID int64
	storeCtx, cancel := context.WithTimeout(ctx, o.timeouts.Store)
	report, err := o.store.AppendReport(storeCtx, card)
	cancel()
	switch {
	case err == nil:
		reportID = report.ID
		card = report.Scorecard
		log.Info("Interview report saved", "report_id", reportID)
	case ctx.Err() != nil:
		return peerLost(ctx)
	default:
		log.Error("Failed to save interview report", "error", err)
	}

	o.record(sess, "final_report", "outbound", card.Feedback, map[string]any{
		"report_id":   reportID,
		"tech":        card.Tech,
		"clarity":     card.Clarity,
		"originality": card.Originality,
	})
	if err := o.send(ctx, conn, newFinalReport(reportID, card)); err != nil {
		return err
	}

	if err := sess.fire(EventReported); err != nil {
		return err
	}
	if err := conn.Close("interview complete"); err != nil {
		log.Debug("Failed to close connection after report", "error", err)
	}
	return nil
}

func (o *Orchestrator) send(ctx context.Context, conn Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}
	if ctx.Err() != nil {
		return peerLost(ctx)
	}
	if err := conn.Write(ctx, data); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

// peerLost reports why the session context ended.
func peerLost(ctx context.Context) error {
	return fmt.Errorf("%w: %v", ErrDisconnected, context.Cause(ctx))
}

func (o *Orchestrator) record(sess *Session, eventType, direction, content string, meta map[string]any) {
	o.transcripts.Log(transcript.Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: sess.ID,
		EventType: eventType,
		Direction: direction,
		Content:   content,
		Meta:      meta,
	})
}
