// Package transcript writes per-session interview events as NDJSON.
package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Event is one line of a session log.
type Event struct {
	Timestamp string         `json:"ts"`
	SessionID string         `json:"session_id"`
	EventType string         `json:"event_type"`
	Direction string         `json:"direction,omitempty"`
	Content   string         `json:"content,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Logger records transcript events.
type Logger interface {
	Log(event Event)
	Close() error
}

// Config controls transcript logging.
type Config struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Nop discards every event.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(Event) {}

// Close implements Logger.
func (Nop) Close() error { return nil }

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type fileLogger struct {
	cfg    Config
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

// NewLogger starts an asynchronous NDJSON writer. A disabled config returns Nop.
func NewLogger(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript log dir: %w", err)
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0o755); err != nil {
			return nil, fmt.Errorf("create global transcript log dir: %w", err)
		}
	}

	l := &fileLogger{
		cfg:    cfg,
		logger: logger,
		queue:  make(chan Event, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log enqueues an event; it never blocks the caller. Events are dropped when
// the queue is full.
func (l *fileLogger) Log(event Event) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- event:
	default:
		l.logger.Warn("Transcript log queue full, dropping event", "session_id", event.SessionID, "event_type", event.EventType)
	}
}

// Close drains queued events and stops the writer.
func (l *fileLogger) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
		<-l.done
	})
	return nil
}

func (l *fileLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		line, err := json.Marshal(event)
		if err != nil {
			l.logger.Warn("Failed to marshal transcript event", "error", err)
			continue
		}
		line = append(line, '\n')

		name := unsafeName.ReplaceAllString(strings.TrimSpace(event.SessionID), "_")
		if name == "" {
			name = "unknown"
		}
		l.appendLine(filepath.Join(l.cfg.Dir, name+".ndjson"), line)
		if l.cfg.GlobalEnabled {
			l.appendLine(l.cfg.GlobalPath, line)
		}
	}
}

func (l *fileLogger) appendLine(path string, line []byte) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.Warn("Failed to open transcript log", "path", path, "error", err)
		return
	}
	if _, err := f.Write(line); err != nil {
		l.logger.Warn("Failed to write transcript log", "path", path, "error", err)
	}
	if err := f.Close(); err != nil {
		l.logger.Warn("Failed to close transcript log", "path", path, "error", err)
	}
}
