package interview

import (
	"context"
	"sync"
)

// inbox is the only reader of a session's connection. It hands frames to
// the session loop and cancels the session context when the transport
// fails, so a lost peer interrupts any pending upstream call.
type inbox struct {
	frames    chan []byte
	draining  chan struct{}
	drainOnce sync.Once
	done      chan struct{}
}

func newInbox(ctx context.Context, cancel context.CancelCauseFunc, conn Conn) *inbox {
	in := &inbox{
		frames:   make(chan []byte),
		draining: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go in.run(ctx, cancel, conn)
	return in
}

func (in *inbox) run(ctx context.Context, cancel context.CancelCauseFunc, conn Conn) {
	defer close(in.done)
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			cancel(err)
			return
		}
		select {
		case in.frames <- data:
		case <-in.draining:
		case <-ctx.Done():
			return
		}
	}
}

// discard drops every later frame while still watching for peer loss.
func (in *inbox) discard() {
	in.drainOnce.Do(func() { close(in.draining) })
}

// wait blocks until the reader goroutine has exited.
func (in *inbox) wait() {
	<-in.done
}
