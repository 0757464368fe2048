package interview

import "fmt"

// State is the lifecycle state of an interview session.
type State string

// Event drives state transitions.
type Event string

const (
	StateOpen       State = "open"
	StateFinalizing State = "finalizing"
	StateClosed     State = "closed"
)

const (
	EventTurn       Event = "turn"
	EventFinish     Event = "finish"
	EventReported   Event = "reported"
	EventDisconnect Event = "disconnect"
)

// Transition returns the state reached from current on event. Closed is
// terminal.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateOpen:
		switch event {
		case EventTurn:
			return StateOpen, nil
		case EventFinish:
			return StateFinalizing, nil
		case EventDisconnect:
			return StateClosed, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFinalizing:
		switch event {
		case EventReported, EventDisconnect:
			return StateClosed, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateClosed:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
