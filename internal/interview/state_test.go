package interview

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateOpen

	next, err := Transition(s, EventTurn)
	require.NoError(t, err)
	require.Equal(t, StateOpen, next)

	next, err = Transition(next, EventFinish)
	require.NoError(t, err)
	require.Equal(t, StateFinalizing, next)

	next, err = Transition(next, EventReported)
	require.NoError(t, err)
	require.Equal(t, StateClosed, next)
}

func TestTransitionDisconnectClosesLiveStates(t *testing.T) {
	for _, state := range []State{StateOpen, StateFinalizing} {
		next, err := Transition(state, EventDisconnect)
		require.NoError(t, err)
		require.Equal(t, StateClosed, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "open reported", state: StateOpen, event: EventReported},
		{name: "finalizing turn", state: StateFinalizing, event: EventTurn},
		{name: "finalizing finish", state: StateFinalizing, event: EventFinish},
		{name: "closed turn", state: StateClosed, event: EventTurn},
		{name: "closed finish", state: StateClosed, event: EventFinish},
		{name: "closed disconnect", state: StateClosed, event: EventDisconnect},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid transition")
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventTurn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
