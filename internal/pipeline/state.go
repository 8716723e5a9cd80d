package pipeline

import (
	"fmt"

	"hoffenc/internal/encoder"
)

// State is a step of the per-file encode state machine.
type State int

const (
	StateIdle State = iota
	StateProbing
	StateBuildingCommand
	StateRunning
	StateRetrying
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProbing:
		return "Probing"
	case StateBuildingCommand:
		return "BuildingCommand"
	case StateRunning:
		return "Running"
	case StateRetrying:
		return "Retrying"
	case StateSucceeded:
		return "Succeeded"
	case StateFailed:
		return "Failed"
	case StateCancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

type event int

const (
	evStart event = iota
	evProbed
	evBuilt
	evExitOK
	evExitFailed
	evRetry
	evCancel
	evAbort
)

func (e event) String() string {
	return [...]string{"start", "probed", "built", "exit-ok", "exit-failed", "retry", "cancel", "abort"}[e]
}

// maxAttempts bounds the tier sequence: optimal, then conservative.
const maxAttempts = 2

// machine is the encode FSM. A failed optimal attempt moves to Retrying
// exactly once; a failed conservative attempt is terminal. Cancel and abort
// are accepted from every non-terminal state, including Retrying.
type machine struct {
	state    State
	tier     encoder.Tier
	attempts int
	trace    []State
}

func newMachine() *machine {
	return &machine{state: StateIdle, tier: encoder.TierOptimal, trace: []State{StateIdle}}
}

func (m *machine) fire(e event) error {
	next, ok := m.next(e)
	if !ok {
		return fmt.Errorf("invalid transition %s on %s", m.state, e)
	}
	switch {
	case e == evBuilt:
		m.attempts++
	case e == evRetry:
		m.tier = encoder.TierConservative
	}
	m.state = next
	m.trace = append(m.trace, next)
	return nil
}

func (m *machine) next(e event) (State, bool) {
	if m.state.Terminal() {
		return m.state, false
	}
	switch e {
	case evCancel:
		return StateCancelled, true
	case evAbort:
		return StateFailed, true
	}
	switch m.state {
	case StateIdle:
		if e == evStart {
			return StateProbing, true
		}
	case StateProbing:
		if e == evProbed {
			return StateBuildingCommand, true
		}
	case StateBuildingCommand:
		if e == evBuilt && m.attempts < maxAttempts {
			return StateRunning, true
		}
	case StateRunning:
		switch e {
		case evExitOK:
			return StateSucceeded, true
		case evExitFailed:
			if m.tier == encoder.TierOptimal && m.attempts < maxAttempts {
				return StateRetrying, true
			}
			return StateFailed, true
		}
	case StateRetrying:
		if e == evRetry {
			return StateBuildingCommand, true
		}
	}
	return m.state, false
}
