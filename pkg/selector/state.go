package selector

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of a Selector.
type State int

const (
	StateIdle State = iota
	StateProbing
	StateActive
	StateDegraded
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateActive:
		return "active"
	case StateDegraded:
		return "degraded"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrActivationFailed wraps a candidate's activation error.
	ErrActivationFailed = errors.New("activation failed")
	// ErrUnhealthy is recorded when a health check fails or a strategy faults.
	ErrUnhealthy = errors.New("strategy unhealthy")
	// ErrExhausted means every candidate, including the last resort, failed.
	ErrExhausted = errors.New("all strategies exhausted")
	// ErrInvalidStealth is returned by Initialize for a level outside 0..2.
	ErrInvalidStealth = errors.New("invalid stealth level")
	// ErrNotIdle is returned by Initialize and Start outside the idle state.
	ErrNotIdle = errors.New("selector not idle")
)

// Listener is called after every state transition, outside any lock.
// Transitions raised on different goroutines may be delivered out of order;
// use Selector.State for the current state.
type Listener func(prev, next State)
