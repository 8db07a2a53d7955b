// Package strategy defines the pluggable techniques used to obtain frame-boundary
// events, plus the implementations shipped with fpsmon.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danpilch/fpsmon/pkg/profile"
)

// StealthLevel bounds how detectable an instrumentation technique may be.
// Lower is more cautious.
type StealthLevel int

const (
	StealthCautious   StealthLevel = 0
	StealthBalanced   StealthLevel = 1
	StealthPermissive StealthLevel = 2
)

// Valid reports whether the level is within 0..2.
func (s StealthLevel) Valid() bool {
	return s >= StealthCautious && s <= StealthPermissive
}

func (s StealthLevel) String() string {
	switch s {
	case StealthCautious:
		return "cautious"
	case StealthBalanced:
		return "balanced"
	case StealthPermissive:
		return "permissive"
	default:
		return fmt.Sprintf("stealth(%d)", int(s))
	}
}

// Reliability ranks how dependable a strategy's frame signal is.
type Reliability int

const (
	ReliabilityLowest Reliability = iota
	ReliabilityLow
	ReliabilityMedium
	ReliabilityHigh
)

func (r Reliability) String() string {
	switch r {
	case ReliabilityLowest:
		return "lowest"
	case ReliabilityLow:
		return "low"
	case ReliabilityMedium:
		return "medium"
	case ReliabilityHigh:
		return "high"
	default:
		return fmt.Sprintf("reliability(%d)", int(r))
	}
}

// ParseReliability parses the names produced by Reliability.String.
func ParseReliability(s string) (Reliability, error) {
	for r := ReliabilityLowest; r <= ReliabilityHigh; r++ {
		if strings.EqualFold(strings.TrimSpace(s), r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown reliability %q", s)
}

var (
	// ErrUnavailable is returned by Activate when the technique cannot attach.
	ErrUnavailable = errors.New("strategy unavailable")
	// ErrHookFault is reported through Sink.Fault when a running hook breaks.
	ErrHookFault = errors.New("hook fault")
)

// Descriptor is the static description of a strategy.
type Descriptor struct {
	ID          string
	Family      profile.HookFamily
	StealthNeed StealthLevel
	Reliability Reliability
}

// Sink receives the output of an active strategy. OnFrame may be called at
// display refresh frequency; Fault only flags the problem and must not be
// used to tear anything down from inside the callback.
type Sink interface {
	OnFrame(ts time.Duration)
	Fault(err error)
}

// Handle is the opaque token returned by a successful activation.
type Handle any

// Strategy is the interface all frame sources must implement.
type Strategy interface {
	// Describe returns the static descriptor.
	Describe() Descriptor

	// Activate attaches the technique and starts emitting into sink.
	Activate(ctx context.Context, sink Sink) (Handle, error)

	// Deactivate detaches. No frames may be emitted after it returns.
	Deactivate(h Handle) error

	// Healthy reports whether the activation is still producing usable data.
	Healthy(h Handle) bool
}
