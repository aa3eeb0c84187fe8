package productsync

import (
	"fmt"
	"time"
)

// Mode is the delivery strategy reported to subscribers
type Mode string

const (
	ModeRealtime     Mode = "realtime"
	ModePolling      Mode = "polling"
	ModeDisconnected Mode = "disconnected"
)

// Phase is the coordinator's position in the live → retry → polling fallback
type Phase int

const (
	PhaseConnecting Phase = iota
	PhaseLive
	PhaseBackoff
	PhasePolling
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseLive:
		return "live"
	case PhaseBackoff:
		return "backoff"
	case PhasePolling:
		return "polling"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a phase plus the number of reopen attempts spent so far.
// Backoff(n) is State{Phase: PhaseBackoff, Retries: n}.
type State struct {
	Phase   Phase
	Retries int
}

func (s State) String() string {
	if s.Phase == PhaseBackoff {
		return fmt.Sprintf("backoff(%d)", s.Retries)
	}
	return s.Phase.String()
}

// ErrorKind classifies a live channel failure
type ErrorKind int

const (
	// ErrorUnavailable is a transient connectivity or service failure
	ErrorUnavailable ErrorKind = iota
	// ErrorAccess is a permission or authentication failure
	ErrorAccess
)

// EventKind tags the events fed to Transition
type EventKind int

const (
	EventChannelUpdate EventKind = iota
	EventChannelError
	EventRetryElapsed
	EventPollTick
	EventCancel
)

// Event is one input to the state machine. ErrorKind is set for
// EventChannelError only.
type Event struct {
	Kind      EventKind
	ErrorKind ErrorKind
}

// Policy holds the fallback timing and retry bound
type Policy struct {
	RetryBackoff time.Duration
	MaxRetries   int
	PollInterval time.Duration
}

// DefaultPolicy is 3 reopen attempts 5s apart, then a poll every 10s
func DefaultPolicy() Policy {
	return Policy{
		RetryBackoff: 5 * time.Second,
		MaxRetries:   3,
		PollInterval: 10 * time.Second,
	}
}

// Effects lists what the driver must do after a transition
type Effects struct {
	// Mode is reported to the subscriber when non-empty
	Mode Mode
	// Deliver forwards the channel snapshot that caused the transition
	Deliver bool
	// CloseChannel tears down the open live channel
	CloseChannel bool
	// OpenChannel opens a fresh live channel
	OpenChannel bool
	// ScheduleRetry arms a single RetryElapsed after Policy.RetryBackoff
	ScheduleRetry bool
	// StartPolling reads once immediately, then arms a PollTick every Policy.PollInterval
	StartPolling bool
	// Poll reads the collection once
	Poll bool
	// StopTimers clears any pending retry or poll timer
	StopTimers bool
}

// Transition is the pure fallback state machine. Events that do not apply
// to the current phase (late channel callbacks, ticks after a switch) leave
// the state unchanged and produce no effects.
func Transition(s State, e Event, p Policy) (State, Effects) {
	if e.Kind == EventCancel {
		if s.Phase == PhaseClosed {
			return s, Effects{}
		}
		return State{Phase: PhaseClosed}, Effects{CloseChannel: true, StopTimers: true}
	}

	switch s.Phase {
	case PhaseConnecting, PhaseLive:
		switch e.Kind {
		case EventChannelUpdate:
			return State{Phase: PhaseLive}, Effects{Mode: ModeRealtime, Deliver: true}
		case EventChannelError:
			if e.ErrorKind == ErrorAccess || s.Retries >= p.MaxRetries {
				return State{Phase: PhasePolling, Retries: s.Retries}, Effects{
					Mode:         ModePolling,
					CloseChannel: true,
					StartPolling: true,
				}
			}
			return State{Phase: PhaseBackoff, Retries: s.Retries + 1}, Effects{
				Mode:          ModeDisconnected,
				CloseChannel:  true,
				ScheduleRetry: true,
			}
		}
	case PhaseBackoff:
		if e.Kind == EventRetryElapsed {
			return State{Phase: PhaseConnecting, Retries: s.Retries}, Effects{OpenChannel: true}
		}
	case PhasePolling:
		if e.Kind == EventPollTick {
			return s, Effects{Poll: true}
		}
	}
	return s, Effects{}
}
