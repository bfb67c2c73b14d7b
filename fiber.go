package fibra

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
)

const MaxFiberNameLength = 128

var InvalidFiberName = regexp.MustCompile(`[^A-Za-z0-9\-\.]+`)

func ValidateFiberName(name string) bool {
	return !InvalidFiberName.MatchString(name) && len(name) <= MaxFiberNameLength
}

// State of a fiber. Transitions only walk
// Created → Running → (Suspended → Running)* → Terminated; a terminated
// fiber never re-enters any other state.
type State uint32

const (
	StateCreated State = iota
	StateRunning
	StateSuspended
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Body is the callable a fiber executes: it receives the arguments of
// the first resume frame and its result is implicitly yielded to the
// fiber's return target. A returned error is rerouted to the same
// target instead.
type Body func(args []interface{}) ([]interface{}, error)

// Fiber is an addressable cooperative thread of control. All its
// exported methods are safe to call from anywhere, but the value they
// return is only authoritative on the owner's timeline.
type Fiber struct {
	id   uint64
	name string
	root bool

	state atomic.Uint32

	mailbox *mailbox

	// lastResumedBy is the implicit return target: the fiber which most
	// recently sent a RESUME frame. One-shot, consumed by ReturnFiber.
	// Only touched by code running on the owner's timeline.
	lastResumedBy *Fiber

	// scheduled is set while a transfer frame is in flight and not yet
	// consumed, so a double resume can be refused synchronously.
	scheduled atomic.Bool

	body Body
	unit executionUnit

	cleanupOnce sync.Once
	doneCh      chan struct{}
}

func (f *Fiber) ID() uint64 {
	return f.id
}

func (f *Fiber) Name() string {
	return f.name
}

// IsRoot reports whether this is the fiber permanently associated with
// the manager's owner.
func (f *Fiber) IsRoot() bool {
	return f.root
}

func (f *Fiber) State() State {
	return State(f.state.Load())
}

// Alive reports whether the fiber has not terminated yet.
func (f *Fiber) Alive() bool {
	return f.State() != StateTerminated
}

func (f *Fiber) String() string {
	return fmt.Sprintf("fiber %d (%s, %s)", f.id, f.name, f.State())
}

// transition advances the state machine. It refuses to leave the
// terminal state and reports whether the transition was applied.
func (f *Fiber) transition(next State) bool {
	for {
		curr := f.state.Load()
		if State(curr) == StateTerminated {
			return false
		}
		if f.state.CompareAndSwap(curr, uint32(next)) {
			return true
		}
	}
}

// done is closed once cleanup completed.
func (f *Fiber) done() <-chan struct{} {
	return f.doneCh
}
