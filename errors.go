package fibra

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCfg  = errors.New("fiber: invalid options")
	ErrNameInvalid = errors.New("fiber: names must only contains alphanum, dashes, dots and be less than 128 chars")

	ErrManagerClosed = errors.New("fiber: manager is shut down")

	ErrYieldFromRoot       = errors.New("fiber: can't yield from root fiber")
	ErrFiberTerminated     = errors.New("fiber: dead fiber called")
	ErrFiberScheduled      = errors.New("fiber: double resume")
	ErrFiberNotInitialized = errors.New("fiber: fiber has no body bound")
	ErrFiberInitialized    = errors.New("fiber: fiber already has a body bound")
)

// BodyPanicError carries the value recovered from a panicking fiber body.
// It is delivered to the fiber's return target like any failure raised
// by the body.
type BodyPanicError struct {
	Value interface{}
}

func (err *BodyPanicError) Error() string {
	return fmt.Sprintf("fiber: body panicked: %v", err.Value)
}

// shutdownSignal unwinds a fiber from its suspension point down to its
// cleanup. It is raised by the message-receive path when a shutdown frame
// is observed and is always intercepted by the body wrapper, so callers
// never see it.
type shutdownSignal struct{}
