// Package cont provides a minimal stackful-suspension primitive: a
// function bound to its own goroutine whose execution is entirely driven
// by its owner. The bound function does not start before the first call
// to `Run`, and every `Run` returns only once the function called
// `Pause` or returned, so exactly one side of the pair is executing at
// any instant.
//
// A panic escaping the bound function is re-raised on the driver's side
// by the pending `Run` call.
package cont

import (
	"errors"
	"sync"
)

var ErrDone = errors.New("cont: continuation already finished")

// Cont is a driver-scheduled continuation.
//
// Run, Pause and Stop are not safe for concurrent use: a Cont belongs to
// one logical timeline.
type Cont struct {
	resumeCh chan struct{}
	pauseCh  chan struct{}
	quitCh   chan struct{}
	stopOnce sync.Once

	// written by the continuation goroutine before its final handoff,
	// read by the driver after the matching receive.
	done     bool
	panicked interface{}

	started bool
}

// New binds fn to a fresh parked goroutine. fn does not run until the
// first Run.
func New(fn func()) *Cont {
	c := &Cont{
		resumeCh: make(chan struct{}),
		pauseCh:  make(chan struct{}),
		quitCh:   make(chan struct{}),
	}
	go func() {
		select {
		case <-c.quitCh:
			return
		case <-c.resumeCh:
		}
		defer func() {
			c.panicked = recover()
			c.done = true
			c.pauseCh <- struct{}{}
		}()
		fn()
	}()
	return c
}

// Run transfers control to the continuation and blocks until it pauses
// or finishes. It reports whether the continuation can be run again.
func (c *Cont) Run() (again bool, err error) {
	if c.done {
		return false, ErrDone
	}
	if !c.started {
		select {
		case <-c.quitCh:
			c.done = true
			return false, ErrDone
		case c.resumeCh <- struct{}{}:
			c.started = true
		}
	} else {
		c.resumeCh <- struct{}{}
	}
	<-c.pauseCh
	if c.panicked != nil {
		val := c.panicked
		c.panicked = nil
		panic(val)
	}
	return !c.done, nil
}

// Pause hands control back to the driver and blocks until the next Run.
// It must only be called from inside the bound function.
func (c *Cont) Pause() {
	c.pauseCh <- struct{}{}
	<-c.resumeCh
}

// Stop releases a continuation that never ran: its goroutine exits
// without invoking the bound function. Stopping a continuation that
// already started is a no-op; drive it to completion with Run instead.
func (c *Cont) Stop() {
	c.stopOnce.Do(func() {
		close(c.quitCh)
	})
}

// Done reports whether the bound function returned.
func (c *Cont) Done() bool {
	return c.done
}
