package fibra

import "sync"

// mailbox is an unbounded FIFO of control frames with a single blocking
// consumer: the fiber's own execution unit. Producers never block.
//
// Frames sent to the same mailbox are delivered in send order, with one
// exception: a shutdown frame is observed before any resume or exception
// frame still ahead of it in the queue, so cancellation always wins over
// user-level work already in flight.
type mailbox struct {
	lk       sync.Mutex
	nonEmpty *sync.Cond
	queue    []fiberMessage
	shutdown bool
}

func newMailbox() *mailbox {
	mb := &mailbox{}
	mb.nonEmpty = sync.NewCond(&mb.lk)
	return mb
}

func (mb *mailbox) put(msg fiberMessage) {
	mb.lk.Lock()
	if _, isShutdown := msg.(shutdownMessage); isShutdown {
		mb.shutdown = true
	} else {
		mb.queue = append(mb.queue, msg)
	}
	mb.lk.Unlock()
	mb.nonEmpty.Signal()
}

// take blocks until a frame is available, indefinitely if need be.
func (mb *mailbox) take() fiberMessage {
	mb.lk.Lock()
	defer mb.lk.Unlock()
	for !mb.shutdown && len(mb.queue) == 0 {
		mb.nonEmpty.Wait()
	}
	if mb.shutdown {
		return shutdownMessage{}
	}
	msg := mb.queue[0]
	mb.queue[0] = nil
	mb.queue = mb.queue[1:]
	return msg
}

func (mb *mailbox) depth() int {
	mb.lk.Lock()
	defer mb.lk.Unlock()
	return len(mb.queue)
}

// drain discards every queued frame. Used during cleanup.
func (mb *mailbox) drain() {
	mb.lk.Lock()
	defer mb.lk.Unlock()
	mb.queue = nil
}
