package fibra

import "github.com/raskyld/fibra/pkg/cont"

// executionUnit is the schedulable control-transfer backend owned by
// exactly one fiber. It is bound by `Initialize` and released exactly
// once during cleanup.
//
// Whatever the strategy, launching is lazy: the bound loop does not
// execute until the fiber receives its first frame.
type executionUnit interface {
	launch(loop func())
	release()
}

// workerUnit runs its loop on a dedicated goroutine which parks on the
// fiber's mailbox while suspended. The goroutine exits together with
// the loop, so there is nothing left to free at release time.
type workerUnit struct{}

func (workerUnit) launch(loop func()) {
	go loop()
}

func (workerUnit) release() {}

// contUnit runs its loop on a driver-scheduled continuation: control
// only enters the loop when the owner's timeline runs it.
type contUnit struct {
	c *cont.Cont
}

func (u *contUnit) launch(loop func()) {
	u.c = cont.New(loop)
}

// release frees a continuation that never started. Started ones exit
// with their loop.
func (u *contUnit) release() {
	u.c.Stop()
}
