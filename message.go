package fibra

// Operation distinguishes the two user-level control transfers carried
// by a resume frame.
type Operation uint8

const (
	// OpResume transfers control *into* a fiber and records the sender as
	// its return target.
	OpResume Operation = iota

	// OpYield transfers control *out* of a fiber without touching the
	// target's return target.
	OpYield
)

func (op Operation) String() string {
	switch op {
	case OpResume:
		return "resume"
	case OpYield:
		return "yield"
	default:
		return "unknown"
	}
}

// fiberMessage is the closed set of control frames exchanged over
// mailboxes. The unexported marker method seals the set so the receive
// path can type-switch exhaustively.
type fiberMessage interface {
	fiberMessage()
}

// resumeMessage is a normal control transfer carrying argument values.
type resumeMessage struct {
	op     Operation
	sender *Fiber
	args   []interface{}
}

// shutdownMessage is a forced, asynchronous cancellation. It is always
// obeyed: the mailbox delivers it ahead of any frame still queued in
// front of it.
type shutdownMessage struct{}

// exceptionMessage carries a failure to be re-raised in the receiving
// fiber's logical context, identity preserved.
type exceptionMessage struct {
	err error
}

func (resumeMessage) fiberMessage()    {}
func (shutdownMessage) fiberMessage()  {}
func (exceptionMessage) fiberMessage() {}
