package fibra

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-metrics"
)

// FiberManager coordinates the fibers of one owner: it creates them,
// resolves return targets, performs the control-transfer protocol and
// drives lifecycle, cleanup and shutdown.
//
// Every manager owns a root fiber which lives exactly as long as the
// owner. Exactly one fiber per manager is in the Running state at any
// instant, and the manager is the only writer of that bookkeeping.
type FiberManager struct {
	config config
	logger *slog.Logger

	root *Fiber

	// current is the authoritative "active fiber" view of the owner's
	// timeline. Reads from other goroutines are racy diagnostics.
	current atomic.Pointer[Fiber]

	// scheduled is the transient marker of the next fiber to run during
	// a handoff. The continuation driver loop keys off it.
	scheduled atomic.Pointer[Fiber]

	// registry of every live fiber, root included.
	fibers map[uint64]*Fiber
	nextID atomic.Uint64
	lk     sync.Mutex

	shutdown bool
}

// Create builds a manager for the calling owner, along with its root
// fiber.
func Create(opts ...Option) (*FiberManager, error) {
	m := &FiberManager{
		fibers: make(map[uint64]*Fiber),
	}
	m.config.rootName = "root"

	for _, opt := range opts {
		if err := opt(&m.config); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCfg, err)
		}
	}

	// Logging implementations.
	if m.config.logHandler != nil {
		m.logger = slog.New(m.config.logHandler)
	} else {
		m.logger = slog.Default()
	}

	// Metrics implementations.
	if m.config.msink == nil {
		m.config.msink = metrics.Default()
	}

	root := m.newFiber(m.config.rootName, true)
	root.state.Store(uint32(StateRunning))
	m.root = root
	m.current.Store(root)
	m.scheduled.Store(root)

	m.lk.Lock()
	m.fibers[root.id] = root
	m.lk.Unlock()

	m.logger.Debug("fiber manager created", LabelBackend.L(m.config.backend.String()))
	return m, nil
}

func (m *FiberManager) newFiber(name string, root bool) *Fiber {
	return &Fiber{
		id:      m.nextID.Add(1),
		name:    name,
		root:    root,
		mailbox: newMailbox(),
		doneCh:  make(chan struct{}),
	}
}

// RootFiber returns the fiber permanently associated with the owner. It
// never receives a shutdown frame during the owner's lifetime.
func (m *FiberManager) RootFiber() *Fiber {
	return m.root
}

// CurrentFiber returns the fiber currently running on behalf of this
// manager's owner. The value is only authoritative when the caller is
// itself executing on the owner's timeline; anywhere else, use
// CurrentFiberRacy and treat the result accordingly.
func (m *FiberManager) CurrentFiber() *Fiber {
	return m.current.Load()
}

// CurrentFiberRacy is the explicitly-unsynchronized diagnostic read: if
// the current fiber is read from another goroutine, there is no
// guarantee it will remain the current one, as the owner could switch
// to another fiber before the actual operation on the returned fiber.
func (m *FiberManager) CurrentFiberRacy() *Fiber {
	return m.current.Load()
}

// CreateFiber allocates a fiber in the Created state: a fresh mailbox
// and no execution unit bound yet. Bind a body with Initialize before
// resuming it.
func (m *FiberManager) CreateFiber(name string) (*Fiber, error) {
	if !ValidateFiberName(name) {
		return nil, ErrNameInvalid
	}

	m.lk.Lock()
	if m.shutdown {
		m.lk.Unlock()
		return nil, ErrManagerClosed
	}
	f := m.newFiber(name, false)
	m.fibers[f.id] = f
	live := len(m.fibers)
	m.lk.Unlock()

	m.config.msink.IncrCounterWithLabels(MetricFiberCreatedCount, 1.0, m.mlabels())
	m.config.msink.SetGaugeWithLabels(MetricFiberLive, float32(live), m.mlabels())
	m.logger.Debug("fiber created", LabelFiberName.L(name), LabelFiberID.L(f.id))
	return f, nil
}

// Initialize binds an execution unit running body to the fiber. The
// body does not run yet: it is only invoked once the first resume frame
// reaches the fiber, with that frame's arguments.
func (m *FiberManager) Initialize(f *Fiber, body Body) error {
	if f == nil || body == nil {
		return fmt.Errorf("%w: nil fiber or body", ErrInvalidCfg)
	}
	if f.root {
		return fmt.Errorf("%w: the root fiber body is the owner itself", ErrFiberInitialized)
	}
	if !f.Alive() {
		return ErrFiberTerminated
	}
	if f.unit != nil {
		return ErrFiberInitialized
	}
	m.lk.Lock()
	if m.shutdown {
		m.lk.Unlock()
		return ErrManagerClosed
	}
	m.lk.Unlock()

	f.body = body
	switch m.config.backend {
	case ContinuationBackend:
		f.unit = &contUnit{}
	default:
		f.unit = workerUnit{}
	}
	f.unit.launch(func() { m.fiberLoop(f) })
	return nil
}

// ReturnFiber resolves the implicit target of a bare yield: the fiber
// which most recently resumed f, consumed at most once, or the root
// fiber when there is none. Resolving the root fiber's own return
// target fails: yielding from it is illegal.
func (m *FiberManager) ReturnFiber(f *Fiber) (*Fiber, error) {
	if f.root {
		return nil, ErrYieldFromRoot
	}
	return m.returnTargetOf(f), nil
}

func (m *FiberManager) returnTargetOf(f *Fiber) *Fiber {
	if target := f.lastResumedBy; target != nil {
		f.lastResumedBy = nil
		return target
	}
	return m.root
}

// Resume transfers control and args into fiber, blocking the calling
// fiber until fiber yields or terminates. Must run on the owner's
// timeline.
func (m *FiberManager) Resume(fiber *Fiber, args ...interface{}) ([]interface{}, error) {
	return m.TransferControlTo(m.CurrentFiber(), fiber, OpResume, args)
}

// Yield transfers control and args out of the calling fiber, back to
// its resolved return target. Yielding from the root fiber fails with
// ErrYieldFromRoot and never blocks.
func (m *FiberManager) Yield(args ...interface{}) ([]interface{}, error) {
	from := m.CurrentFiber()
	target, err := m.ReturnFiber(from)
	if err != nil {
		return nil, err
	}
	return m.TransferControlTo(from, target, OpYield, args)
}

// TransferControlTo is the single synchronous primitive under both
// Resume and Yield: it sends a resume frame to the target's mailbox,
// marks it scheduled, suspends the sender and blocks until a frame
// addressed back to the sender arrives, returning its payload.
//
// Illegal usage is reported synchronously and never retried.
func (m *FiberManager) TransferControlTo(from, to *Fiber, op Operation, args []interface{}) ([]interface{}, error) {
	if from == nil || to == nil {
		return nil, ErrFiberNotInitialized
	}
	m.lk.Lock()
	closed := m.shutdown
	m.lk.Unlock()
	if closed {
		return nil, ErrManagerClosed
	}
	if !to.Alive() {
		return nil, ErrFiberTerminated
	}
	if !to.root && to.unit == nil {
		return nil, ErrFiberNotInitialized
	}
	if to == from {
		return nil, ErrFiberScheduled
	}
	if !to.scheduled.CompareAndSwap(false, true) {
		return nil, ErrFiberScheduled
	}

	from.transition(StateSuspended)
	to.mailbox.put(resumeMessage{op: op, sender: from, args: args})
	m.scheduled.Store(to)

	m.config.msink.IncrCounterWithLabels(MetricFiberTransferCount, 1.0, m.mlabels(LabelOperation.M(op.String())))
	m.logger.Debug("control transfer",
		LabelOperation.L(op.String()),
		"from", from.name,
		"to", to.name,
	)

	return m.consume(from, m.awaitReply(from))
}

// awaitReply blocks until a frame addressed to f is available. Under
// the worker backend, parking on the mailbox is the whole story; under
// the continuation backend, control must first be handed off so the
// scheduled fiber can actually produce the reply.
func (m *FiberManager) awaitReply(f *Fiber) fiberMessage {
	if m.config.backend == ContinuationBackend {
		if f == m.root {
			m.driveScheduled()
		} else {
			f.unit.(*contUnit).c.Pause()
		}
	}
	return f.mailbox.take()
}

// driveScheduled runs scheduled continuations until control is due back
// to the root fiber. Only the owner's timeline, on behalf of the root
// fiber, may drive.
func (m *FiberManager) driveScheduled() {
	for {
		next := m.scheduled.Load()
		if next == m.root {
			return
		}
		unit, ok := next.unit.(*contUnit)
		if !ok {
			panic(fmt.Sprintf("fiber: %s is not continuation-backed", next))
		}
		if _, err := unit.c.Run(); err != nil {
			m.scheduled.Store(m.root)
			return
		}
	}
}

// consume processes a frame addressed to f. It publishes f as the
// owner's current fiber before any user-level code runs again; the
// mailbox handoff is what orders that write. A shutdown frame unwinds
// to cleanup instead and publishes nothing.
func (m *FiberManager) consume(f *Fiber, msg fiberMessage) ([]interface{}, error) {
	if _, isShutdown := msg.(shutdownMessage); isShutdown {
		panic(shutdownSignal{})
	}

	f.scheduled.Store(false)
	f.transition(StateRunning)
	m.current.Store(f)

	switch msg := msg.(type) {
	case exceptionMessage:
		return nil, msg.err
	case resumeMessage:
		if msg.op == OpResume {
			f.lastResumedBy = msg.sender
		}
		return msg.args, nil
	default:
		panic(fmt.Sprintf("fiber: unexpected frame %T", msg))
	}
}

// fiberLoop is the whole life of a non-root fiber: block for the first
// frame, run the body, hand the result (or the failure) to the resolved
// return target, clean up. It runs on the fiber's execution unit.
func (m *FiberManager) fiberLoop(f *Fiber) {
	defer m.cleanup(f)

	var (
		result   []interface{}
		bodyErr  error
		shutdown bool
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(shutdownSignal); ok {
					shutdown = true
					return
				}
				bodyErr = &BodyPanicError{Value: r}
			}
		}()
		args, err := m.consume(f, f.mailbox.take())
		if err != nil {
			bodyErr = err
			return
		}
		result, bodyErr = f.body(args)
	}()

	// No user code runs in f past this point.
	f.state.Store(uint32(StateTerminated))

	if shutdown {
		m.logger.Debug("fiber shut down", LabelFiberName.L(f.name), LabelFiberID.L(f.id))
		return
	}

	target := m.returnTargetOf(f)
	if bodyErr != nil {
		m.config.msink.IncrCounterWithLabels(MetricFiberBodyErrorCount, 1.0, m.mlabels(LabelFiberName.M(f.name)))
		m.logger.Debug("fiber body failed", LabelFiberName.L(f.name), LabelError.L(bodyErr))
		m.deliver(target, exceptionMessage{err: bodyErr})
	} else {
		m.deliver(target, resumeMessage{op: OpYield, sender: f, args: result})
	}
}

// deliver is the terminal, non-blocking half of a transfer: the sender
// is done and will never wait for a reply.
func (m *FiberManager) deliver(to *Fiber, msg fiberMessage) {
	to.scheduled.Store(true)
	to.mailbox.put(msg)
	m.scheduled.Store(to)
}

// cleanup releases everything a fiber owns. Idempotent; runs on every
// exit path, including forced shutdown of fibers which never ran.
func (m *FiberManager) cleanup(f *Fiber) {
	f.cleanupOnce.Do(func() {
		f.state.Store(uint32(StateTerminated))
		f.mailbox.drain()
		if f.unit != nil {
			f.unit.release()
		}

		m.lk.Lock()
		delete(m.fibers, f.id)
		live := len(m.fibers)
		m.lk.Unlock()
		m.config.msink.SetGaugeWithLabels(MetricFiberLive, float32(live), m.mlabels())
		m.logger.Debug("fiber released", LabelFiberName.L(f.name), LabelFiberID.L(f.id))

		close(f.doneCh)
	})
}

// KillOtherFibers sends a shutdown frame to every live non-root fiber
// and waits for their cleanup to complete; the root fiber is
// unaffected. Best-effort, idempotent. Must run on the owner's
// timeline, on behalf of the root fiber.
func (m *FiberManager) KillOtherFibers() {
	m.lk.Lock()
	var victims []*Fiber
	for _, f := range m.fibers {
		if !f.root && f.Alive() {
			victims = append(victims, f)
		}
	}
	m.lk.Unlock()

	if len(victims) == 0 {
		return
	}
	m.logger.Info("killing fibers", "count", len(victims))

	for _, victim := range victims {
		m.config.msink.IncrCounterWithLabels(MetricFiberKillCount, 1.0, m.mlabels(LabelFiberName.M(victim.name)))
		if victim.unit == nil {
			// Never initialized: nothing is parked on the mailbox.
			m.cleanup(victim)
			continue
		}
		victim.mailbox.put(shutdownMessage{})
	}

	if m.config.backend == ContinuationBackend {
		// Suspended continuations only observe their mailbox when driven.
		for _, victim := range victims {
			unit, ok := victim.unit.(*contUnit)
			if !ok {
				continue
			}
			for {
				again, err := unit.c.Run()
				if err != nil || !again {
					break
				}
			}
		}
		m.scheduled.Store(m.root)
	}

	for _, victim := range victims {
		<-victim.done()
	}
}

// Shutdown tears the manager down: every non-root fiber is killed, then
// the root fiber's bookkeeping is cleaned up. Invoked once when the
// owner itself is finishing; subsequent calls are no-ops.
func (m *FiberManager) Shutdown() error {
	m.lk.Lock()
	if m.shutdown {
		m.lk.Unlock()
		return nil
	}
	m.shutdown = true
	m.lk.Unlock()

	start := time.Now()
	m.logger.Info("shutting down...")
	m.KillOtherFibers()
	m.cleanup(m.root)
	m.logger.Info("shutdown: completed", LabelDuration.L(time.Since(start)))
	return nil
}

// DebugInfo returns a human-readable snapshot of every live fiber. The
// view is inherently racy: diagnostics only, never a basis for control
// decisions.
func (m *FiberManager) DebugInfo() string {
	m.lk.Lock()
	fibers := make([]*Fiber, 0, len(m.fibers))
	for _, f := range m.fibers {
		fibers = append(fibers, f)
	}
	m.lk.Unlock()

	sort.Slice(fibers, func(i, j int) bool { return fibers[i].id < fibers[j].id })

	var sb strings.Builder
	for _, f := range fibers {
		fmt.Fprintf(&sb, "fiber %d name=%s state=%s mailbox=%d\n",
			f.id, f.name, f.State(), f.mailbox.depth())
	}
	return sb.String()
}

func (m *FiberManager) mlabels(extra ...metrics.Label) []metrics.Label {
	if len(extra) == 0 {
		return m.config.metricLabels
	}
	labels := make([]metrics.Label, 0, len(m.config.metricLabels)+len(extra))
	labels = append(labels, m.config.metricLabels...)
	return append(labels, extra...)
}
