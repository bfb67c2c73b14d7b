// *Fibers* are cooperative, explicitly-scheduled logical threads of control
// layered on top of an owning goroutine (the *owner*). A `FiberManager`
// coordinates the fibers of one owner: callers can spawn a fiber, hand
// control and data to it with `Resume`, have it suspend itself and hand
// control back with `Yield`, and observe its termination value or a
// propagated failure.
//
// ## How it works
//
// Every fiber owns a *mailbox*, an unbounded FIFO of control frames. The
// single control-transfer primitive, `TransferControlTo`, enqueues a resume
// frame on the target's mailbox and blocks until a frame addressed back to
// the sender arrives. `Resume` and `Yield` are both thin wrappers around it.
//
// A bare `Yield` (and the implicit transfer of a body's final result) goes
// to the fiber's *return target*: the fiber that most recently resumed it,
// or the root fiber otherwise. The root fiber is permanently associated
// with the owner and yielding from it is illegal.
//
// Exactly one fiber per manager is logically live at any instant. A fiber
// holds control until it explicitly transfers it away: there is no
// preemption, and suspension points only occur at `TransferControlTo` and
// at a fiber's message-receive point.
//
// ## Execution backends
//
// Two interchangeable strategies implement the start/resume/yield contract,
// selected once at `Create` time with `WithBackend`:
//
//   - `WorkerBackend` (default): each fiber owns a dedicated goroutine which
//     parks on its mailbox while suspended. Mutual exclusion is enforced by
//     the mailbox discipline.
//   - `ContinuationBackend` (experimental): fibers are multiplexed on the
//     owner's logical timeline with the rendezvous primitive of
//     [github.com/raskyld/fibra/pkg/cont]; mutual exclusion is structural.
//
// Both backends are lazy: a fiber's body does not run before the first
// resume frame reaches it.
//
// ## Failure semantics
//
// Nothing in this package is a process-ending condition. Illegal usage
// (yield from root, resume of a dead fiber, double resume) is reported
// synchronously to the caller. A failure raised inside a body is rerouted
// to the resolved return target and surfaces there, identity preserved,
// from the pending transfer call. Forced cancellation (`KillOtherFibers`,
// `Shutdown`) unwinds fibers from whatever suspension point they are
// parked at and always runs cleanup.
//
// Dependencies SHOULD be *kept* minimal, actually, I can enumerate them:
//
// * [`log/slog`][dep-slog], to let you chose how to treat *structured logs*.
// * [`hashicorp/go-metrics`][dep-met], to let you chose how to sink metrics.
//
// [dep-slog]: https://pkg.go.dev/log/slog
// [dep-met]: https://pkg.go.dev/github.com/hashicorp/go-metrics
package fibra
