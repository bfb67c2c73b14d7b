package fibra

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

// Backend selects which execution strategy a manager binds to its fibers.
// It is fixed for the whole lifetime of the manager.
type Backend uint8

const (
	// WorkerBackend gives each non-root fiber a dedicated goroutine which
	// blocks on its mailbox while suspended. This is the default, hardened
	// strategy.
	WorkerBackend Backend = iota

	// ContinuationBackend multiplexes fibers on the owner's logical
	// timeline using `pkg/cont` rendezvous handoffs instead of parking
	// separate workers. Experimental.
	ContinuationBackend
)

func (b Backend) String() string {
	switch b {
	case WorkerBackend:
		return "worker"
	case ContinuationBackend:
		return "continuation"
	default:
		return "unknown"
	}
}

type config struct {
	backend      Backend
	logHandler   slog.Handler
	msink        metrics.MetricSink
	metricLabels []metrics.Label
	rootName     string
}

// Option to pass to `Create`
type Option func(*config) error

// WithBackend selects the execution strategy of the manager.
func WithBackend(backend Backend) Option {
	return func(c *config) error {
		if backend > ContinuationBackend {
			return fmt.Errorf("unknown backend %d", backend)
		}
		c.backend = backend
		return nil
	}
}

// WithLog specifies which `slog.Handler` to use.
func WithLog(handler slog.Handler) Option {
	return func(c *config) error {
		c.logHandler = handler
		return nil
	}
}

// WithMetricSink allows you to chose how to collect the metrics emitted
// by the manager.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *config) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.msink = ms
		return nil
	}
}

// WithMetricLabels adds static labels to all metrics produced by the
// manager.
func WithMetricLabels(labels []metrics.Label) Option {
	return func(c *config) error {
		c.metricLabels = labels
		return nil
	}
}

// WithRootFiberName overrides the name given to the root fiber.
func WithRootFiberName(name string) Option {
	return func(c *config) error {
		if !ValidateFiberName(name) {
			return ErrNameInvalid
		}
		c.rootName = name
		return nil
	}
}
