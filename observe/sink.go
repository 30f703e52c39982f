// Package observe carries the "observability channel" spec.md §9 calls for:
// numerical warnings (non-real occupation numbers, Fock-diagonal drift, …)
// are reported here rather than returned as errors, since execution
// continues after them.
package observe

import "go.uber.org/zap"

// Sink receives diagnostic and warning events emitted by the core.
// Warnf is used for spec.md §7 "Numerical warning" conditions; Notef is
// used for informational events (e.g. a soft IO fall-through).
type Sink interface {
	Warnf(format string, args ...interface{})
	Notef(format string, args ...interface{})
}

// noop discards everything; it is the default Sink so that library code
// never requires a logger to run, including in tests.
type noop struct{}

func (noop) Warnf(string, ...interface{}) {}
func (noop) Notef(string, ...interface{}) {}

// Noop is the zero-cost default Sink.
var Noop Sink = noop{}

// zapSink adapts a *zap.SugaredLogger to Sink.
type zapSink struct {
	log *zap.SugaredLogger
}

// NewZapSink builds a Sink backed by a zap logger.
func NewZapSink(log *zap.Logger) Sink {
	return zapSink{log: log.Sugar()}
}

func (z zapSink) Warnf(format string, args ...interface{}) {
	z.log.Warnf(format, args...)
}

func (z zapSink) Notef(format string, args ...interface{}) {
	z.log.Infof(format, args...)
}
