// Package diag carries non-fatal runtime faults out of the sampling and pump
// loops. Callback panics, producer failures and suspicious configuration
// changes are reported here instead of killing the loop that hit them — a
// transient fault in one device must never halt unrelated hardware control.
package diag

import (
	"errors"

	"go.uber.org/zap"
)

// ErrInvalidConfig is wrapped by all construction-time validation failures.
// Constructors return it immediately; validation is never deferred to the
// first sample.
var ErrInvalidConfig = errors.New("invalid configuration")

// Kind classifies a diagnostic.
type Kind string

const (
	// KindCallbackFault is a recovered panic from a user callback.
	KindCallbackFault Kind = "callback_fault"
	// KindProducerFault is an error from a value source feeding a pump.
	KindProducerFault Kind = "producer_fault"
	// KindProducerDone means a finite source ended and its pump stopped.
	KindProducerDone Kind = "producer_done"
	// KindCallbackCleared means a previously-set callback was set to nil.
	// Valid, but a documented foot-gun worth surfacing.
	KindCallbackCleared Kind = "callback_cleared"
	// KindWarning is a general non-fatal condition (pin read failure, etc.).
	KindWarning Kind = "warning"
)

// Diagnostic is a single reported condition.
type Diagnostic struct {
	Kind   Kind
	Origin string // device or component name that hit the condition
	Err    error  // nil for informational kinds
	Detail string
}

// Reporter receives diagnostics. Implementations must be safe for concurrent
// use; Report is called from sampling and pump goroutines.
type Reporter interface {
	Report(d Diagnostic)
}

// logReporter writes diagnostics to a zap logger.
type logReporter struct {
	log *zap.Logger
}

// NewLogReporter returns a Reporter backed by the given logger.
func NewLogReporter(log *zap.Logger) Reporter {
	return &logReporter{log: log}
}

func (r *logReporter) Report(d Diagnostic) {
	fields := []zap.Field{
		zap.String("kind", string(d.Kind)),
		zap.String("origin", d.Origin),
	}
	if d.Detail != "" {
		fields = append(fields, zap.String("detail", d.Detail))
	}
	if d.Err != nil {
		fields = append(fields, zap.Error(d.Err))
	}

	switch d.Kind {
	case KindCallbackFault, KindProducerFault:
		r.log.Error("device fault", fields...)
	case KindProducerDone:
		r.log.Info("source ended", fields...)
	default:
		r.log.Warn("device warning", fields...)
	}
}

// Nop returns a Reporter that discards everything.
func Nop() Reporter {
	return &logReporter{log: zap.NewNop()}
}
