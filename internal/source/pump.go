package source

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/sweeney/gpiodev/internal/diag"
)

// Sink is an assignable value target — typically an output device.
type Sink interface {
	SetValue(v float64) error
}

// Pump continuously moves values from a producer to a sink at a fixed
// cadence on its own goroutine. It stops when told to, when the producer is
// exhausted, or when the sink rejects a write; it never transforms values.
//
// A Pump is single-use: Start once, Stop any number of times. Replacing a
// device's source means stopping the old pump and starting a fresh one.
type Pump struct {
	clk      clock.Clock
	reporter diag.Reporter
	origin   string

	mu        sync.Mutex
	started   bool
	running   bool
	cancelled bool
	cancel    chan struct{}
	done      chan struct{}
}

// NewPump creates an idle pump.
func NewPump(origin string, clk clock.Clock, reporter diag.Reporter) *Pump {
	if clk == nil {
		clk = clock.New()
	}
	if reporter == nil {
		reporter = diag.Nop()
	}
	return &Pump{clk: clk, reporter: reporter, origin: origin}
}

// Start spawns the pump goroutine: pull from producer, assign to sink, sleep
// interval, repeat. Returns an error if the pump was already started or the
// parameters are invalid.
func (p *Pump) Start(producer Source, sink Sink, interval time.Duration) error {
	if producer == nil {
		return fmt.Errorf("pump %s: nil producer: %w", p.origin, diag.ErrInvalidConfig)
	}
	if sink == nil {
		return fmt.Errorf("pump %s: nil sink: %w", p.origin, diag.ErrInvalidConfig)
	}
	if interval <= 0 {
		return fmt.Errorf("pump %s: interval %v must be positive: %w", p.origin, interval, diag.ErrInvalidConfig)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("pump %s: already started", p.origin)
	}
	p.started = true
	p.running = true
	p.cancel = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(producer, sink, interval)
	return nil
}

func (p *Pump) run(producer Source, sink Sink, interval time.Duration) {
	defer close(p.done)
	defer p.markStopped()

	for {
		v, ok, fault := p.pull(producer)
		if fault {
			return
		}
		if !ok {
			p.reportEnd(producer)
			return
		}

		if err := sink.SetValue(v); err != nil {
			p.reporter.Report(diag.Diagnostic{
				Kind:   diag.KindProducerFault,
				Origin: p.origin,
				Err:    fmt.Errorf("sink write: %w", err),
			})
			return
		}

		t := p.clk.Timer(interval)
		select {
		case <-p.cancel:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// pull reads the next value, converting a producer panic into a diagnostic.
func (p *Pump) pull(producer Source) (v float64, ok, fault bool) {
	defer func() {
		if r := recover(); r != nil {
			fault = true
			p.reporter.Report(diag.Diagnostic{
				Kind:   diag.KindProducerFault,
				Origin: p.origin,
				Err:    fmt.Errorf("producer panic: %v", r),
			})
		}
	}()
	v, ok = producer.Next()
	return v, ok, false
}

// reportEnd distinguishes clean exhaustion from a mid-stream fault.
func (p *Pump) reportEnd(producer Source) {
	if f, isFallible := producer.(Fallible); isFallible {
		if err := f.Err(); err != nil {
			p.reporter.Report(diag.Diagnostic{
				Kind:   diag.KindProducerFault,
				Origin: p.origin,
				Err:    err,
			})
			return
		}
	}
	p.reporter.Report(diag.Diagnostic{
		Kind:   diag.KindProducerDone,
		Origin: p.origin,
	})
}

func (p *Pump) markStopped() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Stop halts the pump and waits for its goroutine to exit. Once Stop returns
// no further sink writes will occur. Idempotent and safe from any goroutine;
// a no-op on a pump that never started.
func (p *Pump) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	if !p.cancelled {
		p.cancelled = true
		close(p.cancel)
	}
	done := p.done
	p.mu.Unlock()
	<-done
}

// Running reports whether the pump goroutine is still moving values. A pump
// whose producer ended reports false even before Stop is called.
func (p *Pump) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
