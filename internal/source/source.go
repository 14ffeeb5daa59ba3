// Package source implements the producer→pump→sink pipeline that drives one
// device's value from another device or from a generator. A Source is a lazy,
// possibly-infinite sequence of scalars; the Pump is the only mover, and it
// never transforms values — scaling, inversion and combination are composable
// Source wrappers applied before the pump sees them.
package source

import "sync"

// Source is a lazy sequence of values. Next returns ok=false once the
// sequence is exhausted; infinite sources never do. Exhaustion is an expected
// end, not an error.
type Source interface {
	Next() (v float64, ok bool)
}

// Fallible is implemented by sources that can fail mid-stream. After Next
// returns ok=false, Err reports whether the end was a fault or a clean
// exhaustion (nil).
type Fallible interface {
	Err() error
}

// Func adapts a function to the Source interface.
type Func func() (float64, bool)

// Next calls the function.
func (f Func) Next() (float64, bool) { return f() }

// FromSlice returns a finite Source yielding the given values in order.
func FromSlice(values []float64) Source {
	i := 0
	return Func(func() (float64, bool) {
		if i >= len(values) {
			return 0, false
		}
		v := values[i]
		i++
		return v, true
	})
}

// FromChan returns a Source that yields values received from ch, ending when
// ch is closed.
func FromChan(ch <-chan float64) Source {
	return Func(func() (float64, bool) {
		v, ok := <-ch
		return v, ok
	})
}

// Repeat returns an infinite Source always yielding v.
func Repeat(v float64) Source {
	return Func(func() (float64, bool) { return v, true })
}

// ValueReader is anything with a readable scalar value — typically a device.
type ValueReader interface {
	Value() (float64, error)
}

// Values returns an infinite Source reading r on every pull. This is the
// cross-device wire: a pump pulling Values(buttonDevice) into an LED makes
// the LED follow the button. If a read fails (for example the device was
// closed), the source ends and Err reports the failure.
func Values(r ValueReader) Source {
	return &readerSource{r: r}
}

type readerSource struct {
	mu  sync.Mutex
	r   ValueReader
	err error
}

func (s *readerSource) Next() (float64, bool) {
	v, err := s.r.Value()
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return 0, false
	}
	return v, true
}

func (s *readerSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
