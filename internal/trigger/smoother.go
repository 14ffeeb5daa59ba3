package trigger

import (
	"fmt"

	"github.com/sweeney/gpiodev/internal/diag"
)

// Smoother derives an activation decision from a fixed-length rolling window
// of recent boolean samples: active when the fraction of active samples meets
// the threshold. Used for noisy sensors (motion, light) where a single raw
// sample is not trustworthy.
//
// Not safe for concurrent use; call Add from one sampling goroutine.
type Smoother struct {
	buf       []bool
	head      int // next write position
	count     int
	active    int
	threshold float64
	partial   bool
}

// NewSmoother creates a Smoother over a window of queueLen samples.
// threshold is the activation fraction in [0, 1]. If partial is false the
// window reports inactive until it has filled once, preventing false triggers
// immediately after construction; if true, activation is computed on whatever
// samples exist so far.
func NewSmoother(queueLen int, threshold float64, partial bool) (*Smoother, error) {
	if queueLen <= 0 {
		return nil, fmt.Errorf("trigger: queue length %d must be positive: %w", queueLen, diag.ErrInvalidConfig)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("trigger: threshold %v outside [0,1]: %w", threshold, diag.ErrInvalidConfig)
	}
	return &Smoother{
		buf:       make([]bool, queueLen),
		threshold: threshold,
		partial:   partial,
	}, nil
}

// Add inserts a sample, evicting the oldest once the window is full.
func (s *Smoother) Add(active bool) {
	if s.count == len(s.buf) {
		// head points at the oldest entry; overwrite it.
		if s.buf[s.head] {
			s.active--
		}
	} else {
		s.count++
	}
	s.buf[s.head] = active
	if active {
		s.active++
	}
	s.head = (s.head + 1) % len(s.buf)
}

// Active reports whether the fraction of active samples in the window meets
// the threshold. Before the window has filled, Active is false unless the
// Smoother was built with partial=true.
func (s *Smoother) Active() bool {
	if s.count == 0 {
		return false
	}
	if !s.partial && s.count < len(s.buf) {
		return false
	}
	return float64(s.active)/float64(s.count) >= s.threshold
}

// Full reports whether the window has filled at least once.
func (s *Smoother) Full() bool {
	return s.count == len(s.buf)
}

// Len returns the number of samples currently held.
func (s *Smoother) Len() int {
	return s.count
}

// Reset discards all samples.
func (s *Smoother) Reset() {
	s.head = 0
	s.count = 0
	s.active = 0
}
