package source

import (
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
)

// Generators are infinite sources computed from the clock or a PRNG. The
// time-based ones derive the value from elapsed wall time rather than pull
// count, so they stay correct whatever cadence the pump runs at.

// Sine yields a sine wave mapped into [0, 1] with the given period.
func Sine(period time.Duration, clk clock.Clock) Source {
	if clk == nil {
		clk = clock.New()
	}
	start := clk.Now()
	return Func(func() (float64, bool) {
		phase := float64(clk.Now().Sub(start)%period) / float64(period)
		return (math.Sin(2*math.Pi*phase) + 1) / 2, true
	})
}

// Ramp yields a sawtooth rising from 0 to 1 over the given period.
func Ramp(period time.Duration, clk clock.Clock) Source {
	if clk == nil {
		clk = clock.New()
	}
	start := clk.Now()
	return Func(func() (float64, bool) {
		return float64(clk.Now().Sub(start)%period) / float64(period), true
	})
}

// Square yields 1 for onTime then 0 for offTime, repeating. Pumped into an
// output device this is a blink.
func Square(onTime, offTime time.Duration, clk clock.Clock) Source {
	if clk == nil {
		clk = clock.New()
	}
	start := clk.Now()
	period := onTime + offTime
	return Func(func() (float64, bool) {
		if float64(clk.Now().Sub(start)%period) < float64(onTime) {
			return 1, true
		}
		return 0, true
	})
}

// Random yields uniform values in [0, 1) from the given PRNG (a shared
// default when nil).
func Random(rng *rand.Rand) Source {
	next := rand.Float64
	if rng != nil {
		next = rng.Float64
	}
	return Func(func() (float64, bool) {
		return next(), true
	})
}
