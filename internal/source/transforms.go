package source

// Transforms wrap a Source in another Source. They are pure value plumbing:
// each pull of the wrapper pulls once from the inner source, and exhaustion
// passes straight through.

// Scaled maps values from [inMin, inMax] to [outMin, outMax].
func Scaled(s Source, inMin, inMax, outMin, outMax float64) Source {
	span := inMax - inMin
	return Func(func() (float64, bool) {
		v, ok := s.Next()
		if !ok {
			return 0, false
		}
		if span == 0 {
			return outMin, true
		}
		return outMin + (v-inMin)/span*(outMax-outMin), true
	})
}

// Inverted flips a [0, 1] value: 0 becomes 1 and vice versa.
func Inverted(s Source) Source {
	return Func(func() (float64, bool) {
		v, ok := s.Next()
		if !ok {
			return 0, false
		}
		return 1 - v, true
	})
}

// Negated flips the sign of a [-1, 1] value.
func Negated(s Source) Source {
	return Func(func() (float64, bool) {
		v, ok := s.Next()
		if !ok {
			return 0, false
		}
		return -v, true
	})
}

// Clamped limits values to [min, max].
func Clamped(s Source, min, max float64) Source {
	return Func(func() (float64, bool) {
		v, ok := s.Next()
		if !ok {
			return 0, false
		}
		if v < min {
			v = min
		} else if v > max {
			v = max
		}
		return v, true
	})
}

// Averaged yields the mean of one pull from each source, ending when any of
// them ends.
func Averaged(sources ...Source) Source {
	return Func(func() (float64, bool) {
		if len(sources) == 0 {
			return 0, false
		}
		var sum float64
		for _, s := range sources {
			v, ok := s.Next()
			if !ok {
				return 0, false
			}
			sum += v
		}
		return sum / float64(len(sources)), true
	})
}
