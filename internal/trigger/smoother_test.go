package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpiodev/internal/diag"
)

func TestSmootherRejectsBadConfig(t *testing.T) {
	_, err := NewSmoother(0, 0.5, false)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewSmoother(-3, 0.5, false)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewSmoother(5, -0.1, false)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewSmoother(5, 1.1, false)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
}

func feed(s *Smoother, samples ...bool) {
	for _, v := range samples {
		s.Add(v)
	}
}

func TestSmootherFractionMeetsThreshold(t *testing.T) {
	s, err := NewSmoother(5, 0.5, false)
	require.NoError(t, err)

	// 3/5 active >= 0.5
	feed(s, true, true, true, false, false)
	assert.True(t, s.Active())
}

func TestSmootherFractionBelowThreshold(t *testing.T) {
	s, err := NewSmoother(5, 0.5, false)
	require.NoError(t, err)

	// 1/5 active < 0.5
	feed(s, false, false, true, false, false)
	assert.False(t, s.Active())
}

func TestSmootherPartialWindowPolicy(t *testing.T) {
	strict, err := NewSmoother(10, 0.5, false)
	require.NoError(t, err)
	feed(strict, true, true, true)
	assert.False(t, strict.Active(), "partial=false must stay inactive before the window fills")

	partial, err := NewSmoother(10, 0.5, true)
	require.NoError(t, err)
	feed(partial, true, true, true)
	assert.True(t, partial.Active(), "partial=true computes on the samples so far")
}

func TestSmootherEvictsOldest(t *testing.T) {
	s, err := NewSmoother(3, 0.5, false)
	require.NoError(t, err)

	feed(s, true, true, true)
	assert.True(t, s.Active())

	// Three inactive samples push all the active ones out.
	feed(s, false, false)
	assert.False(t, s.Active())
	feed(s, false)
	assert.False(t, s.Active())
	assert.Equal(t, 3, s.Len())
}

func TestSmootherEmptyAndReset(t *testing.T) {
	s, err := NewSmoother(4, 0.5, true)
	require.NoError(t, err)

	assert.False(t, s.Active(), "empty window is inactive even with partial")

	feed(s, true, true, true, true)
	require.True(t, s.Active())
	require.True(t, s.Full())

	s.Reset()
	assert.False(t, s.Active())
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Full())
}

func TestSmootherThresholdBoundaries(t *testing.T) {
	// threshold 0: any window (even all-inactive) activates once computable.
	s, err := NewSmoother(2, 0, false)
	require.NoError(t, err)
	feed(s, false, false)
	assert.True(t, s.Active())

	// threshold 1: every sample must be active.
	s, err = NewSmoother(2, 1, false)
	require.NoError(t, err)
	feed(s, true, false)
	assert.False(t, s.Active())
	feed(s, true, true)
	assert.True(t, s.Active())
}
