package trigger

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpiodev/internal/diag"
)

func TestDebouncerRejectsNegativeBounce(t *testing.T) {
	_, err := NewDebouncer(-time.Millisecond, false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
}

func TestDebouncerDisabledAcceptsEverySample(t *testing.T) {
	d, err := NewDebouncer(0, false, clock.NewMock())
	require.NoError(t, err)

	assert.True(t, d.Update(true))
	assert.False(t, d.Update(false))
	assert.True(t, d.Update(true))
}

func TestDebouncerShortFlipNeverChangesStable(t *testing.T) {
	mock := clock.NewMock()
	d, err := NewDebouncer(50*time.Millisecond, false, mock)
	require.NoError(t, err)

	// Flip held for 40ms (4 samples at 10ms), then back. Never accepted.
	for i := 0; i < 4; i++ {
		assert.False(t, d.Update(true))
		mock.Add(10 * time.Millisecond)
	}
	assert.False(t, d.Update(false))
	mock.Add(10 * time.Millisecond)
	assert.False(t, d.Update(false))
}

func TestDebouncerLongFlipChangesExactlyOnce(t *testing.T) {
	mock := clock.NewMock()
	d, err := NewDebouncer(50*time.Millisecond, false, mock)
	require.NoError(t, err)

	transitions := 0
	prev := d.Stable()
	for i := 0; i < 10; i++ {
		got := d.Update(true)
		if got != prev {
			transitions++
			prev = got
		}
		mock.Add(10 * time.Millisecond)
	}

	assert.True(t, d.Stable())
	assert.Equal(t, 1, transitions)
}

func TestDebouncerReversalRestartsTiming(t *testing.T) {
	mock := clock.NewMock()
	d, err := NewDebouncer(50*time.Millisecond, false, mock)
	require.NoError(t, err)

	// Pending change for 40ms, reversal, then the flip again: the old 40ms
	// must not count toward the new pending change.
	for i := 0; i < 4; i++ {
		d.Update(true)
		mock.Add(10 * time.Millisecond)
	}
	d.Update(false)
	mock.Add(10 * time.Millisecond)

	for i := 0; i < 4; i++ {
		assert.False(t, d.Update(true), "sample %d after restart", i)
		mock.Add(10 * time.Millisecond)
	}
	// 50ms since the re-flip: accepted now.
	assert.True(t, d.Update(true))
}

func TestDebouncerHonorsInitialState(t *testing.T) {
	mock := clock.NewMock()
	d, err := NewDebouncer(50*time.Millisecond, true, mock)
	require.NoError(t, err)

	assert.True(t, d.Stable())
	// Matching samples keep it stable without any wait.
	assert.True(t, d.Update(true))
}
