package trigger

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpiodev/internal/diag"
)

const hold = 100 * time.Millisecond

// settle gives background goroutines a chance to reach their timer select
// before the mock clock advances.
func settle() { time.Sleep(20 * time.Millisecond) }

func waitForCount(t *testing.T, c *atomic.Int32, want int32) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Load() == want },
		time.Second, 5*time.Millisecond, "held count never reached %d", want)
}

func TestHoldTrackerRejectsBadHoldTime(t *testing.T) {
	_, err := NewHoldTracker("test", 0, false, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewHoldTracker("test", -time.Second, false, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
}

func TestHoldTrackerFiresAfterHoldTime(t *testing.T) {
	mock := clock.NewMock()
	h, err := NewHoldTracker("test", hold, false, mock, nil)
	require.NoError(t, err)
	defer h.Close()

	var held atomic.Int32
	h.SetOnHeld(func() { held.Add(1) })

	h.Update(true)
	settle()
	mock.Add(hold)
	waitForCount(t, &held, 1)
	assert.True(t, h.IsHeld())

	// Without repeat the timer does not re-arm.
	settle()
	mock.Add(2 * hold)
	settle()
	assert.Equal(t, int32(1), held.Load())
}

func TestHoldTrackerCancelledByDeactivation(t *testing.T) {
	mock := clock.NewMock()
	h, err := NewHoldTracker("test", hold, false, mock, nil)
	require.NoError(t, err)
	defer h.Close()

	var held atomic.Int32
	h.SetOnHeld(func() { held.Add(1) })

	h.Update(true)
	settle()
	mock.Add(hold / 2)
	h.Update(false)
	settle()
	mock.Add(2 * hold)
	settle()

	assert.Equal(t, int32(0), held.Load(), "deactivation before hold time must cancel")
	assert.False(t, h.IsHeld())
}

func TestHoldTrackerRepeats(t *testing.T) {
	mock := clock.NewMock()
	h, err := NewHoldTracker("test", hold, true, mock, nil)
	require.NoError(t, err)
	defer h.Close()

	var held atomic.Int32
	h.SetOnHeld(func() { held.Add(1) })

	h.Update(true)

	// Held for 2.5 x hold time: fires at 1x and 2x, not at 2.5x.
	settle()
	mock.Add(hold)
	waitForCount(t, &held, 1)
	settle()
	mock.Add(hold)
	waitForCount(t, &held, 2)
	settle()
	mock.Add(hold / 2)
	h.Update(false)
	settle()

	assert.Equal(t, int32(2), held.Load())
}

func TestHoldTrackerReArmsOnNextActivation(t *testing.T) {
	mock := clock.NewMock()
	h, err := NewHoldTracker("test", hold, false, mock, nil)
	require.NoError(t, err)
	defer h.Close()

	var held atomic.Int32
	h.SetOnHeld(func() { held.Add(1) })

	h.Update(true)
	settle()
	mock.Add(hold)
	waitForCount(t, &held, 1)

	h.Update(false)
	settle()
	h.Update(true)
	assert.False(t, h.IsHeld(), "held state resets on a fresh activation")
	settle()
	mock.Add(hold)
	waitForCount(t, &held, 2)
}

func TestHoldTrackerHeldCallbackPanicIsolated(t *testing.T) {
	mock := clock.NewMock()
	rec := diag.NewRecorder()
	h, err := NewHoldTracker("test", hold, false, mock, rec)
	require.NoError(t, err)
	defer h.Close()

	h.SetOnHeld(func() { panic("held bug") })

	h.Update(true)
	settle()
	mock.Add(hold)

	require.Eventually(t, func() bool {
		return len(rec.OfKind(diag.KindCallbackFault)) == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, h.Active(), "dispatcher state survives a held panic")
}

func TestHoldTrackerCloseJoinsTimer(t *testing.T) {
	mock := clock.NewMock()
	h, err := NewHoldTracker("test", hold, true, mock, nil)
	require.NoError(t, err)

	var held atomic.Int32
	h.SetOnHeld(func() { held.Add(1) })

	h.Update(true)
	settle()
	h.Close()

	before := held.Load()
	mock.Add(5 * hold)
	settle()
	assert.Equal(t, before, held.Load(), "no held fires after Close returns")
}

func TestHoldTrackerEventCallbacksStillEdgeTriggered(t *testing.T) {
	mock := clock.NewMock()
	h, err := NewHoldTracker("test", hold, false, mock, nil)
	require.NoError(t, err)
	defer h.Close()

	var activations int
	h.SetOnActivate(func() { activations++ })

	h.Update(true)
	h.Update(true)
	h.Update(true)
	assert.Equal(t, 1, activations)
}
