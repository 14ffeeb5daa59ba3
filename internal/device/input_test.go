package device

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpiodev/internal/diag"
	"github.com/sweeney/gpiodev/internal/pin"
)

const testPoll = time.Millisecond

func newTestInput(t *testing.T, p *pin.FakePin, cfg InputConfig) *Input {
	t.Helper()
	if cfg.Poll == 0 {
		cfg.Poll = testPoll
	}
	in, err := NewInput(p, cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { in.Close() })
	return in
}

func TestInputValidatesConfig(t *testing.T) {
	p := pin.NewFakePin(17, 0)

	_, err := NewInput(nil, InputConfig{Poll: testPoll}, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewInput(p, InputConfig{Poll: 0}, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewInput(p, InputConfig{Poll: testPoll, Bounce: -time.Millisecond}, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewInput(p, InputConfig{Poll: testPoll, Threshold: 1.5}, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewInput(p, InputConfig{Poll: testPoll, HoldTime: -time.Second}, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
}

func TestSmoothedInputValidatesConfig(t *testing.T) {
	p := pin.NewFakePin(4, 0)

	_, err := NewSmoothedInput(p, SmoothedConfig{Poll: testPoll, QueueLen: 0}, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)

	_, err = NewSmoothedInput(p, SmoothedConfig{Poll: testPoll, QueueLen: 5, WindowThreshold: 2}, nil, nil)
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
}

func TestInputTracksPinState(t *testing.T) {
	p := pin.NewFakePin(17, 0)
	in := newTestInput(t, p, InputConfig{Name: "in"})

	assert.False(t, in.IsActive())

	p.Set(1)
	require.Eventually(t, in.IsActive, time.Second, testPoll)

	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	p.Set(0)
	require.Eventually(t, func() bool { return !in.IsActive() }, time.Second, testPoll)
}

func TestInputActiveLowPolarity(t *testing.T) {
	p := pin.NewFakePin(17, 1) // pulled up, not pressed
	in := newTestInput(t, p, InputConfig{Name: "btn", ActiveLow: true})

	assert.False(t, in.IsActive())
	v, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, 0.0, v, "logical value hides wiring polarity")

	p.Set(0) // pressed to ground
	require.Eventually(t, in.IsActive, time.Second, testPoll)
	v, err = in.Value()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestInputEdgeCallbacks(t *testing.T) {
	p := pin.NewFakePin(17, 0)
	in := newTestInput(t, p, InputConfig{Name: "in"})

	var activated, deactivated atomic.Int32
	in.SetWhenActivated(func() { activated.Add(1) })
	in.SetWhenDeactivated(func() { deactivated.Add(1) })

	p.Set(1)
	require.Eventually(t, func() bool { return activated.Load() == 1 }, time.Second, testPoll)

	// Holding the state steady across many polls must not re-fire.
	time.Sleep(20 * testPoll)
	assert.Equal(t, int32(1), activated.Load())
	assert.Equal(t, int32(0), deactivated.Load())

	p.Set(0)
	require.Eventually(t, func() bool { return deactivated.Load() == 1 }, time.Second, testPoll)
}

func TestInputInitialStateFiresNoEvent(t *testing.T) {
	p := pin.NewFakePin(17, 1) // already active at construction
	in := newTestInput(t, p, InputConfig{Name: "in"})

	var activated atomic.Int32
	in.SetWhenActivated(func() { activated.Add(1) })

	assert.True(t, in.IsActive())
	time.Sleep(20 * testPoll)
	assert.Equal(t, int32(0), activated.Load(), "construction state is not a transition")
}

func TestInputReadErrorSkipsSampleAndContinues(t *testing.T) {
	rec := diag.NewRecorder()
	p := pin.NewFakePin(17, 0)
	in, err := NewInput(p, InputConfig{Name: "in", Poll: testPoll}, nil, rec)
	require.NoError(t, err)
	defer in.Close()

	p.SetReadErr(errFake)
	require.Eventually(t, func() bool { return len(rec.OfKind(diag.KindWarning)) > 0 },
		time.Second, testPoll)

	p.SetReadErr(nil)
	p.Set(1)
	require.Eventually(t, in.IsActive, time.Second, testPoll, "loop keeps sampling after errors")
}

func TestSmoothedInputWindow(t *testing.T) {
	p := pin.NewFakePin(4, 0)
	in, err := NewSmoothedInput(p, SmoothedConfig{
		Name:     "pir",
		Poll:     testPoll,
		QueueLen: 5,
		Partial:  false,
	}, nil, nil)
	require.NoError(t, err)
	defer in.Close()

	// All-active steady state must activate once the window fills.
	p.Set(1)
	require.Eventually(t, in.IsActive, time.Second, testPoll)

	p.Set(0)
	require.Eventually(t, func() bool { return !in.IsActive() }, time.Second, testPoll)
}

func TestInputHold(t *testing.T) {
	p := pin.NewFakePin(17, 0)
	in := newTestInput(t, p, InputConfig{Name: "in", HoldTime: 50 * time.Millisecond})

	var held atomic.Int32
	require.NoError(t, in.SetWhenHeld(func() { held.Add(1) }))

	assert.False(t, in.IsHeld())

	p.Set(1)
	require.Eventually(t, func() bool { return held.Load() == 1 }, time.Second, testPoll)
	assert.True(t, in.IsHeld())

	p.Set(0)
	require.Eventually(t, func() bool { return !in.IsHeld() }, time.Second, testPoll)
}

func TestInputWithoutHoldRejectsHeldCallback(t *testing.T) {
	p := pin.NewFakePin(17, 0)
	in := newTestInput(t, p, InputConfig{Name: "in"})

	err := in.SetWhenHeld(func() {})
	assert.ErrorIs(t, err, diag.ErrInvalidConfig)
	assert.False(t, in.IsHeld())
}

func TestInputWaitForActive(t *testing.T) {
	p := pin.NewFakePin(17, 0)
	in := newTestInput(t, p, InputConfig{Name: "in"})

	done := make(chan bool, 1)
	go func() { done <- in.WaitForActive(2 * time.Second) }()

	time.Sleep(10 * testPoll)
	p.Set(1)

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("WaitForActive never returned")
	}

	assert.False(t, in.WaitForInactive(20*time.Millisecond), "still active, must time out")
}

func TestInputClose(t *testing.T) {
	p := pin.NewFakePin(17, 0)
	in, err := NewInput(p, InputConfig{Name: "in", Poll: testPoll, HoldTime: time.Second}, nil, nil)
	require.NoError(t, err)

	require.NoError(t, in.Close())
	require.NoError(t, in.Close(), "close is idempotent")
	assert.True(t, p.Closed())

	_, err = in.Value()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = in.RawValue()
	assert.ErrorIs(t, err, ErrClosed)
}

var errFake = assert.AnError
