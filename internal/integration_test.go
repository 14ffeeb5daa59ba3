package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpiodev/internal/device"
	"github.com/sweeney/gpiodev/internal/pin"
	"github.com/sweeney/gpiodev/internal/remote"
	"github.com/sweeney/gpiodev/internal/source"
)

const tick = time.Millisecond

// TestIntegrationButtonToPublisher tests the complete flow from a fake pin
// through debounce, events and hold tracking to the MQTT publisher.
func TestIntegrationButtonToPublisher(t *testing.T) {
	factory := pin.NewFakeFactory()
	factory.Pin(17).Set(1) // pulled up, not pressed

	publisher := remote.NewFakePublisher()

	btn, err := device.NewButton(factory, 17, device.ButtonConfig{
		Poll:     tick,
		Bounce:   5 * tick,
		HoldTime: 50 * time.Millisecond,
	}, nil, nil)
	require.NoError(t, err)
	defer btn.Close()

	publish := func(kind remote.EventKind) func() {
		return func() {
			v, _ := btn.Value()
			publisher.Publish(remote.Event{
				Timestamp: time.Now(),
				Device:    btn.Name(),
				Kind:      kind,
				Value:     v,
			})
		}
	}
	btn.SetWhenPressed(publish(remote.EventActivated))
	btn.SetWhenReleased(publish(remote.EventDeactivated))
	require.NoError(t, btn.SetWhenHeld(publish(remote.EventHeld)))

	// Press, hold past the hold time, release.
	factory.Pin(17).Set(0)
	require.Eventually(t, btn.IsPressed, time.Second, tick)
	require.Eventually(t, btn.IsHeld, time.Second, tick)

	factory.Pin(17).Set(1)
	require.Eventually(t, func() bool { return !btn.IsPressed() }, time.Second, tick)
	require.Eventually(t, func() bool { return publisher.EventCount() >= 3 }, time.Second, tick)

	events := publisher.AllEvents()
	require.Len(t, events, 3)
	assert.Equal(t, remote.EventActivated, events[0].Kind)
	assert.Equal(t, 1.0, events[0].Value)
	assert.Equal(t, remote.EventHeld, events[1].Kind)
	assert.Equal(t, remote.EventDeactivated, events[2].Kind)
	assert.Equal(t, 0.0, events[2].Value)
	for _, e := range events {
		assert.Equal(t, "button-17", e.Device)
	}
}

// TestIntegrationLEDFollowsButton tests the value pump path: the LED mirrors
// the button's logical value through a source.
func TestIntegrationLEDFollowsButton(t *testing.T) {
	factory := pin.NewFakeFactory()
	factory.Pin(17).Set(1)

	btn, err := device.NewButton(factory, 17, device.ButtonConfig{Poll: tick}, nil, nil)
	require.NoError(t, err)
	defer btn.Close()

	led, err := device.NewLED(factory, 27, false, nil, nil)
	require.NoError(t, err)

	require.NoError(t, led.SetSource(source.Values(btn), tick))

	factory.Pin(17).Set(0)
	require.Eventually(t, func() bool { return factory.Pin(27).State() == 1 }, time.Second, tick)

	factory.Pin(17).Set(1)
	require.Eventually(t, func() bool { return factory.Pin(27).State() == 0 }, time.Second, tick)

	// LED closes first: its pump reads the button.
	require.NoError(t, led.Close())
	require.NoError(t, btn.Close())
}

// TestIntegrationDebounceSuppressesGlitches tests that a scripted glitchy pin
// produces no events when the glitch is shorter than the bounce time.
func TestIntegrationDebounceSuppressesGlitches(t *testing.T) {
	factory := pin.NewFakeFactory()
	p := factory.Pin(17)
	p.Set(1)

	btn, err := device.NewButton(factory, 17, device.ButtonConfig{
		Poll:   tick,
		Bounce: 20 * tick,
	}, nil, nil)
	require.NoError(t, err)
	defer btn.Close()

	publisher := remote.NewFakePublisher()
	btn.SetWhenPressed(func() {
		publisher.Publish(remote.Event{Device: btn.Name(), Kind: remote.EventActivated})
	})

	// A two-sample glitch, far below the 20-sample bounce.
	p.Set(0)
	time.Sleep(2 * tick)
	p.Set(1)

	time.Sleep(40 * tick)
	assert.Equal(t, 0, publisher.EventCount(), "glitch below the bounce time is suppressed")
	assert.False(t, btn.IsPressed())
}
