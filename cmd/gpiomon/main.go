// Command gpiomon monitors GPIO input devices (a button and a motion sensor),
// mirrors the button onto an LED through a value pump, publishes transition
// events to MQTT, and serves a status page over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sweeney/gpiodev/internal/device"
	"github.com/sweeney/gpiodev/internal/diag"
	"github.com/sweeney/gpiodev/internal/pin"
	"github.com/sweeney/gpiodev/internal/remote"
	"github.com/sweeney/gpiodev/internal/source"
	"github.com/sweeney/gpiodev/internal/status"
	"github.com/sweeney/gpiodev/internal/web"
)

// Default BCM pin assignments; all overridable by flags.
const (
	defaultPinButton = 17
	defaultPinMotion = 4
	defaultPinLED    = 27
)

type options struct {
	backend   string
	chip      string
	broker    string
	httpAddr  string
	poll      time.Duration
	bounce    time.Duration
	holdTime  time.Duration
	queueLen  int
	threshold float64
	partial   bool
	pinButton int
	pinMotion int
	pinLED    int
}

func main() {
	var opts options
	flag.StringVar(&opts.backend, "backend", "local", "Pin backend: local, remote (pins over MQTT) or fake")
	flag.StringVar(&opts.chip, "chip", "gpiochip0", "GPIO character device (local backend)")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable publishing)")
	flag.StringVar(&opts.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.DurationVar(&opts.poll, "poll", 10*time.Millisecond, "Input sampling interval")
	flag.DurationVar(&opts.bounce, "bounce", 50*time.Millisecond, "Button debounce duration (0 to disable)")
	flag.DurationVar(&opts.holdTime, "hold", 1*time.Second, "Button hold time")
	flag.IntVar(&opts.queueLen, "queue-len", 5, "Motion sensor smoothing window length")
	flag.Float64Var(&opts.threshold, "threshold", 0.5, "Motion sensor activation fraction")
	flag.BoolVar(&opts.partial, "partial", false, "Allow motion activation before the window fills")
	flag.IntVar(&opts.pinButton, "pin-button", defaultPinButton, "BCM pin for the button (-1 to disable)")
	flag.IntVar(&opts.pinMotion, "pin-motion", defaultPinMotion, "BCM pin for the motion sensor (-1 to disable)")
	flag.IntVar(&opts.pinLED, "pin-led", defaultPinLED, "BCM pin for the LED (-1 to disable)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(opts, log); err != nil {
		log.Fatal("fatal", zap.Error(err))
	}
}

// newFactory builds the pin backend selected by flags.
func newFactory(opts options) (pin.Factory, error) {
	switch opts.backend {
	case "local":
		return pin.NewRealFactory(opts.chip)
	case "remote":
		if opts.broker == "" {
			return nil, fmt.Errorf("remote backend requires -broker")
		}
		return remote.NewPinFactory(opts.broker, "")
	case "fake":
		return pin.NewFakeFactory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.backend)
	}
}

func run(opts options, log *zap.Logger) error {
	factory, err := newFactory(opts)
	if err != nil {
		return fmt.Errorf("init pins: %w", err)
	}
	defer factory.Close()

	reporter := diag.NewLogReporter(log)

	// MQTT publishing is optional.
	var publisher remote.Publisher = remote.NewFakePublisher()
	var connStatus remote.ConnectionStatus
	if opts.broker != "" {
		p, err := remote.NewBrokerPublisher(opts.broker, log)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher = p
		connStatus = p
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:   opts.poll.Milliseconds(),
		BounceMs: opts.bounce.Milliseconds(),
		Broker:   opts.broker,
		HTTPAddr: opts.httpAddr,
	})

	devices, closers, err := buildDevices(factory, opts, tracker, publisher, log, reporter)
	if err != nil {
		return err
	}
	defer func() {
		var cerr error
		for _, c := range closers {
			cerr = multierr.Append(cerr, c())
		}
		if cerr != nil {
			log.Warn("device teardown", zap.Error(cerr))
		}
	}()
	if len(devices) == 0 {
		return fmt.Errorf("all devices disabled")
	}

	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("http server", zap.Error(err))
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("http status server listening", zap.String("addr", opts.httpAddr))
	}

	if err := publisher.PublishSystem(remote.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}); err != nil {
		log.Warn("publish startup event", zap.Error(err))
	}

	log.Info("started",
		zap.String("backend", opts.backend),
		zap.Duration("poll", opts.poll),
		zap.Duration("bounce", opts.bounce),
		zap.String("broker", opts.broker))

	return mainLoop(tracker, devices, connStatus, publisher, log)
}

// tracked pairs a device with how the status tracker sees it.
type tracked struct {
	name   string
	reader device.ValueReader
	active func() bool
}

// mainLoop refreshes the tracker until SIGINT/SIGTERM. Event detection
// happens on each device's own sampling goroutine; this loop only mirrors
// state for the status page.
func mainLoop(tracker *status.Tracker, devices []tracked, connStatus remote.ConnectionStatus, publisher remote.Publisher, log *zap.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case s := <-sigCh:
			log.Info("shutting down", zap.String("signal", s.String()))
			if err := publisher.PublishSystem(remote.SystemEvent{
				Timestamp: time.Now(),
				Event:     "SHUTDOWN",
				Reason:    s.String(),
				Retained:  true,
			}); err != nil {
				log.Warn("publish shutdown event", zap.Error(err))
			}
			return nil

		case <-tick.C:
			for _, d := range devices {
				v, err := d.reader.Value()
				if err != nil {
					continue
				}
				tracker.Update(d.name, d.active(), v)
			}
			if connStatus != nil {
				tracker.SetMQTTConnected(connStatus.IsConnected())
			}
		}
	}
}

// buildDevices constructs the enabled devices and wires their callbacks to
// the tracker and publisher. The returned closers tear everything down in
// reverse dependency order (LED's pump reads the button, so LED closes
// first).
func buildDevices(factory pin.Factory, opts options, tracker *status.Tracker, publisher remote.Publisher, log *zap.Logger, reporter diag.Reporter) (devices []tracked, closers []func() error, err error) {
	var button *device.Button
	if opts.pinButton >= 0 {
		button, err = device.NewButton(factory, opts.pinButton, device.ButtonConfig{
			Poll:       opts.poll,
			Bounce:     opts.bounce,
			HoldTime:   opts.holdTime,
			HoldRepeat: true,
		}, nil, reporter)
		if err != nil {
			return nil, closers, err
		}
		closers = append([]func() error{button.Close}, closers...)
		tracker.Register(button.Name(), "button")
		devices = append(devices, tracked{button.Name(), button, button.IsActive})
		wireEvents(button.Name(), button, tracker, publisher, log)
		if err := button.SetWhenHeld(makeEventHandler(button.Name(), remote.EventHeld, button, tracker, publisher, log)); err != nil {
			return nil, closers, err
		}
	}

	if opts.pinMotion >= 0 {
		motion, merr := device.NewMotionSensor(factory, opts.pinMotion, device.MotionSensorConfig{
			Poll:            opts.poll,
			QueueLen:        opts.queueLen,
			WindowThreshold: opts.threshold,
			Partial:         opts.partial,
		}, nil, reporter)
		if merr != nil {
			return nil, closers, merr
		}
		closers = append([]func() error{motion.Close}, closers...)
		tracker.Register(motion.Name(), "motion")
		devices = append(devices, tracked{motion.Name(), motion, motion.IsActive})
		wireEvents(motion.Name(), motion, tracker, publisher, log)
	}

	if opts.pinLED >= 0 {
		led, lerr := device.NewLED(factory, opts.pinLED, false, nil, reporter)
		if lerr != nil {
			return nil, closers, lerr
		}
		// Close the LED before the button: its pump reads the button's value.
		closers = append([]func() error{led.Close}, closers...)
		tracker.Register(led.Name(), "led")
		devices = append(devices, tracked{led.Name(), led, led.IsActive})

		if button != nil {
			if serr := led.SetSource(source.Values(button), opts.poll); serr != nil {
				return nil, closers, serr
			}
			log.Info("led follows button", zap.String("led", led.Name()), zap.String("button", button.Name()))
		} else if berr := led.Blink(time.Second, time.Second); berr != nil {
			return nil, closers, berr
		}
	}

	return devices, closers, nil
}

// wireEvents attaches activation/deactivation handlers that log, count and
// publish.
func wireEvents(name string, d device.Eventer, tracker *status.Tracker, publisher remote.Publisher, log *zap.Logger) {
	var reader device.ValueReader
	if vr, ok := d.(device.ValueReader); ok {
		reader = vr
	}
	d.SetWhenActivated(makeEventHandler(name, remote.EventActivated, reader, tracker, publisher, log))
	d.SetWhenDeactivated(makeEventHandler(name, remote.EventDeactivated, reader, tracker, publisher, log))
}

func makeEventHandler(name string, kind remote.EventKind, reader device.ValueReader, tracker *status.Tracker, publisher remote.Publisher, log *zap.Logger) func() {
	return func() {
		var value float64
		if reader != nil {
			if v, err := reader.Value(); err == nil {
				value = v
			}
		}
		switch kind {
		case remote.EventActivated:
			tracker.CountActivation(name)
		case remote.EventDeactivated:
			tracker.CountDeactivation(name)
		case remote.EventHeld:
			tracker.CountHold(name)
		}
		log.Info("event", zap.String("device", name), zap.String("kind", string(kind)))
		if err := publisher.Publish(remote.Event{
			Timestamp: time.Now(),
			Device:    name,
			Kind:      kind,
			Value:     value,
		}); err != nil {
			log.Warn("publish event", zap.String("device", name), zap.Error(err))
		}
	}
}
