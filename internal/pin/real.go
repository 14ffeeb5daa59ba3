//go:build linux

package pin

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealFactory opens pins on a local GPIO character device.
type RealFactory struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
}

// NewRealFactory opens the given chip (typically "gpiochip0").
func NewRealFactory(chipName string) (*RealFactory, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &RealFactory{chip: chip}, nil
}

// Open requests the line described by req.
func (f *RealFactory) Open(req Request) (Pin, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chip == nil {
		return nil, fmt.Errorf("pin %d: factory closed", req.Number)
	}

	var opts []gpiocdev.LineReqOption
	switch req.Mode {
	case ModeInput:
		opts = append(opts, gpiocdev.AsInput)
		switch req.Pull {
		case PullUp:
			opts = append(opts, gpiocdev.WithPullUp)
		case PullDown:
			opts = append(opts, gpiocdev.WithPullDown)
		}
	case ModeOutput:
		initial := 0
		if req.Initial >= 0.5 {
			initial = 1
		}
		opts = append(opts, gpiocdev.AsOutput(initial))
	}

	line, err := f.chip.RequestLine(req.Number, opts...)
	if err != nil {
		return nil, fmt.Errorf("request pin %d: %w", req.Number, err)
	}
	return &realPin{line: line, number: req.Number}, nil
}

// Close releases the chip.
func (f *RealFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chip == nil {
		return nil
	}
	err := f.chip.Close()
	f.chip = nil
	if err != nil {
		return fmt.Errorf("close gpio chip: %w", err)
	}
	return nil
}

// realPin is a requested line on a local chip. Digital only: reads report
// 0 or 1, writes are thresholded at 0.5.
type realPin struct {
	mu     sync.Mutex
	line   *gpiocdev.Line
	number int
}

func (p *realPin) Read() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line == nil {
		return 0, fmt.Errorf("pin %d: line closed", p.number)
	}
	v, err := p.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read pin %d: %w", p.number, err)
	}
	if v != 0 {
		return 1, nil
	}
	return 0, nil
}

func (p *realPin) Write(v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line == nil {
		return fmt.Errorf("pin %d: line closed", p.number)
	}
	out := 0
	if v >= 0.5 {
		out = 1
	}
	if err := p.line.SetValue(out); err != nil {
		return fmt.Errorf("write pin %d: %w", p.number, err)
	}
	return nil
}

func (p *realPin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.line == nil {
		return nil
	}
	err := p.line.Close()
	p.line = nil
	if err != nil {
		return fmt.Errorf("close pin %d: %w", p.number, err)
	}
	return nil
}
