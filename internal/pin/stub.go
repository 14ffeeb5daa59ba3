//go:build !linux

package pin

import "errors"

// RealFactory is not available on non-Linux platforms.
type RealFactory struct{}

// NewRealFactory returns an error on non-Linux platforms.
func NewRealFactory(chipName string) (*RealFactory, error) {
	return nil, errors.New("pin: gpio chips not supported on this platform (requires Linux)")
}

// Open is not implemented on non-Linux platforms.
func (f *RealFactory) Open(req Request) (Pin, error) {
	return nil, errors.New("pin: not supported")
}

// Close is not implemented on non-Linux platforms.
func (f *RealFactory) Close() error {
	return nil
}
