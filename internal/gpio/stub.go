//go:build !linux

package gpio

import (
	"errors"
	"fmt"
)

var errUnsupported = errors.New("gpio: sensor inputs need the Linux GPIO character device")

// RealReader is not available on non-Linux platforms. Use the simulator or
// FakeReader instead.
type RealReader struct{}

// NewRealReader always fails on non-Linux platforms.
func NewRealReader(pinPIR, pinMwave int) (*RealReader, error) {
	return nil, fmt.Errorf("open PIR pin %d and microwave pin %d: %w", pinPIR, pinMwave, errUnsupported)
}

func (r *RealReader) Read() (bool, bool, error) {
	return false, false, errUnsupported
}

func (r *RealReader) Close() error {
	return nil
}
