//go:build !linux

package audio

import "errors"

// PeriphDriver is not available on non-Linux platforms.
type PeriphDriver struct{}

// NewPeriphDriver returns an error on non-Linux platforms.
func NewPeriphDriver(pin int) (*PeriphDriver, error) {
	return nil, errors.New("audio: horn PWM not supported on this platform (requires Linux)")
}

// SetFrequency is not implemented on non-Linux platforms.
func (d *PeriphDriver) SetFrequency(hz int) error {
	return errors.New("audio: not supported")
}

// SetDutyFraction is not implemented on non-Linux platforms.
func (d *PeriphDriver) SetDutyFraction(f float64) error {
	return errors.New("audio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *PeriphDriver) Close() error {
	return nil
}
