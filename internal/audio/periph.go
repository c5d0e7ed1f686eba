//go:build linux

package audio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PeriphDriver drives the horn pin with periph.io PWM.
type PeriphDriver struct {
	pin  gpio.PinIO
	freq physic.Frequency
	duty gpio.Duty
}

// NewPeriphDriver initialises the periph host and claims the BCM pin. The pin
// is driven high (horn off) before returning.
func NewPeriphDriver(pin int) (*PeriphDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return nil, fmt.Errorf("horn pin GPIO%d not found", pin)
	}
	d := &PeriphDriver{pin: p, freq: 1000 * physic.Hertz, duty: gpio.DutyMax}
	if err := p.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("silence horn pin GPIO%d: %w", pin, err)
	}
	return d, nil
}

// SetFrequency sets the carrier frequency, keeping the current duty.
func (d *PeriphDriver) SetFrequency(hz int) error {
	d.freq = physic.Frequency(hz) * physic.Hertz
	return d.apply()
}

// SetDutyFraction sets the duty cycle, keeping the current frequency.
func (d *PeriphDriver) SetDutyFraction(f float64) error {
	switch {
	case f <= 0:
		d.duty = 0
	case f >= 1:
		d.duty = gpio.DutyMax
	default:
		d.duty = gpio.Duty(f * float64(gpio.DutyMax))
	}
	return d.apply()
}

// Close drives the pin high so the horn stays off, then releases it.
func (d *PeriphDriver) Close() error {
	if err := d.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("silence horn: %w", err)
	}
	return d.pin.Halt()
}

func (d *PeriphDriver) apply() error {
	// The extremes are plain levels; PWM at 0% or 100% is not portable
	// across periph drivers.
	switch d.duty {
	case gpio.DutyMax:
		return d.pin.Out(gpio.High)
	case 0:
		return d.pin.Out(gpio.Low)
	}
	return d.pin.PWM(d.duty, d.freq)
}
