//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the sensors from actual hardware using the Linux GPIO
// character device.
type RealReader struct {
	chip     *gpiocdev.Chip
	pirPin   *gpiocdev.Line
	mwavePin *gpiocdev.Line
}

// NewRealReader requests both sensor lines as inputs.
func NewRealReader(pinPIR, pinMwave int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Pull-down keeps a disconnected sensor reading as "no presence".
	pirLine, err := chip.RequestLine(pinPIR, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request PIR pin %d: %w", pinPIR, err)
	}

	mwaveLine, err := chip.RequestLine(pinMwave, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		pirLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request microwave pin %d: %w", pinMwave, err)
	}

	return &RealReader{
		chip:     chip,
		pirPin:   pirLine,
		mwavePin: mwaveLine,
	}, nil
}

// Read returns the sensor levels. Both sensors are active high.
func (r *RealReader) Read() (bool, bool, error) {
	pir, err := r.pirPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read PIR pin: %w", err)
	}

	mwave, err := r.mwavePin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read microwave pin: %w", err)
	}

	return pir == 1, mwave == 1, nil
}

// Close releases the lines and the chip.
func (r *RealReader) Close() error {
	var errs []error
	if r.pirPin != nil {
		if err := r.pirPin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close PIR pin: %w", err))
		}
	}
	if r.mwavePin != nil {
		if err := r.mwavePin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close microwave pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
