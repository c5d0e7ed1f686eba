package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/gpio"
	"github.com/sweeney/duck-deterrent/internal/matrix"
)

// devices is the hardware the control loop drives.
type devices struct {
	reader  gpio.Reader
	horn    audio.Driver
	leds    matrix.Driver
	closers []func() error
}

// Close releases the devices in reverse order of opening.
func (d *devices) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	d.closers = nil
	return errors.Join(errs...)
}

func openHardware(opts *options) (_ *devices, err error) {
	d := &devices{}
	defer func() {
		if err != nil {
			err = errors.Join(err, d.Close())
		}
	}()

	reader, err := gpio.NewRealReader(opts.pinPIR, opts.pinMwave)
	if err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	d.reader = reader
	d.closers = append(d.closers, reader.Close)

	horn, err := audio.NewPeriphDriver(opts.pinHorn)
	if err != nil {
		return nil, fmt.Errorf("init horn: %w", err)
	}
	d.horn = horn
	d.closers = append(d.closers, horn.Close)

	leds, err := matrix.NewWS281x(opts.pinLEDs, opts.brightness)
	if err != nil {
		return nil, fmt.Errorf("init led matrix: %w", err)
	}
	d.leds = leds
	d.closers = append(d.closers, leds.Close)

	return d, nil
}

func printSensors(w io.Writer, reader gpio.Reader) error {
	pir, mwave, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	_, err = fmt.Fprintf(w, "PIR: %s, MWAVE: %s\n", levelString(pir), levelString(mwave))
	return err
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
