//go:build linux && ws281x

package matrix

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"
)

// WS281x drives a GlowBit matrix through the rpi_ws281x library.
type WS281x struct {
	dev  *ws2811.WS2811
	leds []uint32
}

// NewWS281x initialises the pixel bus on the given BCM pin.
func NewWS281x(pin, brightness int) (*WS281x, error) {
	opt := ws2811.DefaultOptions
	opt.Channels[0].GpioPin = pin
	opt.Channels[0].LedCount = Size
	opt.Channels[0].Brightness = brightness

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("create ws281x device: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("init ws281x on GPIO%d: %w", pin, err)
	}
	return &WS281x{dev: dev, leds: dev.Leds(0)}, nil
}

// SetPixel updates the frame buffer. Out-of-range indices are ignored.
func (w *WS281x) SetPixel(i int, c Color) {
	if i < 0 || i >= len(w.leds) {
		return
	}
	w.leds[i] = c.Uint32()
}

// Flush renders the frame buffer.
func (w *WS281x) Flush() error {
	if err := w.dev.Render(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Len returns the pixel count.
func (w *WS281x) Len() int {
	return len(w.leds)
}

// Close blanks the matrix and releases the device.
func (w *WS281x) Close() error {
	for i := range w.leds {
		w.leds[i] = 0
	}
	err := w.dev.Render()
	w.dev.Fini()
	if err != nil {
		return fmt.Errorf("blank on close: %w", err)
	}
	return nil
}
