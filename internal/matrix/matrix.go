// Package matrix draws on the 8x8 GlowBit LED matrix.
//
// Pixels are numbered row-major from the top-left corner:
//
//	00 01 02 03 04 05 06 07
//	08 09 10 11 12 13 14 15
//	...
//	56 57 58 59 60 61 62 63
package matrix

import (
	"fmt"
	"time"
)

// Size is the number of pixels on the matrix.
const Size = 64

// Color is an RGB pixel value.
type Color struct {
	R, G, B uint8
}

// Off is an unlit pixel.
var Off = Color{}

// RGB builds a Color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Uint32 packs the color as 0x00RRGGBB.
func (c Color) Uint32() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Driver is a pixel bus. SetPixel only updates the frame buffer; Flush sends
// it to the LEDs.
type Driver interface {
	SetPixel(i int, c Color)
	Flush() error
	Len() int
}

// Filler fills the whole matrix with one color.
type Filler interface {
	Fill(c Color) error
}

// Fill sets every pixel to c and flushes.
func Fill(d Driver, c Color) error {
	for i := 0; i < d.Len(); i++ {
		d.SetPixel(i, c)
	}
	return d.Flush()
}

// Pixels sets the listed pixels to c and flushes.
func Pixels(d Driver, c Color, idx []int) error {
	for _, i := range idx {
		d.SetPixel(i, c)
	}
	return d.Flush()
}

// Border lights the border ring with c. With a zero step the ring is drawn at
// once, otherwise it is swept pixel by pixel, flushing and sleeping step
// after each one.
func Border(d Driver, c Color, step time.Duration, sleep func(time.Duration)) error {
	if step == 0 {
		return Pixels(d, c, BorderPixels)
	}
	for _, i := range BorderPixels {
		d.SetPixel(i, c)
		if err := d.Flush(); err != nil {
			return err
		}
		sleep(step)
	}
	return nil
}

// Strobe alternates the whole matrix between off and c at hz for total.
func Strobe(d Driver, c Color, hz float64, total time.Duration, sleep func(time.Duration)) error {
	half := time.Duration(float64(time.Second) / hz / 2)
	if half <= 0 {
		half = time.Millisecond
	}
	for elapsed := time.Duration(0); elapsed < total; elapsed += 2 * half {
		if err := Fill(d, Off); err != nil {
			return err
		}
		sleep(half)
		if err := Fill(d, c); err != nil {
			return err
		}
		sleep(half)
	}
	return nil
}

// Frame adapts a Driver to the Filler interface.
type Frame struct {
	Driver
}

// Fill sets every pixel to c and flushes.
func (f Frame) Fill(c Color) error {
	return Fill(f.Driver, c)
}
