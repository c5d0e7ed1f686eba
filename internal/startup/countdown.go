// Package startup plays the power-on countdown while the presence sensors
// warm up. The PIR and microwave sensors need 30-60s before their output is
// trustworthy.
package startup

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/matrix"
)

// DefaultDelay is the sensor warm-up time.
const DefaultDelay = 60 * time.Second

const sweepStep = 20 * time.Millisecond

var (
	colorFrame = matrix.RGB(0, 10, 0)
	colorSnake = matrix.RGB(10, 10, 10)
	colorFlash = matrix.RGB(255, 255, 255)
)

// finale is the rising beep played as each of the last snake pixels goes out.
type finale struct {
	freq   float64
	vol    float64
	border uint8 // red level of the border sweep after the beep
}

var finales = map[int]finale{
	54: {200, 1, 20},
	53: {400, 2, 30},
	52: {800, 3, 50},
	51: {1200, 4, 100},
	50: {1500, 5, 200},
}

// Countdown extinguishes the snake pixels one by one over the warm-up delay.
type Countdown struct {
	leds  matrix.Driver
	tone  *audio.ToneGenerator
	sleep func(time.Duration)
}

// New creates a countdown. sleep is time.Sleep outside of tests.
func New(leds matrix.Driver, tone *audio.ToneGenerator, sleep func(time.Duration)) *Countdown {
	return &Countdown{leds: leds, tone: tone, sleep: sleep}
}

// Run plays the countdown over roughly delay. It stops early if ctx is
// cancelled. The matrix is blank and the horn silent when it returns.
func (c *Countdown) Run(ctx context.Context, delay time.Duration) (err error) {
	defer func() {
		err = errors.Join(err, matrix.Fill(c.leds, matrix.Off), c.tone.Silence())
	}()

	if err := matrix.Fill(c.leds, matrix.Off); err != nil {
		return err
	}
	if err := matrix.Border(c.leds, colorFrame, 0, c.sleep); err != nil {
		return err
	}
	if err := matrix.Pixels(c.leds, colorSnake, matrix.SnakePixels); err != nil {
		return err
	}

	step := delay / time.Duration(len(matrix.SnakePixels))
	// The finale pixels spend part of their step sweeping the border.
	short := step - time.Duration(len(matrix.BorderPixels))*sweepStep
	if short < 0 {
		short = 0
	}

	for _, p := range matrix.SnakePixels {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.leds.SetPixel(p, matrix.Off)
		if _, ok := finales[p]; ok {
			c.sleep(short)
		} else {
			c.sleep(step)
		}
		if err := c.leds.Flush(); err != nil {
			return err
		}

		if f, ok := finales[p]; ok {
			if err := matrix.Border(c.leds, matrix.Off, 0, c.sleep); err != nil {
				return err
			}
			if err := c.tone.Beep(c.sleep, f.freq, f.vol, 100*time.Millisecond); err != nil {
				return err
			}
			if err := matrix.Border(c.leds, matrix.RGB(f.border, 0, 0), sweepStep, c.sleep); err != nil {
				return err
			}
		}
	}

	if err := c.tone.Silence(); err != nil {
		return err
	}
	return matrix.Strobe(c.leds, colorFlash, 6, 500*time.Millisecond, c.sleep)
}
