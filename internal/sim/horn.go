package sim

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// SampleRate is the speaker rate used by the simulated horn.
const SampleRate = beep.SampleRate(48000)

const amplitude = 0.2

// Horn is an audio.Driver that plays the PWM square wave on the speaker.
// The drive is inverted like the real horn: duty 1.0 is silent.
type Horn struct {
	rate  beep.SampleRate
	freq  atomic.Int64
	duty  atomic.Uint64 // math.Float64bits
	phase float64       // owned by the speaker goroutine
}

// NewHorn creates a silent horn.
func NewHorn(rate beep.SampleRate) *Horn {
	h := &Horn{rate: rate}
	h.duty.Store(math.Float64bits(1))
	return h
}

// Start opens the speaker and begins streaming.
func (h *Horn) Start() error {
	if err := speaker.Init(h.rate, h.rate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(h)
	return nil
}

// SetFrequency implements audio.Driver.
func (h *Horn) SetFrequency(hz int) error {
	h.freq.Store(int64(hz))
	return nil
}

// SetDutyFraction implements audio.Driver.
func (h *Horn) SetDutyFraction(f float64) error {
	h.duty.Store(math.Float64bits(f))
	return nil
}

// Stream implements beep.Streamer. The horn is driven for the low part of
// each period; the DC level is removed so silence is zero.
func (h *Horn) Stream(samples [][2]float64) (int, bool) {
	freq := float64(h.freq.Load())
	on := 1 - math.Float64frombits(h.duty.Load())
	if freq <= 0 || on <= 0 {
		for i := range samples {
			samples[i] = [2]float64{}
		}
		return len(samples), true
	}

	step := freq / float64(h.rate)
	for i := range samples {
		v := -amplitude * on
		if h.phase < on {
			v += amplitude
		}
		samples[i] = [2]float64{v, v}
		h.phase += step
		if h.phase >= 1 {
			h.phase -= math.Floor(h.phase)
		}
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (h *Horn) Err() error {
	return nil
}
