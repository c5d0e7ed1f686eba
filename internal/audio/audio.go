// Package audio drives the horn: a single continuous PWM channel behind a
// two-transistor driver with inverted polarity (duty 1.0 = horn off).
package audio

import (
	"fmt"
	"math"
	"time"
)

// Driver is the PWM channel feeding the horn driver.
type Driver interface {
	// SetFrequency sets the carrier frequency in Hz.
	SetFrequency(hz int) error
	// SetDutyFraction sets the duty cycle in [0,1]. Drive is inverted:
	// 1.0 silences the horn.
	SetDutyFraction(f float64) error
}

// Tone limits.
const (
	MinFreq = 30
	MaxFreq = 3000
	MaxVol  = 10
)

// DutyMax is the full-scale raw duty. DutySilent is the "fully off" extreme.
const (
	DutyMax    = 1 << 16
	DutySilent = DutyMax - 1
)

// ToneGenerator converts (frequency, volume) into horn PWM settings.
type ToneGenerator struct {
	drv Driver
}

// NewToneGenerator creates a generator writing to drv. The generator must be
// the only writer of drv.
func NewToneGenerator(drv Driver) *ToneGenerator {
	return &ToneGenerator{drv: drv}
}

// Duty returns the raw inverted duty for a tone and the clamped frequency.
//
// Higher frequencies need more drive for the same perceived loudness, so
// drive power is freq*vol, computed as 10^(log10(freq)+log10(vol)). The curve
// was tuned by ear on the device and must be kept as is.
func Duty(freq, vol float64) (duty int, hz int) {
	if vol <= 0 || math.IsNaN(vol) {
		return DutySilent, 0
	}
	hz = int(math.Min(math.Max(freq, MinFreq), MaxFreq))
	power := int(math.Pow(10, math.Log10(float64(hz))+math.Log10(vol)))
	duty = DutyMax - power
	if duty < 0 {
		duty = 0
	}
	if duty > DutySilent {
		duty = DutySilent
	}
	return duty, hz
}

// DutyFraction scales a raw duty into [0,1].
func DutyFraction(duty int) float64 {
	return float64(duty) / DutySilent
}

// SetTone plays freq at vol (0-10). A volume of zero silences the horn and
// leaves the carrier frequency untouched.
func (g *ToneGenerator) SetTone(freq, vol float64) error {
	duty, hz := Duty(freq, vol)
	if duty == DutySilent && hz == 0 {
		return g.setDuty(duty)
	}
	if err := g.drv.SetFrequency(hz); err != nil {
		return fmt.Errorf("set frequency %d: %w", hz, err)
	}
	return g.setDuty(duty)
}

// Silence turns the horn off.
func (g *ToneGenerator) Silence() error {
	return g.SetTone(0, 0)
}

// Beep plays a tone for d and then silences the horn. sleep blocks for the
// given duration.
func (g *ToneGenerator) Beep(sleep func(time.Duration), freq, vol float64, d time.Duration) error {
	if err := g.SetTone(freq, vol); err != nil {
		return err
	}
	sleep(d)
	return g.Silence()
}

func (g *ToneGenerator) setDuty(duty int) error {
	if err := g.drv.SetDutyFraction(DutyFraction(duty)); err != nil {
		return fmt.Errorf("set duty %d: %w", duty, err)
	}
	return nil
}
