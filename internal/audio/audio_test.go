package audio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDutyFormula(t *testing.T) {
	// 10^(log10(1000)+log10(5)) = 5000, give or take float rounding.
	duty, hz := Duty(1000, 5)
	assert.Equal(t, 1000, hz)
	assert.InDelta(t, DutyMax-5000, duty, 1)

	want := DutyMax - int(math.Pow(10, math.Log10(1000)+math.Log10(5)))
	assert.Equal(t, want, duty)
}

func TestDutyClampsFrequency(t *testing.T) {
	tests := []struct {
		freq   float64
		wantHz int
	}{
		{0, MinFreq},
		{-50, MinFreq},
		{29.9, MinFreq},
		{30, 30},
		{1500.7, 1500},
		{3000, 3000},
		{12000, MaxFreq},
	}
	for _, tt := range tests {
		_, hz := Duty(tt.freq, 1)
		assert.Equal(t, tt.wantHz, hz, "freq %v", tt.freq)
	}
}

func TestDutySilentForZeroOrNegativeVolume(t *testing.T) {
	for _, vol := range []float64{0, -1e-15, -3, math.NaN()} {
		duty, _ := Duty(1000, vol)
		assert.Equal(t, DutySilent, duty, "vol %v", vol)
	}
}

func TestDutyRangeAtExtremes(t *testing.T) {
	duty, _ := Duty(MaxFreq, MaxVol)
	assert.InDelta(t, DutyMax-30000, duty, 1)

	// Out-of-contract volumes stay representable.
	duty, _ = Duty(MaxFreq, 1000)
	assert.Equal(t, 0, duty)
	duty, _ = Duty(MinFreq, 1e-9)
	assert.Equal(t, DutySilent, duty)
}

func TestSetToneWritesFrequencyThenDuty(t *testing.T) {
	f := NewFake()
	g := NewToneGenerator(f)

	require.NoError(t, g.SetTone(1000, 5))
	require.Len(t, f.Calls, 2)
	assert.Equal(t, 1000, f.Calls[0].Freq)
	assert.InDelta(t, float64(DutyMax-5000)/DutySilent, f.Calls[1].Duty, 1e-4)
	assert.False(t, f.Silent())
}

func TestSetToneZeroVolumeAlwaysSilent(t *testing.T) {
	f := NewFake()
	g := NewToneGenerator(f)

	require.NoError(t, g.SetTone(2500, 9))
	f.Reset()

	require.NoError(t, g.SetTone(2500, 0))
	require.Len(t, f.Calls, 1)
	assert.Equal(t, 1.0, f.Calls[0].Duty)
	assert.True(t, f.Silent())
	// Frequency is left alone.
	assert.Equal(t, 2500, f.Freq)
}

func TestSilence(t *testing.T) {
	f := NewFake()
	g := NewToneGenerator(f)
	require.NoError(t, g.SetTone(440, 3))
	require.NoError(t, g.Silence())
	assert.True(t, f.Silent())
}

func TestBeep(t *testing.T) {
	f := NewFake()
	g := NewToneGenerator(f)

	var slept []time.Duration
	sleep := func(d time.Duration) {
		assert.False(t, f.Silent(), "horn should sound while sleeping")
		slept = append(slept, d)
	}

	require.NoError(t, g.Beep(sleep, 800, 3, 100*time.Millisecond))
	assert.Equal(t, []time.Duration{100 * time.Millisecond}, slept)
	assert.Equal(t, 800, f.Freq)
	assert.True(t, f.Silent())
}

func TestSetToneDriverError(t *testing.T) {
	f := NewFake()
	f.Err = errors.New("pwm fault")
	g := NewToneGenerator(f)

	err := g.SetTone(1000, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, f.Err)
	assert.Contains(t, err.Error(), "set frequency 1000")

	err = g.Silence()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set duty")
}
