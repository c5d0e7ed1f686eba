package sequence

import (
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/matrix"
)

// TickPeriod is the render loop period.
const TickPeriod = 10 * time.Millisecond

// Player renders entries. Render blocks the caller for the entry duration,
// paced by the injected sleep.
type Player struct {
	tone   *audio.ToneGenerator
	lights matrix.Filler
	sleep  func(time.Duration)
	log    *zap.SugaredLogger
}

// NewPlayer creates a player. sleep is time.Sleep outside of tests.
func NewPlayer(tone *audio.ToneGenerator, lights matrix.Filler, sleep func(time.Duration), log *zap.SugaredLogger) *Player {
	return &Player{tone: tone, lights: lights, sleep: sleep, log: log}
}

// FlipCount is the number of render ticks between strobe phase changes that
// best approximates hz. It never drops below one tick.
func FlipCount(hz float64) int {
	n := int(math.Round(1000 / hz / 2 / float64(TickPeriod/time.Millisecond)))
	if n < 1 {
		return 1
	}
	return n
}

// Render plays e and returns once the horn is silent and the matrix blank.
// Output errors during playback are logged and skipped so the entry always
// runs its full length; errors from the final silence/blank are returned.
//
// e must satisfy Entry.Validate. A zero StrobeHz is a programming error.
func (p *Player) Render(e Entry) error {
	n := int(e.Duration / TickPeriod)
	if n > 0 {
		freqStep := (e.FreqEnd - e.FreqStart) / float64(n)
		volStep := (e.VolEnd - e.VolStart) / float64(n)
		flip := FlipCount(e.StrobeHz)

		// Float accumulation drifts slightly on long ramps; that is fine.
		freq, vol := e.FreqStart, e.VolStart
		lit := true
		for count := 1; count <= n; {
			if err := p.tone.SetTone(freq, vol); err != nil {
				p.log.Debugw("set tone", "error", err)
			}
			c := matrix.Off
			if lit {
				c = e.Color
			}
			if err := p.lights.Fill(c); err != nil {
				p.log.Debugw("fill", "error", err)
			}

			freq += freqStep
			vol += volStep
			count++
			if count%flip == 0 {
				lit = !lit
			}
			p.sleep(TickPeriod)
		}
	}

	return errors.Join(p.tone.Silence(), p.lights.Fill(matrix.Off))
}

// Play renders every entry of pl in order.
func (p *Player) Play(pl Playlist) error {
	var errs []error
	for _, e := range pl {
		errs = append(errs, p.Render(e))
	}
	return errors.Join(errs...)
}
