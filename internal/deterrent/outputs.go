// Package deterrent connects the trigger state machine to the horn and the
// LED matrix.
package deterrent

import (
	"go.uber.org/zap"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/logic"
	"github.com/sweeney/duck-deterrent/internal/matrix"
	"github.com/sweeney/duck-deterrent/internal/sequence"
)

// Indicator colours. Kept dim; the matrix is bright enough to light a room.
var (
	ColorBooting = matrix.RGB(10, 10, 10)
	ColorArmed   = matrix.RGB(0, 10, 0)
	ColorRecover = matrix.RGB(20, 0, 0)
	ColorCount   = matrix.RGB(10, 10, 0)
	ColorProblem = matrix.RGB(0, 0, 20)
)

// Outputs implements logic.Outputs on real (or fake) devices.
type Outputs struct {
	player    *sequence.Player
	playlists sequence.Playlists
	tone      *audio.ToneGenerator
	leds      matrix.Driver
	log       *zap.SugaredLogger

	last  logic.Indicator
	drawn bool
}

// NewOutputs wires a player over tone and leds.
func NewOutputs(player *sequence.Player, playlists sequence.Playlists, tone *audio.ToneGenerator, leds matrix.Driver, log *zap.SugaredLogger) *Outputs {
	return &Outputs{
		player:    player,
		playlists: playlists,
		tone:      tone,
		leds:      leds,
		log:       log,
	}
}

// Render plays entry index of the phase's playlist.
func (o *Outputs) Render(phase logic.State, index int) {
	var pl sequence.Playlist
	switch phase {
	case logic.StateRamp:
		pl = o.playlists.Ramp
	case logic.StateBlast:
		pl = o.playlists.Blast
	default:
		o.log.Errorw("render requested outside a playback phase", "state", phase)
		return
	}
	if index < 0 || index >= len(pl) {
		o.log.Errorw("playlist index out of range", "state", phase, "index", index, "len", len(pl))
		return
	}

	// Playback overwrites every pixel.
	o.drawn = false
	if err := o.player.Render(pl[index]); err != nil {
		o.log.Warnw("render finished with output errors", "state", phase, "index", index, "error", err)
	}
}

// Silence forces the horn off.
func (o *Outputs) Silence() {
	if err := o.tone.Silence(); err != nil {
		o.log.Warnw("silence horn", "error", err)
	}
}

// Indicate draws the status pixels. Unchanged indicators are not redrawn.
func (o *Outputs) Indicate(ind logic.Indicator) {
	if o.drawn && ind == o.last {
		return
	}

	for i := 0; i < o.leds.Len(); i++ {
		o.leds.SetPixel(i, matrix.Off)
	}

	switch ind.State {
	case logic.StateInit:
		o.leds.SetPixel(matrix.PixelStatus, ColorBooting)
	case logic.StateArmed:
		if ind.TriggerCount > 0 {
			o.leds.SetPixel(CountPixel(ind.TriggerCount, o.leds.Len()), ColorCount)
		}
		o.leds.SetPixel(matrix.PixelStatus, ColorArmed)
	case logic.StateRecover:
		o.leds.SetPixel(matrix.PixelStatus, ColorRecover)
	}
	if ind.Problem {
		o.leds.SetPixel(matrix.PixelProblem, ColorProblem)
	}

	if err := o.leds.Flush(); err != nil {
		o.log.Warnw("draw indicator", "state", ind.State, "error", err)
		return
	}
	o.last = ind
	o.drawn = true
}

// CountPixel is the pixel marking the trigger count, capped to the matrix.
func CountPixel(count, size int) int {
	if count >= size {
		return size - 1
	}
	return count
}
