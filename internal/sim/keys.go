package sim

import (
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
)

// Keys is a gpio.Reader whose sensor levels are toggled from the keyboard:
// p flips the PIR, m flips the microwave sensor, q or Esc quits.
type Keys struct {
	pir   atomic.Bool
	mwave atomic.Bool

	quit     chan struct{}
	quitOnce sync.Once
}

// NewKeys creates a reader with both sensors low.
func NewKeys() *Keys {
	return &Keys{quit: make(chan struct{})}
}

// Read implements gpio.Reader.
func (k *Keys) Read() (bool, bool, error) {
	return k.pir.Load(), k.mwave.Load(), nil
}

// Close implements gpio.Reader.
func (k *Keys) Close() error {
	return nil
}

// Quit is closed once a quit key has been pressed.
func (k *Keys) Quit() <-chan struct{} {
	return k.quit
}

// Press applies one key. It returns false once the user asked to quit.
func (k *Keys) Press(r rune) bool {
	switch r {
	case 'p', 'P':
		k.pir.Store(!k.pir.Load())
	case 'm', 'M':
		k.mwave.Store(!k.mwave.Load())
	case 'q', 'Q':
		k.quitOnce.Do(func() { close(k.quit) })
		return false
	}
	return true
}

// Handle applies a terminal event.
func (k *Keys) Handle(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return true
	}
	switch key.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return k.Press('q')
	case tcell.KeyRune:
		return k.Press(key.Rune())
	}
	return true
}

// Poll feeds events from scr into Handle until a quit key or until the
// screen is finalised.
func (k *Keys) Poll(scr tcell.Screen) {
	for {
		ev := scr.PollEvent()
		if ev == nil || !k.Handle(ev) {
			return
		}
	}
}
