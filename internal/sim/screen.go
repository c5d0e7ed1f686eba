// Package sim stands in for the deterrent hardware on a terminal: the LED
// matrix is drawn with tcell, the sensors are toggled from the keyboard and
// the horn is synthesised through the speaker with beep.
package sim

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/sweeney/duck-deterrent/internal/matrix"
)

const (
	side      = 8
	cellWidth = 2
	originX   = 2
	originY   = 1

	captionWidth = 60
)

// Canvas is the part of tcell.Screen the simulator draws on.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Show()
}

// Screen renders the LED matrix as an 8x8 block of terminal cells.
type Screen struct {
	canvas Canvas

	mu      sync.Mutex
	pending [matrix.Size]matrix.Color
}

// NewScreen draws on canvas, normally an initialised tcell.Screen.
func NewScreen(canvas Canvas) *Screen {
	return &Screen{canvas: canvas}
}

// SetPixel implements matrix.Driver.
func (s *Screen) SetPixel(i int, c matrix.Color) {
	if i < 0 || i >= matrix.Size {
		return
	}
	s.mu.Lock()
	s.pending[i] = c
	s.mu.Unlock()
}

// Flush implements matrix.Driver.
func (s *Screen) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.pending {
		x := originX + (i%side)*cellWidth
		y := originY + i/side
		r, style := cell(c)
		for dx := 0; dx < cellWidth; dx++ {
			s.canvas.SetContent(x+dx, y, r, nil, style)
		}
	}
	s.canvas.Show()
	return nil
}

// Len implements matrix.Driver.
func (s *Screen) Len() int {
	return matrix.Size
}

// Caption writes a line of text below the matrix.
func (s *Screen) Caption(row int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	y := originY + side + 1 + row
	style := tcell.StyleDefault
	x := originX
	for _, r := range text {
		s.canvas.SetContent(x, y, r, nil, style)
		x++
	}
	// Clear what is left of a longer previous caption.
	for ; x < originX+captionWidth; x++ {
		s.canvas.SetContent(x, y, ' ', nil, style)
	}
	s.canvas.Show()
}

// cell maps an LED color to a terminal cell. The LEDs run at a few percent of
// full scale, so lit channels are lifted into the visible range.
func cell(c matrix.Color) (rune, tcell.Style) {
	if c == matrix.Off {
		return '·', tcell.StyleDefault.Foreground(tcell.ColorGray)
	}
	fg := tcell.NewRGBColor(lift(c.R), lift(c.G), lift(c.B))
	return '█', tcell.StyleDefault.Foreground(fg)
}

func lift(v uint8) int32 {
	if v == 0 {
		return 0
	}
	return 80 + int32(v)*175/255
}
