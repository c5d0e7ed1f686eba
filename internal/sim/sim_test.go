package sim

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/matrix"
)

type cellKey struct{ x, y int }

// mockCanvas records the last rune and style written to each cell.
type mockCanvas struct {
	cells map[cellKey]rune
	style map[cellKey]tcell.Style
	shows int
}

func newMockCanvas() *mockCanvas {
	return &mockCanvas{cells: map[cellKey]rune{}, style: map[cellKey]tcell.Style{}}
}

func (m *mockCanvas) SetContent(x, y int, r rune, _ []rune, st tcell.Style) {
	m.cells[cellKey{x, y}] = r
	m.style[cellKey{x, y}] = st
}

func (m *mockCanvas) Show() { m.shows++ }

func TestScreenIsMatrixDriver(t *testing.T) {
	var _ matrix.Driver = (*Screen)(nil)
	var _ audio.Driver = (*Horn)(nil)
}

func TestScreenFlush(t *testing.T) {
	canvas := newMockCanvas()
	s := NewScreen(canvas)
	assert.Equal(t, matrix.Size, s.Len())

	s.SetPixel(0, matrix.RGB(0, 10, 0))
	s.SetPixel(63, matrix.RGB(20, 0, 0))
	s.SetPixel(64, matrix.RGB(255, 255, 255)) // ignored
	require.NoError(t, s.Flush())

	assert.Equal(t, 1, canvas.shows)
	assert.Len(t, canvas.cells, matrix.Size*cellWidth)

	// Pixel 0 is top-left, two cells wide.
	assert.Equal(t, '█', canvas.cells[cellKey{originX, originY}])
	assert.Equal(t, '█', canvas.cells[cellKey{originX + 1, originY}])
	// Pixel 63 is bottom-right.
	assert.Equal(t, '█', canvas.cells[cellKey{originX + 14, originY + 7}])
	// Everything else is unlit.
	assert.Equal(t, '·', canvas.cells[cellKey{originX + 2, originY}])

	fg, _, _ := canvas.style[cellKey{originX, originY}].Decompose()
	r, g, b := fg.RGB()
	assert.Equal(t, int32(0), r)
	assert.Greater(t, g, int32(80))
	assert.Equal(t, int32(0), b)
}

func TestScreenCaption(t *testing.T) {
	canvas := newMockCanvas()
	s := NewScreen(canvas)

	s.Caption(0, "ARMED")
	y := originY + side + 1
	assert.Equal(t, 'A', canvas.cells[cellKey{originX, y}])
	assert.Equal(t, 'D', canvas.cells[cellKey{originX + 4, y}])

	s.Caption(0, "OK")
	assert.Equal(t, ' ', canvas.cells[cellKey{originX + 4, y}], "longer caption is cleared")
}

func TestKeysToggle(t *testing.T) {
	k := NewKeys()

	pir, mwave, err := k.Read()
	require.NoError(t, err)
	assert.False(t, pir)
	assert.False(t, mwave)

	assert.True(t, k.Press('p'))
	assert.True(t, k.Press('M'))
	pir, mwave, _ = k.Read()
	assert.True(t, pir)
	assert.True(t, mwave)

	k.Press('p')
	pir, mwave, _ = k.Read()
	assert.False(t, pir)
	assert.True(t, mwave)

	assert.True(t, k.Press('x'), "other keys are ignored")
	assert.NoError(t, k.Close())
}

func TestKeysQuit(t *testing.T) {
	k := NewKeys()
	select {
	case <-k.Quit():
		t.Fatal("quit before any key")
	default:
	}

	assert.False(t, k.Press('q'))
	assert.False(t, k.Press('q'), "quitting twice is safe")

	_, open := <-k.Quit()
	assert.False(t, open)
}

func TestKeysHandleEvents(t *testing.T) {
	k := NewKeys()
	assert.True(t, k.Handle(tcell.NewEventKey(tcell.KeyRune, 'm', tcell.ModNone)))
	_, mwave, _ := k.Read()
	assert.True(t, mwave)

	assert.True(t, k.Handle(tcell.NewEventResize(80, 24)))
	assert.False(t, k.Handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	select {
	case <-k.Quit():
	default:
		t.Fatal("escape did not quit")
	}
}

func TestHornSilent(t *testing.T) {
	h := NewHorn(SampleRate)
	samples := make([][2]float64, 64)
	samples[3] = [2]float64{1, 1}

	n, ok := h.Stream(samples)
	assert.Equal(t, 64, n)
	assert.True(t, ok)
	for _, s := range samples {
		assert.Zero(t, s[0])
	}
	assert.NoError(t, h.Err())

	// A frequency alone does not sound: duty still silences.
	require.NoError(t, h.SetFrequency(1000))
	h.Stream(samples)
	assert.Zero(t, samples[10][0])
}

func TestHornSquareWave(t *testing.T) {
	h := NewHorn(SampleRate)
	require.NoError(t, h.SetFrequency(750))
	require.NoError(t, h.SetDutyFraction(0.75)) // driven a quarter of the time

	// One 750Hz period is 64 samples at 48kHz.
	samples := make([][2]float64, 64)
	h.Stream(samples)

	high := 0
	sum := 0.0
	for _, s := range samples {
		assert.Equal(t, s[0], s[1])
		if s[0] > 0 {
			high++
		}
		sum += s[0]
	}
	assert.Equal(t, 16, high)
	assert.InDelta(t, 0, sum, 1e-9)
	assert.InDelta(t, amplitude*0.75, samples[0][0], 1e-12)
	assert.InDelta(t, -amplitude*0.25, samples[63][0], 1e-12)
}
