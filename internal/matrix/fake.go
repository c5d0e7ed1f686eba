package matrix

import "errors"

// Fake is an in-memory matrix that records every flushed frame.
type Fake struct {
	pending [Size]Color

	// Frames holds one copy of the buffer per Flush.
	Frames [][Size]Color

	// FlushError, if set, is returned by Flush.
	FlushError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFake creates a blank Fake.
func NewFake() *Fake {
	return &Fake{}
}

// SetPixel updates the pending frame. Out-of-range indices are ignored.
func (f *Fake) SetPixel(i int, c Color) {
	if i < 0 || i >= Size {
		return
	}
	f.pending[i] = c
}

// Flush records the pending frame.
func (f *Fake) Flush() error {
	if f.FlushError != nil {
		return f.FlushError
	}
	f.Frames = append(f.Frames, f.pending)
	return nil
}

// Len returns Size.
func (f *Fake) Len() int {
	return Size
}

// Close marks the fake as closed.
func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

// Last returns the most recently flushed frame.
func (f *Fake) Last() ([Size]Color, error) {
	if len(f.Frames) == 0 {
		return [Size]Color{}, errors.New("no frames flushed")
	}
	return f.Frames[len(f.Frames)-1], nil
}

// Blank reports whether the last flushed frame has every pixel off.
func (f *Fake) Blank() bool {
	last, err := f.Last()
	if err != nil {
		return false
	}
	for _, c := range last {
		if c != Off {
			return false
		}
	}
	return true
}

// Reset clears recorded frames and the pending buffer.
func (f *Fake) Reset() {
	f.pending = [Size]Color{}
	f.Frames = nil
	f.FlushError = nil
	f.Closed = false
}
