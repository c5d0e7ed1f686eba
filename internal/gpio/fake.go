package gpio

import (
	"errors"
	"sync"
)

var (
	errNoSamples = errors.New("gpio: no samples scripted")
	errClosed    = errors.New("gpio: reader closed")
)

// Sample is one reading of both sensor lines.
type Sample struct {
	PIR   bool
	Mwave bool
}

// FakeReader replays scripted sensor levels. The last sample repeats once
// the script runs out, which models a sensor holding its output.
//
// A FakeReader may be read by a sampler goroutine while the test changes it.
type FakeReader struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	err     error
	reads   int
	closed  bool
}

// NewFakeReader creates a reader replaying samples in order.
func NewFakeReader(samples ...Sample) *FakeReader {
	return &FakeReader{samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	switch {
	case f.closed:
		return false, false, errClosed
	case f.err != nil:
		return false, false, f.err
	case len(f.samples) == 0:
		return false, false, errNoSamples
	}

	s := f.samples[f.next]
	if f.next < len(f.samples)-1 {
		f.next++
	}
	return s.PIR, s.Mwave, nil
}

// Script replaces the remaining samples and restarts from the first.
func (f *FakeReader) Script(samples ...Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = samples
	f.next = 0
}

// Set holds both lines at the given levels.
func (f *FakeReader) Set(pir, mwave bool) {
	f.Script(Sample{PIR: pir, Mwave: mwave})
}

// Fail makes every Read return err until Fail(nil).
func (f *FakeReader) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Reads is the number of Read calls so far, failed ones included.
func (f *FakeReader) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Close marks the reader closed. Later reads fail.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeReader) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
