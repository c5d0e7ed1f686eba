//go:build !(linux && ws281x)

package matrix

import "errors"

// WS281x is only available on Linux builds tagged ws281x (the C library is
// required).
type WS281x struct{}

// NewWS281x returns an error when built without ws281x support.
func NewWS281x(pin, brightness int) (*WS281x, error) {
	return nil, errors.New("matrix: ws281x support not built (requires linux and -tags ws281x)")
}

// SetPixel is a no-op.
func (w *WS281x) SetPixel(i int, c Color) {}

// Flush is not implemented without ws281x support.
func (w *WS281x) Flush() error {
	return errors.New("matrix: not supported")
}

// Len returns Size.
func (w *WS281x) Len() int {
	return Size
}

// Close is a no-op.
func (w *WS281x) Close() error {
	return nil
}
