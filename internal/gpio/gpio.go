// Package gpio provides presence sensor input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the two presence sensor lines.
type Reader interface {
	// Read returns the logical states of the PIR and microwave sensors.
	// Both sensors drive their output high while they detect presence.
	// Returns (pir, mwave, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering).
const (
	DefaultPinPIR   = 10 // HC-SR501 PIR: ~2s high after (re)trigger, then ~2s lockout
	DefaultPinMwave = 11 // RCWL-0516 microwave: ~1s high, then ~5s lockout
)
