// Package logic contains the pure decision logic of the deterrent: the trigger
// state machine and its session counters.
// This package has NO external dependencies (no GPIO, PWM, MQTT or time.Sleep).
// Time is always injectable via the Clock interface.
package logic

import "time"

// State is the active phase of the deterrent sequence.
type State uint8

const (
	StateInit State = iota
	StateArmed
	StateRamp
	StateBlast
	StateRecover
)

// String returns the upper-case name used in logs and telemetry.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateArmed:
		return "ARMED"
	case StateRamp:
		return "RAMP"
	case StateBlast:
		return "BLAST"
	case StateRecover:
		return "RECOVER"
	}
	return "UNKNOWN"
}

// MaxTriggerCount is where the lifetime trigger counter saturates.
const MaxTriggerCount = 63

// Millis is a monotonic millisecond timestamp that wraps at 2^32.
// Only differences between two Millis values are meaningful.
type Millis uint32

// Elapsed returns now-then, correct across a single wrap of the counter.
func Elapsed(now, then Millis) time.Duration {
	return time.Duration(uint32(now-then)) * time.Millisecond
}

// Clock supplies monotonic millisecond timestamps.
type Clock interface {
	Now() Millis
}

// Presence reports the sensed presence flag.
type Presence interface {
	Detected() bool
}

// Indicator describes what the status pixels should show in an idle state.
type Indicator struct {
	State        State
	TriggerCount int
	// Problem is lit while in Recover once a detection extended the dwell.
	Problem bool
}

// Outputs is the set of device actions the machine drives.
type Outputs interface {
	// Render plays one playlist entry of the given phase. It blocks for the
	// full entry duration.
	Render(phase State, index int)
	// Silence forces the horn off.
	Silence()
	// Indicate draws the status pixels for an idle state.
	Indicate(ind Indicator)
}

// Counters is the session bookkeeping owned by the machine.
type Counters struct {
	TriggerCount   int
	RampIndex      int
	BlastIndex     int
	StateEnteredAt Millis
	ReArmed        bool
	BlastEnable    bool
	Problem        bool
}

// Transition records a state change.
type Transition struct {
	From         State
	To           State
	At           Millis
	TriggerCount int
	Reason       string
}

// Config holds the compiled-in phase timings and playlist lengths.
type Config struct {
	RampLen     int
	BlastLen    int
	RampTime    time.Duration
	BlastTime   time.Duration
	RecoverTime time.Duration
}

// Default phase durations.
const (
	DefaultRampTime    = 10 * time.Second
	DefaultBlastTime   = 10 * time.Second
	DefaultRecoverTime = 60 * time.Second
)

// DefaultConfig returns the standard timings for playlists of the given lengths.
func DefaultConfig(rampLen, blastLen int) Config {
	return Config{
		RampLen:     rampLen,
		BlastLen:    blastLen,
		RampTime:    DefaultRampTime,
		BlastTime:   DefaultBlastTime,
		RecoverTime: DefaultRecoverTime,
	}
}
