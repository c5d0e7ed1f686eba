package audio

// Call is one recorded driver call.
type Call struct {
	Freq int     // set by SetFrequency, zero otherwise
	Duty float64 // set by SetDutyFraction, -1 otherwise
}

// Fake is a test double that records driver calls.
type Fake struct {
	Calls []Call

	// Freq and Duty hold the most recent settings.
	Freq int
	Duty float64

	// Err, if set, is returned by every call.
	Err error
}

// NewFake creates a Fake in the silent state.
func NewFake() *Fake {
	return &Fake{Duty: 1}
}

// SetFrequency records the frequency.
func (f *Fake) SetFrequency(hz int) error {
	if f.Err != nil {
		return f.Err
	}
	f.Freq = hz
	f.Calls = append(f.Calls, Call{Freq: hz, Duty: -1})
	return nil
}

// SetDutyFraction records the duty.
func (f *Fake) SetDutyFraction(d float64) error {
	if f.Err != nil {
		return f.Err
	}
	f.Duty = d
	f.Calls = append(f.Calls, Call{Duty: d})
	return nil
}

// Silent reports whether the last duty written is the silent extreme.
func (f *Fake) Silent() bool {
	return f.Duty == 1
}

// Reset clears recorded calls.
func (f *Fake) Reset() {
	f.Calls = nil
	f.Err = nil
}
