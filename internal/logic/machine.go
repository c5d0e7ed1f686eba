package logic

// Machine is the trigger state machine. It is driven by a single control loop
// and is not safe for concurrent use.
type Machine struct {
	cfg      Config
	clock    Clock
	presence Presence
	out      Outputs

	state    State
	counters Counters
}

// NewMachine creates a machine in StateInit.
func NewMachine(cfg Config, clock Clock, presence Presence, out Outputs) *Machine {
	return &Machine{
		cfg:      cfg,
		clock:    clock,
		presence: presence,
		out:      out,
		state:    StateInit,
		counters: Counters{StateEnteredAt: clock.Now()},
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Counters returns a copy of the session counters.
func (m *Machine) Counters() Counters {
	return m.counters
}

// Tick runs one control-loop step. In Ramp and Blast it blocks for the
// duration of one playlist entry. It returns the transition taken, if any.
func (m *Machine) Tick() (Transition, bool) {
	now := m.clock.Now()
	detected := m.presence.Detected()

	switch m.state {
	case StateInit:
		m.indicate()
		if !detected {
			return m.enter(StateArmed, now, "sensors clear"), true
		}

	case StateArmed:
		m.indicate()
		if detected {
			if m.counters.TriggerCount < MaxTriggerCount {
				m.counters.TriggerCount++
			}
			m.counters.RampIndex = 0
			m.counters.ReArmed = false
			m.counters.BlastEnable = false
			return m.enter(StateRamp, now, "presence detected"), true
		}

	case StateRamp:
		m.out.Render(StateRamp, m.counters.RampIndex)
		m.counters.RampIndex = advance(m.counters.RampIndex, m.cfg.RampLen)

		// Rendering takes most of the tick, so sample again afterwards.
		now = m.clock.Now()
		detected = m.presence.Detected()
		if !detected {
			m.counters.ReArmed = true
		} else if m.counters.ReArmed {
			m.counters.BlastEnable = true
		}

		if Elapsed(now, m.counters.StateEnteredAt) >= m.cfg.RampTime {
			switch {
			case m.counters.BlastEnable:
				m.counters.BlastIndex = 0
				return m.enter(StateBlast, now, "retriggered"), true
			case detected:
				m.counters.BlastIndex = 0
				return m.enter(StateBlast, now, "presence held"), true
			default:
				m.out.Silence()
				return m.enter(StateRecover, now, "presence cleared"), true
			}
		}

	case StateBlast:
		m.out.Render(StateBlast, m.counters.BlastIndex)
		m.counters.BlastIndex = advance(m.counters.BlastIndex, m.cfg.BlastLen)

		now = m.clock.Now()
		if Elapsed(now, m.counters.StateEnteredAt) >= m.cfg.BlastTime {
			m.out.Silence()
			return m.enter(StateRecover, now, "blast complete"), true
		}

	case StateRecover:
		if detected {
			m.counters.StateEnteredAt = now
			m.counters.Problem = true
		}
		m.indicate()
		if Elapsed(now, m.counters.StateEnteredAt) >= m.cfg.RecoverTime {
			m.counters.Problem = false
			return m.enter(StateArmed, now, "recovered"), true
		}
	}

	return Transition{}, false
}

func (m *Machine) enter(to State, now Millis, reason string) Transition {
	t := Transition{
		From:         m.state,
		To:           to,
		At:           now,
		TriggerCount: m.counters.TriggerCount,
		Reason:       reason,
	}
	m.state = to
	m.counters.StateEnteredAt = now
	return t
}

func (m *Machine) indicate() {
	m.out.Indicate(Indicator{
		State:        m.state,
		TriggerCount: m.counters.TriggerCount,
		Problem:      m.counters.Problem,
	})
}

// advance moves a playlist index forward, holding at the last entry.
func advance(i, n int) int {
	if i+1 >= n {
		if n == 0 {
			return 0
		}
		return n - 1
	}
	return i + 1
}
