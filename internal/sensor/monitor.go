// Package sensor samples the presence sensors independently of the control
// loop and publishes a single presence flag.
package sensor

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/duck-deterrent/internal/gpio"
)

// DefaultPeriod is the sampling period.
const DefaultPeriod = 100 * time.Millisecond

// Monitor owns the presence flag. Sample and Run must be called from a single
// goroutine; Detected and Sensors are safe from any goroutine.
type Monitor struct {
	reader gpio.Reader
	log    *zap.SugaredLogger

	detected atomic.Bool
	pir      atomic.Bool
	mwave    atomic.Bool

	failing bool
}

// New creates a monitor reading from reader. Presence starts false.
func New(reader gpio.Reader, log *zap.SugaredLogger) *Monitor {
	return &Monitor{reader: reader, log: log}
}

// Sample reads both sensors once and stores pir OR mwave. On a read error the
// previous values are kept.
func (m *Monitor) Sample() {
	pir, mwave, err := m.reader.Read()
	if err != nil {
		if !m.failing {
			m.log.Warnw("sensor read failed, holding last value", "error", err)
			m.failing = true
		}
		return
	}
	if m.failing {
		m.log.Infow("sensor reads recovered")
		m.failing = false
	}
	m.pir.Store(pir)
	m.mwave.Store(mwave)
	m.detected.Store(pir || mwave)
}

// Run samples on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context, tick <-chan time.Time) error {
	m.Sample()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			m.Sample()
		}
	}
}

// Detected reports whether either sensor saw presence at the last sample.
func (m *Monitor) Detected() bool {
	return m.detected.Load()
}

// Sensors returns the individual sensor levels from the last sample.
func (m *Monitor) Sensors() (pir, mwave bool) {
	return m.pir.Load(), m.mwave.Load()
}
