package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/sweeney/duck-deterrent/internal/logger"
	"github.com/sweeney/duck-deterrent/internal/sim"
	"github.com/sweeney/duck-deterrent/internal/status"
)

// syncBuffer collects log output while the terminal belongs to the simulator.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.WriteTo(w)
}

func runSim(parent context.Context, opts *options) error {
	level, ok := logger.ParseLevel(opts.logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", opts.logLevel)
	}
	logs := &syncBuffer{}
	log := logger.NewWithWriter(logs, level)
	defer func() { _, _ = logs.WriteTo(os.Stderr) }()

	scr, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := scr.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer scr.Fini()
	scr.Clear()

	keys := sim.NewKeys()
	go keys.Poll(scr)

	screen := sim.NewScreen(scr)
	screen.Caption(1, "p: PIR   m: microwave   q: quit")

	horn := sim.NewHorn(sim.SampleRate)
	if opts.sound {
		if err := horn.Start(); err != nil {
			log.Warnw("speaker unavailable, horn is silent", "error", err)
		}
	}

	ctx, cancel := notifyShutdown(parent)
	defer cancel(nil)
	go func() {
		select {
		case <-keys.Quit():
			cancel(shutdownCause("QUIT"))
		case <-ctx.Done():
		}
	}()

	dev := &devices{reader: keys, horn: horn, leds: screen}
	return serve(ctx, opts, dev, log, captioner(screen))
}

// captioner shows the machine state under the simulated matrix.
func captioner(screen *sim.Screen) func(status.Snapshot) {
	var last string
	return func(snap status.Snapshot) {
		line := captionLine(snap)
		if line == last {
			return
		}
		last = line
		screen.Caption(0, line)
	}
}

func captionLine(snap status.Snapshot) string {
	line := fmt.Sprintf("%-7s triggers %-2d  PIR %-4s  MW %-4s",
		snap.State, snap.Counters.TriggerCount,
		levelString(snap.Sensors.PIR), levelString(snap.Sensors.Mwave))
	if snap.Counters.Problem {
		line += "  sensor stuck"
	}
	return line
}
