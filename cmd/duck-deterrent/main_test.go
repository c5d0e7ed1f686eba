package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/gpio"
	"github.com/sweeney/duck-deterrent/internal/logic"
	"github.com/sweeney/duck-deterrent/internal/matrix"
	"github.com/sweeney/duck-deterrent/internal/mqtt"
	"github.com/sweeney/duck-deterrent/internal/sequence"
	"github.com/sweeney/duck-deterrent/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		assert.Equal(t, canonical, got)
	}
}

func TestReadNetworkInfo(t *testing.T) {
	assert.Nil(t, readNetworkInfo(), "nil when NETWORK_STATUS is unset")

	t.Setenv(envNetworkStatus, "connected")
	info := readNetworkInfo()
	require.NotNil(t, info)
	assert.Equal(t, &status.NetworkInfo{Status: "connected"}, info)

	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "Pond")
	assert.Equal(t, &status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "Pond",
	}, readNetworkInfo())
}

func TestShutdownReason(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(shutdownCause("SIGTERM"))
	assert.Equal(t, "SIGTERM", shutdownReason(ctx))

	ctx, cancel = context.WithCancelCause(context.Background())
	cancel(nil)
	assert.Equal(t, "UNKNOWN", shutdownReason(ctx))

	assert.Equal(t, "SIGINT", signalName(syscall.SIGINT))
	assert.Equal(t, "SIGTERM", signalName(syscall.SIGTERM))
	assert.Equal(t, "UNKNOWN", signalName(syscall.SIGHUP))
}

func TestSleeperWakesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleeper(ctx)(time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}

// --- runLoop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Only called from the loop goroutine.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// stepClock is a machine clock advancing by step on every read.
type stepClock struct {
	now  logic.Millis
	step logic.Millis
}

func (c *stepClock) Now() logic.Millis {
	t := c.now
	c.now += c.step
	return t
}

// scriptedPresence answers Detected from a script, then false.
type scriptedPresence struct {
	script []bool
	i      int
}

func (p *scriptedPresence) Detected() bool {
	if p.i >= len(p.script) {
		return false
	}
	v := p.script[p.i]
	p.i++
	return v
}

type fixedLevels struct{ pir, mwave bool }

func (f fixedLevels) Sensors() (bool, bool) { return f.pir, f.mwave }

type nopOutputs struct{}

func (nopOutputs) Render(logic.State, int)  {}
func (nopOutputs) Silence()                 {}
func (nopOutputs) Indicate(logic.Indicator) {}

func newTestLoop(presence logic.Presence, pub *mqtt.FakePublisher, heartbeat time.Duration) *loop {
	cfg := logic.Config{
		RampLen:     2,
		BlastLen:    2,
		RampTime:    time.Second,
		BlastTime:   time.Second,
		RecoverTime: time.Second,
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := &loop{
		machine:   logic.NewMachine(cfg, &stepClock{step: 500}, presence, nopOutputs{}),
		sensors:   fixedLevels{mwave: true},
		tracker:   status.NewTracker(start, status.Config{DeviceID: "pond"}),
		heartbeat: logic.NewHeartbeat(start),
		interval:  heartbeat,
		now:       fakeClock(start, 400*time.Millisecond),
		log:       zap.NewNop().Sugar(),
	}
	if pub != nil {
		l.publisher, l.mqttStatus = pub, pub
	}
	return l
}

// runTicks drives the loop for n ticks, then cancels it with reason.
func runTicks(t *testing.T, l *loop, n int, reason string) {
	t.Helper()
	ctx, cancel := context.WithCancelCause(context.Background())
	tick := make(chan time.Time)

	errCh := make(chan error, 1)
	go func() { errCh <- l.run(ctx, tick) }()

	for i := 0; i < n; i++ {
		tick <- time.Time{}
	}
	cancel(shutdownCause(reason))
	require.NoError(t, <-errCh)
}

func TestRunLoopFullCycle(t *testing.T) {
	// Init->Armed, Armed->Ramp, presence held through the ramp, blast, then
	// two quiet recover ticks.
	presence := &scriptedPresence{script: []bool{false, true, true, true}}
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(presence, pub, 0)

	runTicks(t, l, 6, "SIGTERM")

	assert.Equal(t, []string{
		"ARMED:sensors clear",
		"RAMP:presence detected",
		"BLAST:presence held",
		"RECOVER:blast complete",
		"ARMED:recovered",
	}, pub.Trail())
	assert.Len(t, pub.Payloads, 5)

	require.Len(t, pub.SystemEvents, 1)
	assert.Equal(t, "SHUTDOWN", pub.SystemEvents[0].Event)
	assert.Equal(t, "SIGTERM", pub.SystemEvents[0].Reason)
	assert.True(t, pub.SystemEvents[0].Retained)

	snap := l.tracker.Snapshot()
	assert.Equal(t, logic.StateArmed, snap.State)
	assert.Equal(t, 1, snap.Counters.TriggerCount)
	assert.Equal(t, status.Sensors{Mwave: true, Detected: true}, snap.Sensors)
}

func TestRunLoopShutdownPayload(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	l := newTestLoop(&scriptedPresence{}, pub, 0)

	runTicks(t, l, 1, "SIGINT")

	require.Len(t, pub.SystemPayloads, 1)
	var parsed status.StatusJSON
	require.NoError(t, json.Unmarshal(pub.SystemPayloads[0], &parsed))
	assert.Equal(t, "SHUTDOWN", parsed.Status.Event)
	assert.Equal(t, "SIGINT", parsed.Status.Reason)
	assert.Equal(t, "ARMED", parsed.Status.State)
	assert.Equal(t, "pond", parsed.Status.Device)
	assert.True(t, parsed.Status.MQTT.Connected)
}

func TestRunLoopHeartbeat(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(&scriptedPresence{}, pub, time.Second)

	// Wall clock reads 0, 400ms, 800ms, 1200ms, 1600ms: one heartbeat at 1200ms.
	runTicks(t, l, 5, "SIGTERM")

	require.Len(t, pub.SystemEvents, 2)
	hb := pub.SystemEvents[0]
	assert.Equal(t, "HEARTBEAT", hb.Event)
	assert.False(t, hb.Retained)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 1, 200_000_000, time.UTC), hb.Timestamp)
	assert.Equal(t, "SHUTDOWN", pub.SystemEvents[1].Event)
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "10.0.0.7")
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(&scriptedPresence{}, pub, time.Second)

	runTicks(t, l, 4, "SIGTERM")

	require.NotEmpty(t, pub.SystemPayloads)
	var parsed status.StatusJSON
	require.NoError(t, json.Unmarshal(pub.SystemPayloads[0], &parsed))
	assert.Equal(t, "HEARTBEAT", parsed.Status.Event)
	require.NotNil(t, parsed.Status.Network)
	assert.Equal(t, "10.0.0.7", parsed.Status.Network.IP)
}

func TestRunLoopPublishErrorDoesNotStop(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errors.New("broker gone")
	presence := &scriptedPresence{script: []bool{false, true}}
	l := newTestLoop(presence, pub, 0)

	runTicks(t, l, 2, "SIGTERM")

	assert.Empty(t, pub.Transitions)
	assert.Equal(t, logic.StateRamp, l.machine.State())
	require.Len(t, pub.SystemEvents, 1, "shutdown still published")
}

func TestRunLoopWithoutBroker(t *testing.T) {
	var seen []logic.State
	l := newTestLoop(&scriptedPresence{}, nil, time.Millisecond)
	l.observe = func(s status.Snapshot) { seen = append(seen, s.State) }

	runTicks(t, l, 2, "QUIT")

	assert.Equal(t, []logic.State{logic.StateArmed, logic.StateArmed}, seen)
	assert.False(t, l.tracker.Snapshot().MQTTConnected)
}

// --- devices and commands ---

func fakeDevices(samples ...gpio.Sample) (*devices, *audio.Fake, *matrix.Fake) {
	horn := audio.NewFake()
	leds := matrix.NewFake()
	return &devices{reader: gpio.NewFakeReader(samples...), horn: horn, leds: leds}, horn, leds
}

func TestServeStopsWhenCancelled(t *testing.T) {
	dev, horn, leds := fakeDevices(gpio.Sample{PIR: true})
	opts := &options{
		sample:        time.Hour,
		tick:          time.Hour,
		skipCountdown: true,
		deviceID:      "pond",
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(shutdownCause("SIGTERM"))

	require.NoError(t, serve(ctx, opts, dev, zap.NewNop().Sugar(), nil))

	require.NotEmpty(t, horn.Calls)
	assert.Equal(t, audio.Call{Freq: 0, Duty: 1}, horn.Calls[0], "horn is silenced before anything else")
	assert.True(t, horn.Silent())
	assert.True(t, leds.Blank())
}

func TestDevicesCloseReverseOrder(t *testing.T) {
	var order []string
	d := &devices{closers: []func() error{
		func() error { order = append(order, "gpio"); return nil },
		func() error { order = append(order, "horn"); return errors.New("stuck") },
		func() error { order = append(order, "leds"); return nil },
	}}

	assert.EqualError(t, d.Close(), "stuck")
	assert.Equal(t, []string{"leds", "horn", "gpio"}, order)
	assert.NoError(t, d.Close(), "second close is a no-op")
}

func TestPlay(t *testing.T) {
	dev, horn, leds := fakeDevices()
	var slept time.Duration
	sleep := func(d time.Duration) { slept += d }

	require.NoError(t, play(dev, "ramp", sleep, zap.NewNop().Sugar()))
	assert.Equal(t, sequence.Default.Ramp.Total(), slept)
	assert.True(t, horn.Silent())
	assert.True(t, leds.Blank())

	assert.Error(t, play(dev, "quack", sleep, zap.NewNop().Sugar()))
}

func TestPrintSensors(t *testing.T) {
	var out bytes.Buffer
	reader := gpio.NewFakeReader(gpio.Sample{PIR: true})
	require.NoError(t, printSensors(&out, reader))
	assert.Equal(t, "PIR: HIGH, MWAVE: LOW\n", out.String())

	reader.Fail(errors.New("line busy"))
	assert.Error(t, printSensors(&out, reader))
}

func TestCaptionLine(t *testing.T) {
	snap := status.Snapshot{
		State:    logic.StateRecover,
		Counters: logic.Counters{TriggerCount: 3, Problem: true},
		Sensors:  status.Sensors{PIR: true, Detected: true},
	}
	assert.Equal(t, "RECOVER triggers 3   PIR HIGH  MW LOW   sensor stuck", captionLine(snap))
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "duck-deterrent dev\n", out.String())

	run, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	for flag, want := range map[string]string{
		"pin-pir":     "10",
		"pin-mwave":   "11",
		"pin-horn":    "8",
		"pin-leds":    "13",
		"sample":      "100ms",
		"tick":        "20ms",
		"heartbeat":   "15m0s",
		"start-delay": "1m0s",
		"broker":      "",
		"http":        "",
	} {
		f := run.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, want, f.DefValue, flag)
	}

	sim, _, err := root.Find([]string{"sim"})
	require.NoError(t, err)
	assert.NotNil(t, sim.Flags().Lookup("sound"))
	assert.Nil(t, sim.Flags().Lookup("pin-horn"))
}

func TestPlayRejectsUnknownPlaylist(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"play", "quack"})
	assert.Error(t, root.Execute())
}
