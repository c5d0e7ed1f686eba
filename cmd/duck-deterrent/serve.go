package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/duck-deterrent/internal/audio"
	"github.com/sweeney/duck-deterrent/internal/deterrent"
	"github.com/sweeney/duck-deterrent/internal/logic"
	"github.com/sweeney/duck-deterrent/internal/matrix"
	"github.com/sweeney/duck-deterrent/internal/mqtt"
	"github.com/sweeney/duck-deterrent/internal/sensor"
	"github.com/sweeney/duck-deterrent/internal/sequence"
	"github.com/sweeney/duck-deterrent/internal/startup"
	"github.com/sweeney/duck-deterrent/internal/status"
	"github.com/sweeney/duck-deterrent/internal/web"
)

// shutdownCause is the context cancellation cause carrying the reason
// reported in the SHUTDOWN event.
type shutdownCause string

func (c shutdownCause) Error() string {
	return "shutdown: " + string(c)
}

func shutdownReason(ctx context.Context) string {
	var c shutdownCause
	if errors.As(context.Cause(ctx), &c) {
		return string(c)
	}
	return "UNKNOWN"
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

// notifyShutdown returns a context cancelled on SIGINT or SIGTERM.
func notifyShutdown(parent context.Context) (context.Context, context.CancelCauseFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case s := <-sigCh:
			cancel(shutdownCause(signalName(s)))
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// sleeper returns a sleep function that wakes early once ctx is done.
func sleeper(ctx context.Context) func(time.Duration) {
	return func(d time.Duration) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
}

// serve runs the deterrent on dev until ctx is cancelled. observe, if set, is
// called with a fresh snapshot after every control-loop step.
func serve(ctx context.Context, opts *options, dev *devices, log *zap.SugaredLogger, observe func(status.Snapshot)) error {
	tone := audio.NewToneGenerator(dev.horn)
	// The horn idles loud until its PWM is written.
	if err := tone.Silence(); err != nil {
		return fmt.Errorf("silence horn: %w", err)
	}
	defer func() {
		if err := errors.Join(tone.Silence(), matrix.Fill(dev.leds, matrix.Off)); err != nil {
			log.Warnw("failed to quiet outputs", "error", err)
		}
	}()

	cfg := logic.DefaultConfig(len(sequence.Default.Ramp), len(sequence.Default.Blast))
	start := time.Now()
	tracker := status.NewTracker(start, status.Config{
		DeviceID:    opts.deviceID,
		SampleMs:    opts.sample.Milliseconds(),
		TickMs:      opts.tick.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		RampMs:      cfg.RampTime.Milliseconds(),
		BlastMs:     cfg.BlastTime.Milliseconds(),
		RecoverMs:   cfg.RecoverTime.Milliseconds(),
		Broker:      opts.broker,
		HTTPAddr:    opts.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	l := &loop{
		tracker:   tracker,
		heartbeat: logic.NewHeartbeat(start),
		interval:  opts.heartbeat,
		now:       time.Now,
		log:       log,
		observe:   observe,
	}

	if opts.broker != "" {
		broker, err := mqtt.NewRealPublisher(opts.broker, opts.deviceID, log)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		async := mqtt.NewAsyncPublisher(broker, mqtt.DefaultQueueDepth, log)
		defer func() {
			if err := async.Close(); err != nil {
				log.Warnw("failed to close mqtt", "error", err)
			}
		}()
		l.publisher, l.mqttStatus = async, async

		snap := tracker.Snapshot()
		l.publishSystem(mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		})
	}

	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Infow("http status server listening", "addr", opts.httpAddr)
	}

	sleep := sleeper(ctx)
	if !opts.skipCountdown {
		log.Infow("sensor warm-up", "delay", opts.startDelay)
		if err := startup.New(dev.leds, tone, sleep).Run(ctx, opts.startDelay); err != nil && ctx.Err() == nil {
			log.Warnw("countdown failed", "error", err)
		}
	}

	monitor := sensor.New(dev.reader, log)
	monitor.Sample()
	var wg sync.WaitGroup
	defer wg.Wait()
	sampleCtx, stopSampling := context.WithCancel(ctx)
	defer stopSampling()
	sampleTicker := time.NewTicker(opts.sample)
	defer sampleTicker.Stop()
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = monitor.Run(sampleCtx, sampleTicker.C)
	}()

	player := sequence.NewPlayer(tone, matrix.Frame{Driver: dev.leds}, sleep, log)
	out := deterrent.NewOutputs(player, sequence.Default, tone, dev.leds, log)
	l.machine = logic.NewMachine(cfg, logic.NewMonotonicClock(), monitor, out)
	l.sensors = monitor

	log.Infow("started",
		"device", opts.deviceID,
		"sample", opts.sample,
		"tick", opts.tick,
		"heartbeat", opts.heartbeat,
		"broker", opts.broker,
	)

	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()
	return l.run(ctx, ticker.C)
}

// sensorLevels is the sampled sensor state read by the loop.
type sensorLevels interface {
	Sensors() (pir, mwave bool)
}

// loop is the control loop: it steps the machine on every tick and reports
// transitions, heartbeats and shutdown.
type loop struct {
	machine    *logic.Machine
	sensors    sensorLevels
	publisher  mqtt.Publisher // nil when MQTT is disabled
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  *logic.Heartbeat
	interval   time.Duration
	now        func() time.Time
	log        *zap.SugaredLogger
	observe    func(status.Snapshot)
}

func (l *loop) run(ctx context.Context, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			l.shutdown(shutdownReason(ctx))
			return nil
		case <-tick:
			l.step()
		}
	}
}

func (l *loop) step() {
	tr, changed := l.machine.Tick()
	t := l.now()

	if changed {
		l.log.Infow("state change",
			"from", tr.From,
			"to", tr.To,
			"reason", tr.Reason,
			"triggers", tr.TriggerCount,
		)
		if l.publisher != nil {
			l.report("transition", l.publisher.Publish(t, tr))
		}
	}

	l.update()

	if hb := l.heartbeat.Check(t, l.interval, l.machine); hb != nil {
		l.log.Infow("heartbeat", "uptime", hb.Uptime, "state", hb.State, "triggers", hb.TriggerCount)
		if net := readNetworkInfo(); net != nil {
			l.tracker.SetNetwork(net)
		}
		snap := l.tracker.Snapshot()
		l.publishSystem(mqtt.SystemEvent{
			Timestamp:  hb.Timestamp,
			Event:      "HEARTBEAT",
			RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
		})
	}

	if l.observe != nil {
		l.observe(l.tracker.Snapshot())
	}
}

// update refreshes the status tracker for the HTTP and MQTT consumers.
func (l *loop) update() {
	pir, mwave := l.sensors.Sensors()
	l.tracker.Update(l.machine.State(), l.machine.Counters(), status.Sensors{
		PIR:      pir,
		Mwave:    mwave,
		Detected: pir || mwave,
	})
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l *loop) shutdown(reason string) {
	l.log.Infow("shutting down", "reason", reason, "state", l.machine.State())
	l.update()
	snap := l.tracker.Snapshot()
	l.publishSystem(mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	})
}

func (l *loop) publishSystem(event mqtt.SystemEvent) {
	if l.publisher == nil {
		return
	}
	l.report(event.Event, l.publisher.PublishSystem(event))
}

// report logs a publish failure. The control loop never stops for telemetry.
func (l *loop) report(what string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, mqtt.ErrQueueFull):
		l.log.Debugw("telemetry dropped", "event", what)
	default:
		l.log.Warnw("publish failed", "event", what, "error", err)
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

// play renders one named playlist once.
func play(dev *devices, name string, sleep func(time.Duration), log *zap.SugaredLogger) error {
	var pl sequence.Playlist
	switch name {
	case "ramp":
		pl = sequence.Default.Ramp
	case "blast":
		pl = sequence.Default.Blast
	default:
		return fmt.Errorf("unknown playlist %q", name)
	}

	tone := audio.NewToneGenerator(dev.horn)
	if err := tone.Silence(); err != nil {
		return fmt.Errorf("silence horn: %w", err)
	}
	log.Infow("playing", "playlist", name, "entries", len(pl), "duration", pl.Total())
	return sequence.NewPlayer(tone, matrix.Frame{Driver: dev.leds}, sleep, log).Play(pl)
}
