package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sweeney/duck-deterrent/internal/gpio"
	"github.com/sweeney/duck-deterrent/internal/logger"
	"github.com/sweeney/duck-deterrent/internal/sensor"
	"github.com/sweeney/duck-deterrent/internal/startup"
)

// Hardware defaults (BCM numbering).
const (
	defaultPinHorn    = 8  // PWM-capable pin feeding the horn driver
	defaultPinLEDs    = 13 // GlowBit data line on PWM channel 1
	defaultBrightness = 255
)

// options holds every command-line setting.
type options struct {
	pinPIR     int
	pinMwave   int
	pinHorn    int
	pinLEDs    int
	brightness int

	sample        time.Duration
	tick          time.Duration
	heartbeat     time.Duration
	startDelay    time.Duration
	skipCountdown bool

	broker   string
	httpAddr string
	deviceID string
	logLevel string

	sound bool
}

func defaultDeviceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "duck-deterrent"
	}
	return host
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "duck-deterrent",
		Short:        "Scare ducks away with a horn and an LED matrix.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newRunCmd(opts),
		newSimCmd(opts),
		newPlayCmd(opts),
		newSensorsCmd(opts),
		newVersionCmd(),
	)
	return root
}

// addServeFlags registers the flags shared by run and sim.
func addServeFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.DurationVar(&opts.sample, "sample", sensor.DefaultPeriod, "sensor sampling period")
	f.DurationVar(&opts.tick, "tick", 20*time.Millisecond, "control loop period")
	f.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	f.DurationVar(&opts.startDelay, "start-delay", startup.DefaultDelay, "sensor warm-up countdown")
	f.BoolVar(&opts.skipCountdown, "skip-countdown", false, "arm immediately without the warm-up countdown")
	f.StringVar(&opts.broker, "broker", "", "MQTT broker address, e.g. tcp://192.168.1.200:1883 (empty to disable)")
	f.StringVar(&opts.httpAddr, "http", "", "HTTP status address, e.g. :80 (empty to disable)")
	f.StringVar(&opts.deviceID, "device", defaultDeviceID(), "device id used in MQTT topics")
}

// addPinFlags registers the hardware wiring flags.
func addPinFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.IntVar(&opts.pinPIR, "pin-pir", gpio.DefaultPinPIR, "BCM pin number for the PIR sensor")
	f.IntVar(&opts.pinMwave, "pin-mwave", gpio.DefaultPinMwave, "BCM pin number for the microwave sensor")
	f.IntVar(&opts.pinHorn, "pin-horn", defaultPinHorn, "BCM pin number for the horn PWM output")
	f.IntVar(&opts.pinLEDs, "pin-leds", defaultPinLEDs, "BCM pin number for the LED matrix data line")
	f.IntVar(&opts.brightness, "brightness", defaultBrightness, "LED matrix brightness, 0-255")
}

func (o *options) newLogger() (*zap.SugaredLogger, error) {
	level, ok := logger.ParseLevel(o.logLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", o.logLevel)
	}
	return logger.New(level), nil
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the deterrent on the Raspberry Pi hardware.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			hw, err := openHardware(opts)
			if err != nil {
				return err
			}
			defer func() {
				if err := hw.Close(); err != nil {
					log.Warnw("closing hardware", "error", err)
				}
			}()

			ctx, cancel := notifyShutdown(cmd.Context())
			defer cancel(nil)
			return serve(ctx, opts, hw, log, nil)
		},
	}
	addPinFlags(cmd, opts)
	addServeFlags(cmd, opts)
	return cmd
}

func newSimCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run the deterrent against a simulated matrix, sensors and horn in the terminal.",
		Long: `Runs the same control loop as "run" with the LED matrix drawn in the
terminal. Press p to toggle the PIR sensor, m to toggle the microwave sensor
and q to quit. With --sound the horn is played through the speaker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSim(cmd.Context(), opts)
		},
	}
	addServeFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.sound, "sound", false, "play the horn through the speaker")
	return cmd
}

func newPlayCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "play ramp|blast",
		Short:     "Play one playlist on the hardware and exit.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"ramp", "blast"},
		RunE: func(_ *cobra.Command, args []string) error {
			log, err := opts.newLogger()
			if err != nil {
				return err
			}
			hw, err := openHardware(opts)
			if err != nil {
				return err
			}
			defer func() { _ = hw.Close() }()

			return play(hw, args[0], time.Sleep, log)
		},
	}
	addPinFlags(cmd, opts)
	return cmd
}

func newSensorsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Print the current sensor levels and exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, err := gpio.NewRealReader(opts.pinPIR, opts.pinMwave)
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer reader.Close()
			return printSensors(cmd.OutOrStdout(), reader)
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.pinPIR, "pin-pir", gpio.DefaultPinPIR, "BCM pin number for the PIR sensor")
	f.IntVar(&opts.pinMwave, "pin-mwave", gpio.DefaultPinMwave, "BCM pin number for the microwave sensor")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "duck-deterrent", version)
		},
	}
}
