package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/cfg"
)

var rootFlags = struct {
	verbose     bool
	output      string
	top         int
	snapshotDir string
	record      string

	band            string
	shiftMode       string
	shiftFrequency  float64
	vfoHost         string
	callsign        string
	locator         string
	power           int
	waterfallWidth  int
	waterfallHeight int
}{}

var configuration core.Configuration

var rootCmd = &cobra.Command{
	Use:   "wsqso",
	Short: "capture WSPR cycles from a soundcard and list the signal candidates",
	Long: `wsqso computes the spectrum of the audio from a WSPR receiver, captures the decode band
during each transmission cycle, and lists the signal candidates (audio frequency and SNR) found
in every completed cycle.

Settings are read from the hamradio configuration file (keys wsqso.*), from environment
variables with the prefix WSQSO_, and from the command line, in increasing precedence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(rootFlags.verbose)
		return loadConfiguration(cmd.Flags())
	},
}

// Execute the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&rootFlags.output, "output", "o", "table", "output format of the reports (table, yaml)")
	rootCmd.PersistentFlags().IntVar(&rootFlags.top, "top", 10, "number of candidates to report per cycle")
	rootCmd.PersistentFlags().StringVar(&rootFlags.snapshotDir, "snapshot-dir", "", "write a PNG image of the waterfall into this directory for each cycle")
	rootCmd.PersistentFlags().StringVar(&rootFlags.record, "record", "", "record the incoming audio into this WAV file")

	rootCmd.PersistentFlags().StringVar(&rootFlags.band, "band", "", "WSPR band, e.g. 40m")
	rootCmd.PersistentFlags().StringVar(&rootFlags.shiftMode, "shift-mode", "", "shift mode (random, fixed)")
	rootCmd.PersistentFlags().Float64Var(&rootFlags.shiftFrequency, "shift", 0, "fixed shift frequency in Hz (1400-1600)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.vfoHost, "vfo", "", "address of rigctld to read the dial frequency from")
	rootCmd.PersistentFlags().StringVar(&rootFlags.callsign, "callsign", "", "station callsign")
	rootCmd.PersistentFlags().StringVar(&rootFlags.locator, "locator", "", "station locator (4 or 6 characters)")
	rootCmd.PersistentFlags().IntVar(&rootFlags.power, "power", 0, "transmit power in dBm (0-60)")
	rootCmd.PersistentFlags().IntVar(&rootFlags.waterfallWidth, "waterfall-width", 0, "width of the waterfall image")
	rootCmd.PersistentFlags().IntVar(&rootFlags.waterfallHeight, "waterfall-height", 0, "height of the waterfall image")
}

func setupLogging(verbose bool) {
	config := zap.NewDevelopmentConfig()
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot setup logging: %v\n", err)
		return
	}
	zap.ReplaceGlobals(logger)
}

func loadConfiguration(flags *pflag.FlagSet) error {
	var err error
	configuration, err = cfg.Load()
	if err != nil {
		zap.S().Infof("using default configuration: %v", err)
		configuration = cfg.Static()
	}

	v, err := newOverrides(flags)
	if err != nil {
		return err
	}
	configuration, err = applyOverrides(configuration, v)
	if err != nil {
		return err
	}

	configuration = cfg.Normalize(configuration, nil)
	return cfg.Validate(configuration)
}

// newOverrides binds the given flags and the WSQSO_* environment variables, flags take precedence.
func newOverrides(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("WSQSO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, errors.Wrap(err, "cannot bind flags")
	}
	return v, nil
}

// applyOverrides replaces the configuration values that are set through environment variables or flags.
// An explicit shift frequency implies the fixed shift mode.
func applyOverrides(configuration core.Configuration, v *viper.Viper) (core.Configuration, error) {
	result := configuration
	if v.IsSet("band") {
		result.Band = v.GetString("band")
	}
	if v.IsSet("shift-mode") {
		result.ShiftMode = core.ShiftMode(v.GetString("shift-mode"))
	}
	if v.IsSet("shift") {
		if v.IsSet("shift-mode") && result.ShiftMode != core.ShiftFixed {
			return configuration, errors.Errorf("shift frequency cannot be combined with shift mode %s", result.ShiftMode)
		}
		result.ShiftMode = core.ShiftFixed
		result.ShiftFrequency = core.Frequency(v.GetFloat64("shift"))
	}
	if v.IsSet("audio-device") {
		result.AudioDevice = v.GetString("audio-device")
	}
	if v.IsSet("testmode") {
		result.Testmode = v.GetBool("testmode")
	}
	if v.IsSet("vfo") {
		result.VFOHost = v.GetString("vfo")
	}
	if v.IsSet("callsign") {
		result.Station.Callsign = v.GetString("callsign")
	}
	if v.IsSet("locator") {
		result.Station.Locator = v.GetString("locator")
	}
	if v.IsSet("power") {
		result.Station.Power = v.GetInt("power")
	}
	if v.IsSet("waterfall-width") {
		result.WaterfallWidth = v.GetInt("waterfall-width")
	}
	if v.IsSet("waterfall-height") {
		result.WaterfallHeight = v.GetInt("waterfall-height")
	}
	return result, nil
}

func runWithCtx(f func(ctx context.Context, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		defer zap.S().Sync()

		return f(ctx, cmd, args)
	}
}
