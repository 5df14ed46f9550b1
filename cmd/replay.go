package cmd

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/app"
	"github.com/ftl/wsqso/core/cycle"
	"github.com/ftl/wsqso/core/rx"
)

var replayFlags = struct {
	paced  bool
	offset time.Duration
	start  string
	dial   float64
}{}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "replay a recorded WAV file (48kHz, 16 bit, mono) and report the candidates",
	Long: `replay reads a recorded WAV file and processes it like live audio.

By default the file is processed as fast as possible and the cycle timing is derived from the
number of samples, as if the recording began --offset before the start of a cycle. With --paced
the file is replayed in real time and the wall clock defines the cycles.`,
	Args: cobra.ExactArgs(1),
	RunE: runWithCtx(replay),
}

func init() {
	replayCmd.Flags().BoolVar(&replayFlags.paced, "paced", false, "replay in real time using the wall clock")
	replayCmd.Flags().DurationVar(&replayFlags.offset, "offset", time.Second, "time between the beginning of the recording and the start of the first cycle")
	replayCmd.Flags().StringVar(&replayFlags.start, "start", "", "time of the first sample (RFC3339), overrides --offset")
	replayCmd.Flags().Float64Var(&replayFlags.dial, "dial", 0, "dial frequency in Hz that was used for the recording")

	rootCmd.AddCommand(replayCmd)
}

func replay(ctx context.Context, cmd *cobra.Command, args []string) error {
	format, err := parseReportFormat(rootFlags.output)
	if err != nil {
		return err
	}
	options, err := replayOptions(time.Now())
	if err != nil {
		return err
	}
	options.SnapshotDir = rootFlags.snapshotDir
	options.RecordFile = rootFlags.record
	options.Dial = core.Frequency(replayFlags.dial)

	input, err := rx.NewWavInput(args[0], sampleRate, chunkSize, replayFlags.paced)
	if err != nil {
		return err
	}

	controller := app.NewController(configuration, input, options)
	if err := controller.Startup(); err != nil {
		input.Close()
		return err
	}
	defer controller.Shutdown()

	return printReports(os.Stdout, format, rootFlags.top, controller.Reports(), ctx.Done())
}

func replayOptions(now time.Time) (app.Options, error) {
	if replayFlags.paced {
		return app.Options{}, nil
	}
	if replayFlags.start != "" {
		start, err := time.Parse(time.RFC3339, replayFlags.start)
		if err != nil {
			return app.Options{}, errors.Wrapf(err, "invalid start time %q", replayFlags.start)
		}
		return app.Options{SampleClock: true, Start: start}, nil
	}
	if replayFlags.offset < 0 || replayFlags.offset >= cycle.Length*time.Second {
		return app.Options{}, errors.Errorf("invalid offset %v", replayFlags.offset)
	}
	start := cycle.Start(now).Add(-replayFlags.offset)
	zap.S().Debugf("replay starts at %s", start.Format(time.RFC3339))
	return app.Options{SampleClock: true, Start: start}, nil
}
