package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/app"
	"github.com/ftl/wsqso/core/rx"
)

const (
	sampleRate = 48000
	chunkSize  = 4800

	testToneOffset    = 30
	testToneAmplitude = 300
	testNoise         = 1000
)

var runFlags = struct {
	audioDevice string
	testmode    bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "capture the audio from the soundcard and report the candidates of each cycle",
	RunE:  runWithCtx(run),
}

func init() {
	runCmd.Flags().StringVar(&runFlags.audioDevice, "audio-device", "", "name or id of the capture device, the default device if empty")
	runCmd.Flags().BoolVar(&runFlags.testmode, "testmode", false, "use a synthetic test tone instead of the soundcard")

	rootCmd.AddCommand(runCmd)
}

func run(ctx context.Context, cmd *cobra.Command, args []string) error {
	format, err := parseReportFormat(rootFlags.output)
	if err != nil {
		return err
	}

	input, err := openInput(configuration)
	if err != nil {
		return err
	}

	controller := app.NewController(configuration, input, app.Options{
		RecordFile:  rootFlags.record,
		SnapshotDir: rootFlags.snapshotDir,
	})
	if err := controller.Startup(); err != nil {
		input.Close()
		return err
	}
	defer controller.Shutdown()

	return printReports(os.Stdout, format, rootFlags.top, controller.Reports(), ctx.Done())
}

func openInput(configuration core.Configuration) (core.SamplesInput, error) {
	if configuration.Testmode {
		f := configuration.ShiftFrequency + testToneOffset
		zap.S().Infof("testmode: tone at %v", f)
		return rx.NewToneInput(chunkSize, sampleRate, f, testToneAmplitude, testNoise), nil
	}
	capture, err := rx.NewCapture(configuration.AudioDevice, sampleRate)
	if err != nil {
		return nil, err
	}
	return capture, nil
}
