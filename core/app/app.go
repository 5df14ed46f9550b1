package app

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/bandplan"
	"github.com/ftl/wsqso/core/candidate"
	"github.com/ftl/wsqso/core/capture"
	"github.com/ftl/wsqso/core/cycle"
	"github.com/ftl/wsqso/core/dsp"
	"github.com/ftl/wsqso/core/rx"
	"github.com/ftl/wsqso/core/vfo"
	"github.com/ftl/wsqso/core/waterfall"
)

// Options of the controller that do not belong to the persistent configuration.
type Options struct {
	// RecordFile receives a copy of the incoming audio as WAV, if set.
	RecordFile string
	// SnapshotDir receives a PNG image of the waterfall for each completed cycle, if set.
	SnapshotDir string
	// SampleClock derives the cycle from the number of received samples, starting at the given time,
	// instead of the wall clock.
	SampleClock bool
	Start       time.Time
	// Dial frequency reported with the candidates, instead of the band's dial frequency, if set.
	Dial core.Frequency
}

// NewController returns a new controller for the given configuration and audio input.
func NewController(configuration core.Configuration, input core.SamplesInput, options Options) *Controller {
	return &Controller{
		configuration: configuration,
		input:         input,
		options:       options,
		params:        dsp.DefaultParameters(),
	}
}

// Controller for the application.
type Controller struct {
	configuration core.Configuration
	input         core.SamplesInput
	options       Options
	params        dsp.Parameters

	done         chan struct{}
	finished     chan struct{}
	subProcesses *sync.WaitGroup
	cancelClock  context.CancelFunc

	band      bandplan.Band
	recorder  *rx.Recorder
	worker    *candidate.Worker
	waterfall *waterfall.Waterfall
	mainLoop  *mainLoop
}

// Startup the application.
func (c *Controller) Startup() error {
	band, ok := bandplan.WSPR.ByName(bandplan.BandName(c.configuration.Band))
	if !ok {
		return errors.Errorf("unknown band %q", c.configuration.Band)
	}
	c.band = band
	c.done = make(chan struct{})
	c.finished = make(chan struct{})
	c.subProcesses = new(sync.WaitGroup)

	receiver := rx.New(c.input)
	if c.options.RecordFile != "" {
		recorder, err := rx.NewRecorder(c.options.RecordFile, c.params.SampleRate)
		if err != nil {
			return err
		}
		c.recorder = recorder
		receiver.SetRecorder(recorder)
	}

	engine := dsp.NewEngine(c.params)
	buffer := capture.New(engine.DecodeBins().Len(), capture.DefaultCapacity, capture.DefaultSlots)
	engine.SetCaptureSink(buffer)
	c.waterfall = waterfall.New(c.configuration.WaterfallWidth, c.configuration.WaterfallHeight, c.params.DisplayBand)
	engine.OnSpectrumAvailable(c.waterfall.Update)

	extractionParams := candidate.DefaultParameters(c.configuration.ShiftFrequency)
	extractionParams.BinWidth = engine.BinWidth()
	worker := candidate.NewWorker(extractionParams)
	c.worker = worker

	accumulator := dsp.NewAccumulator(engine.BlockSize(), engine.Advance)
	c.mainLoop = newMainLoop(receiver.Samples(), accumulator, engine, buffer, c.waterfall, worker)
	c.mainLoop.dialFrequency = band.Dial
	if c.options.Dial > 0 {
		c.mainLoop.dialFrequency = c.options.Dial
	}
	c.mainLoop.snapshotDir = c.options.SnapshotDir
	buffer.OnComplete(c.mainLoop.cycleCompleted)

	if c.options.SampleClock {
		c.mainLoop.sampleClock = cycle.NewSampleClock(c.options.Start, c.params.SampleRate)
	} else {
		clock := cycle.New()
		var ctx context.Context
		ctx, c.cancelClock = context.WithCancel(context.Background())
		c.mainLoop.ticks = clock.Ticks()
		c.subProcesses.Add(1)
		go func() {
			defer c.subProcesses.Done()
			clock.Run(ctx)
		}()
	}

	if c.configuration.VFOHost != "" {
		dialFrequency := make(chan core.Frequency, 1)
		c.mainLoop.dial = dialFrequency
		v, err := vfo.Open(c.configuration.VFOHost)
		if err != nil {
			zap.S().Errorf("dial frequency not available: %v", err)
		} else {
			v.OnFrequencyChange(func(f core.Frequency) {
				select {
				case dialFrequency <- f:
				default:
					zap.S().Warn("dial frequency update hangs")
				}
			})
			v.SetFrequency(band.Dial)
			v.Run(c.done, c.subProcesses)
		}
	}

	zap.S().Infof("band %s, dial %v, shift %v, TX %v", band.Name, band.Dial, c.configuration.ShiftFrequency, c.configuration.TXFrequency(band.Dial))

	receiver.Run(c.done, c.subProcesses)
	c.subProcesses.Add(1)
	go func() {
		defer c.subProcesses.Done()
		defer close(c.finished)
		c.mainLoop.Run(c.done)
	}()
	return nil
}

// Shutdown the application.
func (c *Controller) Shutdown() {
	close(c.done)
	if c.cancelClock != nil {
		c.cancelClock()
	}
	c.subProcesses.Wait()
	c.worker.Close()
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			zap.S().Errorf("cannot finish recording: %v", err)
		} else {
			zap.S().Infof("%v of audio recorded to %s", c.recorder.Duration(), c.options.RecordFile)
		}
	}
}

// Reports of the completed cycles. The channel is closed when the main loop ends.
func (c *Controller) Reports() <-chan core.CycleReport {
	return c.mainLoop.Reports()
}

// Finished is closed when the main loop has ended, e.g. at the end of a replayed file.
func (c *Controller) Finished() <-chan struct{} {
	return c.finished
}

// Band returns the selected band.
func (c *Controller) Band() bandplan.Band {
	return c.band
}

// Waterfall returns the waterfall that is updated with each spectrum. It must not be used before Finished is closed.
func (c *Controller) Waterfall() *waterfall.Waterfall {
	return c.waterfall
}
