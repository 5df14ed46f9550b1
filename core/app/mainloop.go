package app

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/candidate"
	"github.com/ftl/wsqso/core/capture"
	"github.com/ftl/wsqso/core/cycle"
)

type samplesPusher interface {
	Push(core.SampleChunk)
}

type engineType interface {
	SetCaptureEnabled(bool)
}

type captureType interface {
	Reset()
	Cursor() int
	Slots() int
}

type waterfallType interface {
	MarkCycle()
	SavePNG(filename string) error
}

type workerType interface {
	Submit(cycle time.Time, snapshot capture.Snapshot) bool
	Results() <-chan candidate.Result
}

type sampleClock interface {
	Due() []cycle.Tick
	Advance(samples int)
}

type mainLoop struct {
	samples     <-chan core.SampleChunk
	ticks       <-chan cycle.Tick
	sampleClock sampleClock
	dial        <-chan core.Frequency

	accumulator samplesPusher
	engine      engineType
	capture     captureType
	waterfall   waterfallType
	worker      workerType

	armed         bool
	cycleStart    time.Time
	pending       int
	dialFrequency core.Frequency
	snapshotDir   string

	reports chan core.CycleReport
}

func newMainLoop(samples <-chan core.SampleChunk, accumulator samplesPusher, engine engineType, capture captureType, waterfall waterfallType, worker workerType) *mainLoop {
	return &mainLoop{
		samples:     samples,
		accumulator: accumulator,
		engine:      engine,
		capture:     capture,
		waterfall:   waterfall,
		worker:      worker,
		reports:     make(chan core.CycleReport, 4),
	}
}

// Run the main loop until stop is closed or the samples input ends. The reports channel is closed on return.
func (m *mainLoop) Run(stop chan struct{}) {
	defer zap.S().Info("main loop shutdown")
	defer close(m.reports)
	samples := m.samples
	for {
		if samples == nil && m.pending == 0 {
			return
		}
		select {
		case chunk, ok := <-samples:
			if !ok {
				samples = nil
				m.endOfInput()
				continue
			}
			m.processSamples(chunk)
		case tick, ok := <-m.ticks:
			if !ok {
				m.ticks = nil
				continue
			}
			m.handleTick(tick)
		case result := <-m.worker.Results():
			m.pending--
			m.report(result)
		case f := <-m.dial:
			m.dialFrequency = f
		case <-stop:
			return
		}
	}
}

// Reports of the completed cycles.
func (m *mainLoop) Reports() <-chan core.CycleReport {
	return m.reports
}

func (m *mainLoop) processSamples(chunk core.SampleChunk) {
	if m.sampleClock == nil {
		m.accumulator.Push(chunk)
		return
	}
	for _, tick := range m.sampleClock.Due() {
		m.handleTick(tick)
	}
	m.accumulator.Push(chunk)
	m.sampleClock.Advance(len(chunk))
}

func (m *mainLoop) handleTick(tick cycle.Tick) {
	if tick.NewCycle {
		m.discardIncompleteCycle()
		m.capture.Reset()
		m.armed = true
		m.cycleStart = cycle.Start(tick.Time)
		m.waterfall.MarkCycle()
		zap.S().Infof("new cycle %s", m.cycleStart.UTC().Format(time.TimeOnly))
	}
	if !tick.Active && m.armed {
		m.discardIncompleteCycle()
		m.armed = false
	}
	m.engine.SetCaptureEnabled(m.armed && tick.Active)
}

func (m *mainLoop) discardIncompleteCycle() {
	if m.capture.Cursor() == 0 {
		return
	}
	zap.S().Warnf("incomplete cycle discarded, %d of %d slots captured", m.capture.Cursor(), m.capture.Slots())
	m.capture.Reset()
}

// cycleCompleted is called by the capture buffer when the cycle's slots are filled.
func (m *mainLoop) cycleCompleted(snapshot capture.Snapshot) {
	m.armed = false
	m.engine.SetCaptureEnabled(false)
	if m.worker.Submit(m.cycleStart, snapshot) {
		m.pending++
	}
}

func (m *mainLoop) endOfInput() {
	m.engine.SetCaptureEnabled(false)
	m.discardIncompleteCycle()
	m.armed = false
	if m.pending > 0 {
		zap.S().Infof("end of input, waiting for %d extraction(s)", m.pending)
	}
}

func (m *mainLoop) report(result candidate.Result) {
	report := core.CycleReport{
		Cycle:      result.Cycle,
		Dial:       m.dialFrequency,
		Candidates: result.Candidates,
	}

	if m.snapshotDir != "" {
		filename := filepath.Join(m.snapshotDir, fmt.Sprintf("wsqso_%s.png", result.Cycle.UTC().Format("20060102_150405")))
		if err := m.waterfall.SavePNG(filename); err != nil {
			zap.S().Errorf("cannot save waterfall snapshot: %v", err)
		}
	}

	select {
	case m.reports <- report:
	default:
		zap.S().Warn("report hangs")
	}
}
