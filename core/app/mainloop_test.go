package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/candidate"
	"github.com/ftl/wsqso/core/capture"
	"github.com/ftl/wsqso/core/cycle"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2026, 10, 18, hour, minute, second, 0, time.UTC)
}

func newTestLoop(samples <-chan core.SampleChunk) (*mainLoop, *mocks) {
	m := &mocks{
		pusher:    &mockPusher{},
		engine:    &mockEngine{},
		capture:   &mockCapture{slots: 334},
		waterfall: &mockWaterfall{},
		worker:    &mockWorker{accept: true, results: make(chan candidate.Result)},
	}
	return newMainLoop(samples, m.pusher, m.engine, m.capture, m.waterfall, m.worker), m
}

func TestStopAndDone(t *testing.T) {
	m, _ := newTestLoop(make(chan core.SampleChunk))

	stop := make(chan struct{})
	start := time.Now()
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(stop)
	}()
	m.Run(stop)
	duration := time.Since(start)

	assert.True(t, duration >= 100*time.Millisecond)
	_, ok := <-m.Reports()
	assert.False(t, ok)
}

func TestCaptureGating(t *testing.T) {
	m, mocks := newTestLoop(nil)

	m.handleTick(cycle.Tick{Time: at(0, 4, 10), Position: 50, Active: true})
	assert.False(t, mocks.engine.last())

	m.handleTick(cycle.Tick{Time: at(0, 6, 40), Position: 0, Active: true, NewCycle: true})
	assert.True(t, mocks.engine.last())
	assert.Equal(t, 1, mocks.waterfall.marks)
	assert.Equal(t, 1, mocks.capture.resets)
	assert.Equal(t, at(0, 6, 40), m.cycleStart)

	m.handleTick(cycle.Tick{Time: at(0, 6, 41), Position: 1, Active: true})
	assert.True(t, mocks.engine.last())

	m.handleTick(cycle.Tick{Time: at(0, 8, 34), Position: 114, Active: false})
	assert.False(t, mocks.engine.last())
	assert.Equal(t, 1, mocks.capture.resets)
}

func TestIncompleteCycleIsDiscarded(t *testing.T) {
	m, mocks := newTestLoop(nil)
	m.handleTick(cycle.Tick{Time: at(0, 6, 40), Position: 0, Active: true, NewCycle: true})
	mocks.capture.cursor = 333

	m.handleTick(cycle.Tick{Time: at(0, 8, 34), Position: 114, Active: false})

	assert.False(t, mocks.engine.last())
	assert.Equal(t, 2, mocks.capture.resets)
	assert.Equal(t, 0, mocks.capture.cursor)
	assert.Empty(t, mocks.worker.submitted)
}

func TestCompletedCycleIsSubmitted(t *testing.T) {
	m, mocks := newTestLoop(nil)
	m.handleTick(cycle.Tick{Time: at(0, 6, 40), Position: 0, Active: true, NewCycle: true})

	m.cycleCompleted(capture.Snapshot{Slots: 334})

	assert.Equal(t, []time.Time{at(0, 6, 40)}, mocks.worker.submitted)
	assert.Equal(t, 1, m.pending)
	assert.False(t, mocks.engine.last())

	m.handleTick(cycle.Tick{Time: at(0, 8, 0), Position: 80, Active: true})
	assert.False(t, mocks.engine.last(), "capture stays off until the next cycle")
}

func TestDroppedCycleIsNotPending(t *testing.T) {
	m, mocks := newTestLoop(nil)
	mocks.worker.accept = false

	m.cycleCompleted(capture.Snapshot{Slots: 334})

	assert.Equal(t, 0, m.pending)
}

func TestEndOfInputWaitsForPendingResult(t *testing.T) {
	samples := make(chan core.SampleChunk, 1)
	m, mocks := newTestLoop(samples)
	m.dialFrequency = 7041100
	m.handleTick(cycle.Tick{Time: at(0, 6, 40), Position: 0, Active: true, NewCycle: true})
	m.cycleCompleted(capture.Snapshot{Slots: 334})
	samples <- core.SampleChunk{1, 2, 3}
	close(samples)

	done := make(chan struct{})
	go func() {
		m.Run(make(chan struct{}))
		close(done)
	}()

	candidates := []core.Candidate{{Bin: 300, Offset: 32, Frequency: 1532, SNR: -12}}
	mocks.worker.results <- candidate.Result{Cycle: at(0, 6, 40), Candidates: candidates}

	report, ok := <-m.Reports()
	require.True(t, ok)
	assert.Equal(t, core.CycleReport{Cycle: at(0, 6, 40), Dial: 7041100, Candidates: candidates}, report)
	<-done
	_, ok = <-m.Reports()
	assert.False(t, ok)
	assert.Equal(t, []core.SampleChunk{{1, 2, 3}}, mocks.pusher.chunks)
}

func TestDialFrequencyUpdates(t *testing.T) {
	m, mocks := newTestLoop(make(chan core.SampleChunk))
	dial := make(chan core.Frequency)
	m.dial = dial
	m.dialFrequency = 7038600
	m.handleTick(cycle.Tick{Time: at(0, 6, 40), Position: 0, Active: true, NewCycle: true})
	m.cycleCompleted(capture.Snapshot{Slots: 334})

	stop := make(chan struct{})
	go m.Run(stop)
	defer close(stop)

	dial <- 14095600
	mocks.worker.results <- candidate.Result{Cycle: at(0, 6, 40)}

	report := <-m.Reports()
	assert.Equal(t, core.Frequency(14095600), report.Dial)
}

func TestSampleClockDrivesTheCycle(t *testing.T) {
	m, mocks := newTestLoop(nil)
	m.sampleClock = cycle.NewSampleClock(at(0, 3, 19).Add(500*time.Millisecond), 10)

	m.processSamples(make(core.SampleChunk, 10))
	assert.Empty(t, mocks.engine.enabled)

	m.processSamples(make(core.SampleChunk, 10))
	assert.True(t, mocks.engine.last())
	assert.Equal(t, at(0, 3, 20), m.cycleStart)
	assert.Len(t, mocks.pusher.chunks, 2)
}

type mocks struct {
	pusher    *mockPusher
	engine    *mockEngine
	capture   *mockCapture
	waterfall *mockWaterfall
	worker    *mockWorker
}

type mockPusher struct {
	chunks []core.SampleChunk
}

func (m *mockPusher) Push(chunk core.SampleChunk) {
	m.chunks = append(m.chunks, chunk)
}

type mockEngine struct {
	enabled []bool
}

func (m *mockEngine) SetCaptureEnabled(enabled bool) {
	m.enabled = append(m.enabled, enabled)
}

func (m *mockEngine) last() bool {
	if len(m.enabled) == 0 {
		return false
	}
	return m.enabled[len(m.enabled)-1]
}

type mockCapture struct {
	cursor int
	slots  int
	resets int
}

func (m *mockCapture) Reset() {
	m.cursor = 0
	m.resets++
}

func (m *mockCapture) Cursor() int {
	return m.cursor
}

func (m *mockCapture) Slots() int {
	return m.slots
}

type mockWaterfall struct {
	marks int
	saved []string
}

func (m *mockWaterfall) MarkCycle() {
	m.marks++
}

func (m *mockWaterfall) SavePNG(filename string) error {
	m.saved = append(m.saved, filename)
	return nil
}

type mockWorker struct {
	accept    bool
	submitted []time.Time
	results   chan candidate.Result
}

func (m *mockWorker) Submit(cycle time.Time, _ capture.Snapshot) bool {
	if !m.accept {
		return false
	}
	m.submitted = append(m.submitted, cycle)
	return true
}

func (m *mockWorker) Results() <-chan candidate.Result {
	return m.results
}
