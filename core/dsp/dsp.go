package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/dsputils"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
)

// Parameters of the spectrum engine. They are fixed for the lifetime of an engine.
type Parameters struct {
	SampleRate  int
	BufferSize  int
	BlockSize   int
	DisplayBand core.FrequencyRange
	DecodeBand  core.FrequencyRange
}

// DefaultParameters for 48kHz mono audio.
func DefaultParameters() Parameters {
	return Parameters{
		SampleRate:  48000,
		BufferSize:  65536,
		BlockSize:   16384,
		DisplayBand: core.FrequencyRange{From: 1300, To: 1700},
		DecodeBand:  core.FrequencyRange{From: 1313, To: 1688},
	}
}

// BinRange is an inclusive range of spectrum bins.
type BinRange struct {
	First, Last int
}

// Len returns the number of bins in the range.
func (r BinRange) Len() int {
	return r.Last - r.First + 1
}

// BinWidth returns the frequency resolution of a spectrum with the given size.
func BinWidth(sampleRate, size int) core.Frequency {
	return core.Frequency(float64(sampleRate) / float64(size))
}

// BandBins returns the bins of a spectrum with the given size that lie within the given band.
func BandBins(band core.FrequencyRange, sampleRate, size int) BinRange {
	Δf := float64(BinWidth(sampleRate, size))
	result := BinRange{
		First: int(math.Ceil(float64(band.From) / Δf)),
		Last:  int(math.Floor(float64(band.To) / Δf)),
	}
	if result.First < 0 || result.Last >= size/2 || result.Len() < 1 {
		panic(fmt.Errorf("band %v does not fit into a spectrum of %d bins at %dHz", band, size, sampleRate))
	}
	return result
}

// CaptureSink receives the decode band power of each advance while capturing is enabled.
type CaptureSink interface {
	Write(power []float64)
}

// SpectrumAvailable is called with the display band magnitudes of each advance.
type SpectrumAvailable func([]float64)

// Engine computes a windowed spectrum over a sliding buffer of the most recent samples.
// Advance must not be called concurrently.
type Engine struct {
	sampleRate int
	blockSize  int

	buffer   []int16 // circular, head is the oldest sample
	head     int
	window   []float64
	windowed []float64

	displayBins BinRange
	decodeBins  BinRange

	capture        CaptureSink
	captureEnabled bool

	spectrumAvailableCallbacks []SpectrumAvailable
}

// NewEngine returns a new engine. It panics if the parameters are inconsistent.
func NewEngine(params Parameters) *Engine {
	if !dsputils.IsPowerOf2(params.BufferSize) {
		panic(fmt.Errorf("buffer size %d must be a power of 2", params.BufferSize))
	}
	if params.BlockSize <= 0 || params.BlockSize > params.BufferSize || params.BufferSize%params.BlockSize != 0 {
		panic(fmt.Errorf("block size %d must divide buffer size %d", params.BlockSize, params.BufferSize))
	}
	if params.SampleRate <= 0 {
		panic(fmt.Errorf("invalid sample rate %d", params.SampleRate))
	}

	result := &Engine{
		sampleRate:  params.SampleRate,
		blockSize:   params.BlockSize,
		buffer:      make([]int16, params.BufferSize),
		window:      window.Hann(params.BufferSize),
		windowed:    make([]float64, params.BufferSize),
		displayBins: BandBins(params.DisplayBand, params.SampleRate, params.BufferSize),
		decodeBins:  BandBins(params.DecodeBand, params.SampleRate, params.BufferSize),
	}
	if len(result.window) != len(result.buffer) {
		panic(fmt.Errorf("window size %d != buffer size %d", len(result.window), len(result.buffer)))
	}

	zap.S().Debugf("spectrum engine: %d samples, %v/bin, display bins %v (%d), decode bins %v (%d)",
		params.BufferSize, BinWidth(params.SampleRate, params.BufferSize),
		result.displayBins, result.displayBins.Len(), result.decodeBins, result.decodeBins.Len())
	return result
}

// BlockSize is the number of samples consumed by each advance.
func (e *Engine) BlockSize() int {
	return e.blockSize
}

// BinWidth of the computed spectrum.
func (e *Engine) BinWidth() core.Frequency {
	return BinWidth(e.sampleRate, len(e.buffer))
}

// DisplayBins of the computed spectrum.
func (e *Engine) DisplayBins() BinRange {
	return e.displayBins
}

// DecodeBins of the computed spectrum.
func (e *Engine) DecodeBins() BinRange {
	return e.decodeBins
}

// SetCaptureSink sets the receiver of the decode band power.
func (e *Engine) SetCaptureSink(sink CaptureSink) {
	e.capture = sink
}

// SetCaptureEnabled switches forwarding of the decode band power on or off.
func (e *Engine) SetCaptureEnabled(enabled bool) {
	e.captureEnabled = enabled
}

// CaptureEnabled indicates if the decode band power is forwarded.
func (e *Engine) CaptureEnabled() bool {
	return e.captureEnabled
}

// OnSpectrumAvailable registers the given callback to be notified about new display band magnitudes.
func (e *Engine) OnSpectrumAvailable(f SpectrumAvailable) {
	e.spectrumAvailableCallbacks = append(e.spectrumAvailableCallbacks, f)
}

// Samples returns a copy of the buffer content, from the oldest to the most recent sample.
func (e *Engine) Samples() []int16 {
	result := make([]int16, 0, len(e.buffer))
	result = append(result, e.buffer[e.head:]...)
	result = append(result, e.buffer[:e.head]...)
	return result
}

// Advance the buffer by one block of samples and compute the spectrum.
func (e *Engine) Advance(block []int16) {
	if len(block) != e.blockSize {
		panic(fmt.Errorf("wrong block size %d != %d expected", len(block), e.blockSize))
	}

	copy(e.buffer[e.head:e.head+e.blockSize], block)
	e.head = (e.head + e.blockSize) % len(e.buffer)

	spectrum := fft.FFTReal(e.applyWindow())

	magnitudes := make([]float64, e.displayBins.Len())
	for i := range magnitudes {
		magnitudes[i] = cmplx.Abs(spectrum[e.displayBins.First+i])
	}
	for _, spectrumAvailable := range e.spectrumAvailableCallbacks {
		spectrumAvailable(magnitudes)
	}

	if !e.captureEnabled || e.capture == nil {
		return
	}
	power := make([]float64, e.decodeBins.Len())
	for i := range power {
		v := spectrum[e.decodeBins.First+i]
		power[i] = real(v)*real(v) + imag(v)*imag(v)
	}
	e.capture.Write(power)
}

func (e *Engine) applyWindow() []float64 {
	n := len(e.buffer) - e.head
	for i, s := range e.buffer[e.head:] {
		e.windowed[i] = float64(s) * e.window[i]
	}
	for i, s := range e.buffer[:e.head] {
		e.windowed[n+i] = float64(s) * e.window[n+i]
	}
	return e.windowed
}
