package rx

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
)

// sampleGenerator fills the given chunk, starting with the sample at the given position in the stream.
type sampleGenerator func(chunk core.SampleChunk, position int)

// Generator is a SamplesInput that produces synthetic samples in real time.
type Generator struct {
	name      string
	samples   chan core.SampleChunk
	done      chan struct{}
	closeOnce sync.Once
}

func newGenerator(name string, chunkSize int, sampleRate int, generate sampleGenerator) *Generator {
	result := &Generator{
		name:    name,
		samples: make(chan core.SampleChunk, 1),
		done:    make(chan struct{}),
	}
	chunkDuration := time.Duration(float64(chunkSize) / float64(sampleRate) * float64(time.Second))

	go func() {
		defer zap.S().Infof("%s shutdown", name)
		defer close(result.samples)
		position := 0
		for {
			nextChunk := make(core.SampleChunk, chunkSize)
			generate(nextChunk, position)
			position += chunkSize
			select {
			case result.samples <- nextChunk:
				time.Sleep(chunkDuration)
			case <-result.done:
				return
			}
		}
	}()

	return result
}

// NewNoiseInput returns a new SamplesInput that produces gaussian noise with the given standard deviation.
func NewNoiseInput(chunkSize int, sampleRate int, deviation float64) *Generator {
	random := rand.New(rand.NewSource(time.Now().UnixNano()))
	return newGenerator("NoiseInput", chunkSize, sampleRate, func(chunk core.SampleChunk, _ int) {
		for i := range chunk {
			chunk[i] = clampSample(random.NormFloat64() * deviation)
		}
	})
}

// NewToneInput returns a new SamplesInput that produces a sine wave with the given frequency and amplitude,
// optionally on top of gaussian noise with the given standard deviation.
func NewToneInput(chunkSize int, sampleRate int, f core.Frequency, amplitude float64, deviation float64) *Generator {
	random := rand.New(rand.NewSource(time.Now().UnixNano()))
	ω := 2.0 * math.Pi * float64(f) / float64(sampleRate)
	return newGenerator("ToneInput", chunkSize, sampleRate, func(chunk core.SampleChunk, position int) {
		for i := range chunk {
			t := float64(position + i)
			v := amplitude * math.Sin(ω*t)
			if deviation > 0 {
				v += random.NormFloat64() * deviation
			}
			chunk[i] = clampSample(v)
		}
	})
}

// Samples returns the channel of generated chunks.
func (g *Generator) Samples() <-chan core.SampleChunk {
	return g.samples
}

// Close stops the generator.
func (g *Generator) Close() error {
	g.closeOnce.Do(func() {
		close(g.done)
	})
	return nil
}

func clampSample(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
