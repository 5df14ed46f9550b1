package rx

import (
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
)

// WavInput replays a recorded 16-bit mono WAV file.
type WavInput struct {
	file      *os.File
	decoder   *wav.Decoder
	chunkSize int
	paced     bool
	samples   chan core.SampleChunk
	done      chan struct{}
	closeOnce sync.Once
}

// NewWavInput opens the given WAV file for replay. The file must contain 16-bit mono samples at the given sample rate.
// If paced is set, the chunks are delivered in real time, otherwise as fast as they are consumed.
func NewWavInput(filename string, sampleRate int, chunkSize int, paced bool) (*WavInput, error) {
	if chunkSize <= 0 {
		return nil, errors.Errorf("invalid chunk size %d", chunkSize)
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filename)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, errors.Errorf("%s is not a valid WAV file", filename)
	}
	if decoder.NumChans != 1 || decoder.BitDepth != 16 || int(decoder.SampleRate) != sampleRate {
		file.Close()
		return nil, errors.Errorf("%s has %d channels with %d bits at %dHz, need 1 channel with 16 bits at %dHz",
			filename, decoder.NumChans, decoder.BitDepth, decoder.SampleRate, sampleRate)
	}

	result := &WavInput{
		file:      file,
		decoder:   decoder,
		chunkSize: chunkSize,
		paced:     paced,
		samples:   make(chan core.SampleChunk, 1),
		done:      make(chan struct{}),
	}
	go result.run(time.Duration(float64(chunkSize) / float64(sampleRate) * float64(time.Second)))
	return result, nil
}

func (w *WavInput) run(chunkDuration time.Duration) {
	defer zap.S().Info("WavInput shutdown")
	defer w.file.Close()
	defer close(w.samples)

	buffer := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: int(w.decoder.SampleRate)},
		Data:   make([]int, w.chunkSize),
	}
	for {
		n, err := w.decoder.PCMBuffer(buffer)
		if err != nil {
			zap.S().Errorf("cannot read WAV samples: %v", err)
			return
		}
		if n == 0 {
			zap.S().Info("end of WAV file reached")
			return
		}

		chunk := make(core.SampleChunk, n)
		for i := range chunk {
			chunk[i] = int16(buffer.Data[i])
		}
		select {
		case w.samples <- chunk:
		case <-w.done:
			return
		}

		if !w.paced {
			continue
		}
		select {
		case <-time.After(chunkDuration):
		case <-w.done:
			return
		}
	}
}

// Samples returns the channel of replayed chunks. It is closed at the end of the file.
func (w *WavInput) Samples() <-chan core.SampleChunk {
	return w.samples
}

// Close stops the replay.
func (w *WavInput) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	return nil
}

// Recorder writes samples into a 16-bit mono WAV file.
type Recorder struct {
	file       *os.File
	encoder    *wav.Encoder
	format     *audio.Format
	sampleRate int
	written    int
}

// NewRecorder creates the given WAV file for recording.
func NewRecorder(filename string, sampleRate int) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", filename)
	}
	return &Recorder{
		file:       file,
		encoder:    wav.NewEncoder(file, sampleRate, 16, 1, 1),
		format:     &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		sampleRate: sampleRate,
	}, nil
}

// Write the given chunk to the file.
func (r *Recorder) Write(chunk core.SampleChunk) error {
	if len(chunk) == 0 {
		return nil
	}
	data := make([]int, len(chunk))
	for i, s := range chunk {
		data[i] = int(s)
	}
	err := r.encoder.Write(&audio.IntBuffer{Format: r.format, Data: data, SourceBitDepth: 16})
	if err != nil {
		return errors.Wrap(err, "cannot write WAV samples")
	}
	r.written += len(chunk)
	return nil
}

// Duration of the recorded audio.
func (r *Recorder) Duration() time.Duration {
	return time.Duration(float64(r.written) / float64(r.sampleRate) * float64(time.Second))
}

// Close finishes the WAV file.
func (r *Recorder) Close() error {
	err := r.encoder.Close()
	if err != nil {
		r.file.Close()
		return errors.Wrap(err, "cannot finish WAV file")
	}
	return errors.Wrap(r.file.Close(), "cannot close WAV file")
}
