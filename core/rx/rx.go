package rx

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ftl/wsqso/core"
)

// New instance of the receiver.
func New(in core.SamplesInput) *Receiver {
	result := Receiver{
		in:      in,
		samples: make(chan core.SampleChunk, 1),
	}
	return &result
}

// Receiver reads the incoming audio, optionally records it, and forwards it in arrival order.
type Receiver struct {
	in       core.SamplesInput
	samples  chan core.SampleChunk
	recorder ChunkWriter

	received  int
	underruns int
}

// ChunkWriter writes chunks of samples, e.g. into a file.
type ChunkWriter interface {
	Write(core.SampleChunk) error
}

// SetRecorder sets the writer that receives a copy of all incoming samples. It must be set before Run is called.
func (r *Receiver) SetRecorder(recorder ChunkWriter) {
	r.recorder = recorder
}

// Samples returns the channel of received chunks. It is closed when the receiver stops.
func (r *Receiver) Samples() <-chan core.SampleChunk {
	return r.samples
}

// Received returns the number of samples received so far.
func (r *Receiver) Received() int {
	return r.received
}

// Underruns returns the number of empty chunks received so far.
func (r *Receiver) Underruns() int {
	return r.underruns
}

// Run this receiver.
func (r *Receiver) Run(stop chan struct{}, wait *sync.WaitGroup) {
	wait.Add(1)
	go func() {
		defer wait.Done()
		defer r.shutdown()

		in := r.in.Samples()
		for {
			select {
			case chunk, ok := <-in:
				if !ok {
					zap.S().Info("end of input")
					return
				}
				if len(chunk) == 0 {
					r.underruns++
					continue
				}
				r.received += len(chunk)
				r.record(chunk)

				select {
				case r.samples <- chunk:
				case <-stop:
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

func (r *Receiver) record(chunk core.SampleChunk) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.Write(chunk)
	if err != nil {
		zap.S().Errorf("recording stopped: %v", err)
		r.recorder = nil
	}
}

func (r *Receiver) shutdown() {
	r.in.Close()
	close(r.samples)
	zap.S().Infof("Receiver shutdown, %d samples received, %d underruns", r.received, r.underruns)
}
