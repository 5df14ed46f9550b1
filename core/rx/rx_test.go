package rx

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ftl/wsqso/core"
)

type chanInput struct {
	samples chan core.SampleChunk
	closed  bool
}

func (i *chanInput) Samples() <-chan core.SampleChunk {
	return i.samples
}

func (i *chanInput) Close() error {
	i.closed = true
	return nil
}

type recorderMock struct {
	chunks []core.SampleChunk
	err    error
}

func (r *recorderMock) Write(chunk core.SampleChunk) error {
	if r.err != nil {
		return r.err
	}
	r.chunks = append(r.chunks, chunk)
	return nil
}

func TestReceiverForwardsAndRecords(t *testing.T) {
	in := &chanInput{samples: make(chan core.SampleChunk, 4)}
	in.samples <- core.SampleChunk{1, 2}
	in.samples <- core.SampleChunk{}
	in.samples <- core.SampleChunk{3}
	close(in.samples)
	recorder := &recorderMock{}
	receiver := New(in)
	receiver.SetRecorder(recorder)

	stop := make(chan struct{})
	wait := &sync.WaitGroup{}
	receiver.Run(stop, wait)

	var forwarded []core.SampleChunk
	for chunk := range receiver.Samples() {
		forwarded = append(forwarded, chunk)
	}
	wait.Wait()

	assert.Equal(t, []core.SampleChunk{{1, 2}, {3}}, forwarded)
	assert.Equal(t, forwarded, recorder.chunks)
	assert.Equal(t, 3, receiver.Received())
	assert.Equal(t, 1, receiver.Underruns())
	assert.True(t, in.closed)
}

func TestReceiverKeepsForwardingWhenRecordingFails(t *testing.T) {
	in := &chanInput{samples: make(chan core.SampleChunk, 2)}
	in.samples <- core.SampleChunk{1}
	in.samples <- core.SampleChunk{2}
	close(in.samples)
	receiver := New(in)
	receiver.SetRecorder(&recorderMock{err: errors.New("disk full")})

	stop := make(chan struct{})
	wait := &sync.WaitGroup{}
	receiver.Run(stop, wait)

	var forwarded []core.SampleChunk
	for chunk := range receiver.Samples() {
		forwarded = append(forwarded, chunk)
	}
	wait.Wait()

	assert.Equal(t, []core.SampleChunk{{1}, {2}}, forwarded)
}

func TestReceiverStop(t *testing.T) {
	in := &chanInput{samples: make(chan core.SampleChunk)}
	receiver := New(in)

	stop := make(chan struct{})
	wait := &sync.WaitGroup{}
	receiver.Run(stop, wait)
	close(stop)
	wait.Wait()

	_, ok := <-receiver.Samples()
	assert.False(t, ok)
	assert.True(t, in.closed)
}
