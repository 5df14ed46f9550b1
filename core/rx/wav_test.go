package rx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/wsqso/core"
)

func TestRecordAndReplay(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "cycle.wav")
	recorder, err := NewRecorder(filename, 48000)
	require.NoError(t, err)

	var recorded []int16
	for i := 0; i < 5; i++ {
		chunk := make(core.SampleChunk, 1000)
		for j := range chunk {
			chunk[j] = int16((i*1000+j)%2000 - 1000)
		}
		require.NoError(t, recorder.Write(chunk))
		recorded = append(recorded, chunk...)
	}
	assert.Equal(t, 5000*time.Second/48000, recorder.Duration())
	require.NoError(t, recorder.Close())

	input, err := NewWavInput(filename, 48000, 1024, false)
	require.NoError(t, err)
	defer input.Close()

	var replayed []int16
	for chunk := range input.Samples() {
		assert.LessOrEqual(t, len(chunk), 1024)
		replayed = append(replayed, chunk...)
	}
	assert.Equal(t, recorded, replayed)
}

func TestWavInputRejectsWrongFormat(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "stereo.wav")
	file, err := os.Create(filename)
	require.NoError(t, err)
	encoder := wav.NewEncoder(file, 48000, 16, 2, 1)
	require.NoError(t, encoder.Write(&audio.IntBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:   make([]int, 2000),
	}))
	require.NoError(t, encoder.Close())
	require.NoError(t, file.Close())

	_, err = NewWavInput(filename, 48000, 1024, false)
	assert.Error(t, err)

	_, err = NewWavInput(filepath.Join(t.TempDir(), "missing.wav"), 48000, 1024, false)
	assert.Error(t, err)
}
