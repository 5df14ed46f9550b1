package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleClock(t *testing.T) {
	clock := NewSampleClock(at(0, 3, 18, 500), 1000)

	assert.Empty(t, clock.Due())

	clock.Advance(500)
	ticks := clock.Due()
	require.Len(t, ticks, 1)
	assert.Equal(t, at(0, 3, 19, 0), ticks[0].Time)
	assert.Equal(t, 199, ticks[0].Position)
	assert.False(t, ticks[0].NewCycle)

	clock.Advance(2500)
	ticks = clock.Due()
	require.Len(t, ticks, 2)
	assert.Equal(t, 0, ticks[0].Position)
	assert.True(t, ticks[0].NewCycle)
	assert.True(t, ticks[0].Active)
	assert.Equal(t, 1, ticks[1].Position)
	assert.False(t, ticks[1].NewCycle)
	assert.Equal(t, at(0, 3, 21, 500), clock.Now())

	assert.Empty(t, clock.Due())
}

func TestSampleClockStartsOnSecondBoundary(t *testing.T) {
	clock := NewSampleClock(at(0, 3, 20, 0), 48000)

	ticks := clock.Due()

	require.Len(t, ticks, 1)
	assert.True(t, ticks[0].NewCycle)
}
