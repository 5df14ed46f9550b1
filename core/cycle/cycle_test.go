package cycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute, second, millis int) time.Time {
	return time.Date(2026, 10, 18, hour, minute, second, millis*int(time.Millisecond), time.UTC)
}

func TestPosition(t *testing.T) {
	tt := []struct {
		time     time.Time
		expected int
		active   bool
	}{
		{at(0, 0, 0, 0), 0, true},
		{at(0, 1, 53, 999), 113, true},
		{at(0, 1, 54, 0), 114, false},
		{at(0, 1, 59, 500), 119, false},
		{at(0, 3, 19, 999), 199, false},
		{at(0, 3, 20, 100), 0, true},
		{at(0, 6, 40, 0), 0, true},
	}
	for _, tc := range tt {
		t.Run(tc.time.Format(time.TimeOnly), func(t *testing.T) {
			position := Position(tc.time)
			assert.Equal(t, tc.expected, position)
			assert.Equal(t, tc.active, Active(position))
		})
	}
}

func TestPositionIsInRange(t *testing.T) {
	start := at(13, 37, 0, 0)
	for i := 0; i < 1000; i++ {
		position := Position(start.Add(time.Duration(i) * 777 * time.Millisecond))
		assert.GreaterOrEqual(t, position, 0)
		assert.Less(t, position, Length)
	}
	assert.Equal(t, 0, Position(time.Unix(-200, 0)))
	assert.Equal(t, 199, Position(time.Unix(-1, 0)))
}

func TestStart(t *testing.T) {
	assert.Equal(t, at(0, 3, 20, 0), Start(at(0, 4, 30, 700)))
	assert.Equal(t, at(0, 3, 20, 0), Start(at(0, 3, 20, 0)))
}

func TestIsNewCycle(t *testing.T) {
	tt := []struct {
		last, position int
		expected       bool
	}{
		{-1, 0, true},
		{-1, 57, false},
		{199, 0, true},
		{198, 1, true},
		{0, 0, false},
		{0, 1, false},
		{113, 114, false},
	}
	for _, tc := range tt {
		assert.Equal(t, tc.expected, isNewCycle(tc.last, tc.position), "%d -> %d", tc.last, tc.position)
	}
}

type fakeTime struct {
	now time.Time
}

func (f *fakeTime) Now() time.Time {
	return f.now
}

func (f *fakeTime) After(d time.Duration) <-chan time.Time {
	f.now = f.now.Add(d)
	result := make(chan time.Time, 1)
	result <- f.now
	return result
}

func TestClockRun(t *testing.T) {
	fake := &fakeTime{now: at(0, 3, 18, 400)}
	clock := New()
	clock.Now = fake.Now
	clock.After = fake.After
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		clock.Run(ctx)
		close(done)
	}()

	var ticks []Tick
	for i := 0; i < 3; i++ {
		ticks = append(ticks, <-clock.Ticks())
	}
	cancel()
	for range clock.Ticks() {
	}
	<-done

	require.Len(t, ticks, 3)
	assert.Equal(t, at(0, 3, 19, 0), ticks[0].Time)
	assert.Equal(t, []int{199, 0, 1}, []int{ticks[0].Position, ticks[1].Position, ticks[2].Position})
	assert.Equal(t, []bool{false, true, false}, []bool{ticks[0].NewCycle, ticks[1].NewCycle, ticks[2].NewCycle})
	assert.Equal(t, []bool{false, true, true}, []bool{ticks[0].Active, ticks[1].Active, ticks[2].Active})
}
