package cycle

import (
	"time"
)

// SampleClock derives the ticks from the number of processed samples instead of the wall clock.
// It is used to replay recorded audio faster than real time.
type SampleClock struct {
	start      time.Time
	sampleRate int
	samples    int64
	next       time.Time
	last       int
}

// NewSampleClock returns a new sample clock. The first sample was taken at the given start time.
func NewSampleClock(start time.Time, sampleRate int) *SampleClock {
	next := start.Truncate(time.Second)
	if next.Before(start) {
		next = next.Add(time.Second)
	}
	return &SampleClock{
		start:      start,
		sampleRate: sampleRate,
		next:       next,
		last:       -1,
	}
}

// Now returns the time of the next sample.
func (c *SampleClock) Now() time.Time {
	return c.start.Add(time.Duration(float64(c.samples) / float64(c.sampleRate) * float64(time.Second)))
}

// Due returns all ticks up to the time of the next sample.
func (c *SampleClock) Due() []Tick {
	var result []Tick
	now := c.Now()
	for !c.next.After(now) {
		position := Position(c.next)
		result = append(result, Tick{
			Time:     c.next,
			Position: position,
			Active:   Active(position),
			NewCycle: isNewCycle(c.last, position),
		})
		c.last = position
		c.next = c.next.Add(time.Second)
	}
	return result
}

// Advance the clock by the given number of samples.
func (c *SampleClock) Advance(samples int) {
	c.samples += int64(samples)
}
