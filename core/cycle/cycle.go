// Package cycle derives the position within the transmission cycle from the wall clock.
package cycle

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Cycle constants in seconds.
const (
	Length       = 200
	ActiveWindow = 114
)

// Position within the cycle of the given time, in seconds [0, Length).
func Position(t time.Time) int {
	result := t.Unix() % Length
	if result < 0 {
		result += Length
	}
	return int(result)
}

// Active indicates if the given position lies within the active capture window.
func Active(position int) bool {
	return position >= 0 && position < ActiveWindow
}

// Start of the cycle that contains the given time.
func Start(t time.Time) time.Time {
	return t.Truncate(time.Second).Add(-time.Duration(Position(t)) * time.Second)
}

// Tick is emitted once per wall clock second.
type Tick struct {
	Time     time.Time
	Position int
	Active   bool
	NewCycle bool
}

// Clock emits a tick at each wall clock second boundary.
type Clock struct {
	Now   func() time.Time
	After func(time.Duration) <-chan time.Time

	ticks chan Tick
}

// New returns a new clock based on the system time.
func New() *Clock {
	return &Clock{
		Now:   time.Now,
		After: time.After,
		ticks: make(chan Tick, 1),
	}
}

// Ticks returns the channel of ticks. It is closed when Run returns.
func (c *Clock) Ticks() <-chan Tick {
	return c.ticks
}

// Run the clock until the given context is done.
func (c *Clock) Run(ctx context.Context) {
	defer close(c.ticks)
	defer zap.S().Info("Clock shutdown")

	last := -1
	for {
		now := c.Now()
		select {
		case <-c.After(untilNextSecond(now)):
		case <-ctx.Done():
			return
		}

		now = c.Now()
		position := Position(now)
		if position == last {
			continue
		}
		tick := Tick{
			Time:     now,
			Position: position,
			Active:   Active(position),
			NewCycle: isNewCycle(last, position),
		}
		last = position
		if position%10 == 0 {
			zap.S().Debugf("cycle position %ds", position)
		}

		select {
		case c.ticks <- tick:
		case <-ctx.Done():
			return
		}
	}
}

func untilNextSecond(now time.Time) time.Duration {
	return now.Truncate(time.Second).Add(time.Second).Sub(now)
}

func isNewCycle(last, position int) bool {
	if position == last {
		return false
	}
	return position == 0 || (last >= 0 && position < last)
}
