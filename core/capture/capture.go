// Package capture accumulates the decode band power of one transmission cycle.
package capture

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Default dimensions of the capture buffer.
const (
	DefaultBins     = 512
	DefaultCapacity = 359
	DefaultSlots    = 334
)

// Snapshot is a frozen copy of a completed capture.
type Snapshot struct {
	Table [][]float64 // [slot][bin]
	Sum   []float64   // per bin, over all slots
	Slots int
}

// Completed is called with the snapshot of each completed capture.
type Completed func(Snapshot)

// Buffer collects power columns over the slots of one cycle and keeps a running sum per bin.
// It is not safe for concurrent use.
type Buffer struct {
	bins   int
	slots  int
	table  [][]float64
	sum    []float64
	cursor int

	dropped int

	completedCallbacks []Completed
}

// New returns a new buffer. It panics if slots exceeds the capacity.
func New(bins, capacity, slots int) *Buffer {
	if bins < 1 || slots < 1 || slots > capacity {
		panic(fmt.Errorf("invalid capture dimensions: %d bins, %d slots, capacity %d", bins, slots, capacity))
	}
	table := make([][]float64, capacity)
	for i := range table {
		table[i] = make([]float64, bins)
	}
	return &Buffer{
		bins:  bins,
		slots: slots,
		table: table,
		sum:   make([]float64, bins),
	}
}

// NewDefault returns a new buffer with the default dimensions.
func NewDefault() *Buffer {
	return New(DefaultBins, DefaultCapacity, DefaultSlots)
}

// OnComplete registers the given callback to be notified about each completed capture.
func (b *Buffer) OnComplete(f Completed) {
	b.completedCallbacks = append(b.completedCallbacks, f)
}

// Bins returns the number of bins per column.
func (b *Buffer) Bins() int {
	return b.bins
}

// Slots returns the number of columns that complete a capture.
func (b *Buffer) Slots() int {
	return b.slots
}

// Cursor returns the next slot to be written.
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Dropped returns the number of writes that were ignored.
func (b *Buffer) Dropped() int {
	return b.dropped
}

// Reset clears the table and the running sum and moves the cursor to the first slot.
func (b *Buffer) Reset() {
	for i := 0; i < b.cursor && i < len(b.table); i++ {
		for j := range b.table[i] {
			b.table[i][j] = 0
		}
	}
	for i := range b.sum {
		b.sum[i] = 0
	}
	b.cursor = 0
}

// Write the given power column into the current slot. When the last slot is written, a snapshot is
// handed out to all completion callbacks and the buffer is reset.
func (b *Buffer) Write(power []float64) {
	if len(power) != b.bins {
		b.dropped++
		zap.S().Warnf("capture column with %d bins dropped, need %d", len(power), b.bins)
		return
	}
	// unreachable while completion resets the buffer, kept as a guard for the slot index
	if b.cursor >= b.slots {
		b.dropped++
		zap.S().Warnf("capture is full, column dropped")
		return
	}

	copy(b.table[b.cursor], power)
	floats.Add(b.sum, power)
	b.cursor++

	if b.cursor < b.slots {
		return
	}
	snapshot := b.snapshot()
	b.Reset()
	for _, completed := range b.completedCallbacks {
		completed(snapshot)
	}
}

func (b *Buffer) snapshot() Snapshot {
	result := Snapshot{
		Table: make([][]float64, b.cursor),
		Sum:   make([]float64, len(b.sum)),
		Slots: b.cursor,
	}
	for i := range result.Table {
		result.Table[i] = make([]float64, b.bins)
		copy(result.Table[i], b.table[i])
	}
	copy(result.Sum, b.sum)
	return result
}
