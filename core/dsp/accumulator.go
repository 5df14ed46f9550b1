package dsp

import "github.com/ftl/wsqso/core"

// Accumulator collects incoming chunks of arbitrary size and forwards them in blocks of a fixed size.
type Accumulator struct {
	blockSize int
	pending   []int16
	advance   func([]int16)
}

// NewAccumulator returns a new accumulator that passes each complete block to advance.
func NewAccumulator(blockSize int, advance func([]int16)) *Accumulator {
	if blockSize <= 0 {
		panic("block size must be positive")
	}
	return &Accumulator{
		blockSize: blockSize,
		pending:   make([]int16, 0, 2*blockSize),
		advance:   advance,
	}
}

// Push the given chunk. Every complete block is forwarded synchronously, in arrival order.
func (a *Accumulator) Push(chunk core.SampleChunk) {
	if len(chunk) == 0 {
		return
	}
	a.pending = append(a.pending, chunk...)

	consumed := 0
	for len(a.pending)-consumed >= a.blockSize {
		block := make([]int16, a.blockSize)
		copy(block, a.pending[consumed:consumed+a.blockSize])
		consumed += a.blockSize
		a.advance(block)
	}
	if consumed == 0 {
		return
	}
	remaining := copy(a.pending, a.pending[consumed:])
	a.pending = a.pending[:remaining]
}

// Pending returns the number of samples waiting for the next complete block.
func (a *Accumulator) Pending() int {
	return len(a.pending)
}
