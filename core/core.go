package core

import (
	"fmt"
	"time"
)

// Frequency represents a frequency in Hz.
type Frequency float64

func (f Frequency) String() string {
	return fmt.Sprintf("%.2fHz", f)
}

// FrequencyRange represents a range of frequencies.
type FrequencyRange struct {
	From, To Frequency
}

func (r FrequencyRange) String() string {
	return fmt.Sprintf("[%v,%v]", r.From, r.To)
}

// Center frequency of this range.
func (r FrequencyRange) Center() Frequency {
	return r.From + (r.To-r.From)/2
}

// Width of the frequency range.
func (r FrequencyRange) Width() Frequency {
	return r.To - r.From
}

// Contains the given frequency.
func (r FrequencyRange) Contains(f Frequency) bool {
	return f >= r.From && f <= r.To
}

// DB represents decibel (dB).
type DB float64

func (f DB) String() string {
	return fmt.Sprintf("%.2fdB", f)
}

// SampleChunk is a sequence of signed 16-bit mono samples in arrival order.
type SampleChunk []int16

// SamplesInput delivers chunks of audio samples.
type SamplesInput interface {
	Samples() <-chan SampleChunk
	Close() error
}

// Candidate is a spectral peak found in one transmission cycle.
type Candidate struct {
	// Bin is the index within the analyzed range, ascending with frequency.
	Bin int
	// Offset from the band center.
	Offset Frequency
	// Frequency is the absolute audio frequency (center + offset).
	Frequency Frequency
	SNR       DB
}

func (c Candidate) String() string {
	return fmt.Sprintf("%v (%+.2fHz) %v", c.Frequency, float64(c.Offset), c.SNR)
}

// ShiftMode defines how the shift frequency is chosen.
type ShiftMode string

// All shift modes.
const (
	ShiftRandom ShiftMode = "random"
	ShiftFixed  ShiftMode = "fixed"
)

// Station details of the operator.
type Station struct {
	Callsign string
	Locator  string
	Power    int // dBm
}

// Configuration parameters of the application.
type Configuration struct {
	Band           string
	ShiftMode      ShiftMode
	ShiftFrequency Frequency
	AudioDevice    string
	VFOHost        string
	Testmode       bool
	Station        Station

	WaterfallWidth  int
	WaterfallHeight int
}

// TXFrequency returns the transmit frequency for the given dial frequency.
func (c Configuration) TXFrequency(dial Frequency) Frequency {
	return dial + c.ShiftFrequency
}

// CycleReport contains the candidates found in one transmission cycle.
type CycleReport struct {
	Cycle      time.Time
	Dial       Frequency
	Candidates []Candidate
}
