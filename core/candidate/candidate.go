// Package candidate finds the signal candidates in the accumulated decode band power of one cycle.
package candidate

import (
	"fmt"
	"math"
	"sort"

	"github.com/ftl/wsqso/core"
	"github.com/ftl/wsqso/core/capture"
	"github.com/ftl/wsqso/core/dsp"
)

// Parameters of the candidate extraction.
type Parameters struct {
	// Center is the audio frequency of the center bin (the shift frequency).
	Center core.Frequency
	// BinWidth of the power spectrum.
	BinWidth core.Frequency
	// MaxOffset from the center for a candidate, follows from the allowed dial frequency error.
	MaxOffset core.Frequency
	// SmoothingWindow is the odd number of bins of the boxcar filter.
	SmoothingWindow int
	// NoiseRank is the fraction of the smoothed values that lie below the noise level.
	NoiseRank float64
	// MinSNR is the normalized level below which values are clamped.
	MinSNR core.DB
	// SNRScaling is subtracted from the normalized level to get the SNR in dB.
	SNRScaling core.DB
	// MaxCandidates limits the number of candidates per cycle.
	MaxCandidates int
}

// DefaultParameters for the given center frequency.
func DefaultParameters(center core.Frequency) Parameters {
	params := dsp.DefaultParameters()
	return Parameters{
		Center:          center,
		BinWidth:        dsp.BinWidth(params.SampleRate, params.BufferSize),
		MaxOffset:       150,
		SmoothingWindow: 7,
		NoiseRank:       0.3,
		MinSNR:          -8,
		SNRScaling:      26.3,
		MaxCandidates:   200,
	}
}

// Extract the candidates from the given snapshot, ordered by descending SNR.
// The snapshot is not modified. Extract panics if there are not enough bins for smoothing.
func Extract(snapshot capture.Snapshot, params Parameters) []core.Candidate {
	sum := snapshot.Sum
	if len(sum) < params.SmoothingWindow {
		panic(fmt.Errorf("%d bins are not enough for smoothing over %d bins", len(sum), params.SmoothingWindow))
	}

	centerBin := len(sum) / 2
	halfWindow := params.SmoothingWindow / 2
	halfRange := int(math.Round(float64(params.MaxOffset / params.BinWidth)))
	if limit := centerBin - halfWindow; halfRange > limit {
		halfRange = limit
	}
	if limit := len(sum) - 1 - halfWindow - centerBin; halfRange > limit {
		halfRange = limit
	}
	firstBin := centerBin - halfRange

	smoothed := dsp.CenteredBoxcar(sum, params.SmoothingWindow, firstBin, centerBin+halfRange)

	noiseIndex := int(float64(len(smoothed))*params.NoiseRank) - 1
	if noiseIndex < 0 {
		noiseIndex = 0
	}
	noise := dsp.OrderStatistic(smoothed, noiseIndex)
	if noise <= 0 {
		return []core.Candidate{}
	}

	threshold := math.Pow(10, float64(params.MinSNR)/10)
	normalized := make([]float64, len(smoothed))
	for i, v := range smoothed {
		n := v/noise - 1
		if n < threshold {
			n = 0.1 * threshold
		}
		normalized[i] = n
	}

	result := make([]core.Candidate, 0, params.MaxCandidates)
	for _, peak := range localMaxima(normalized) {
		if len(result) == params.MaxCandidates {
			break
		}
		offset := core.Frequency(peak-halfRange) * params.BinWidth
		if math.Abs(float64(offset)) > float64(params.MaxOffset) {
			continue
		}
		result = append(result, core.Candidate{
			Bin:       firstBin + peak,
			Offset:    offset,
			Frequency: params.Center + offset,
			SNR:       core.DB(10*math.Log10(normalized[peak])) - params.SNRScaling,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SNR > result[j].SNR
	})
	return result
}

// localMaxima returns the indices of the local maxima in the open interval, in ascending order.
// A run of equal values that is greater than both outer neighbours counts as one maximum at the
// center of the run.
func localMaxima(values []float64) []int {
	var result []int
	for i := 1; i < len(values)-1; {
		if values[i] <= values[i-1] {
			i++
			continue
		}
		end := i
		for end+1 < len(values)-1 && values[end+1] == values[i] {
			end++
		}
		if values[end+1] < values[i] {
			result = append(result, (i+end)/2)
		}
		i = end + 1
	}
	return result
}

// Top returns at most the first n candidates.
func Top(candidates []core.Candidate, n int) []core.Candidate {
	if n >= len(candidates) {
		return candidates
	}
	return candidates[:n]
}
