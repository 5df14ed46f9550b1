package waterfall

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftl/wsqso/core"
)

var band = core.FrequencyRange{From: 1300, To: 1700}

func TestNormalize(t *testing.T) {
	tt := []struct {
		name     string
		values   []float64
		expected []uint8
	}{
		{"scaled to max", []float64{0, 5, 10}, []uint8{0, 127, 255}},
		{"all zero", []float64{0, 0}, []uint8{0, 0}},
		{"empty", []float64{}, []uint8{}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Normalize(tc.values))
		})
	}
}

func TestResample(t *testing.T) {
	assert.Equal(t, []float64{2, 4}, Resample([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{1, 2, 3}, Resample([]float64{1, 2, 3}, 3))
	assert.Equal(t, []float64{1, 1, 2, 2}, Resample([]float64{1, 2}, 4))
}

func TestUpdateRollsToTheLeft(t *testing.T) {
	waterfall := New(3, 2, band)

	waterfall.Update([]float64{1, 0})
	waterfall.Update([]float64{0, 1})

	img := waterfall.Image()
	strong := Color(255)
	weak := Color(0)
	// low frequencies at the bottom
	assert.Equal(t, strong, img.RGBAAt(1, 1))
	assert.Equal(t, weak, img.RGBAAt(1, 0))
	assert.Equal(t, weak, img.RGBAAt(2, 1))
	assert.Equal(t, strong, img.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, img.RGBAAt(0, 0))
	assert.Equal(t, 2, waterfall.Columns())
}

func TestMarkCycle(t *testing.T) {
	waterfall := New(2, 4, band)
	waterfall.Update([]float64{0, 0, 0, 0})

	waterfall.MarkCycle()

	img := waterfall.Image()
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	assert.Equal(t, white, img.RGBAAt(1, 0))
	assert.Equal(t, Color(0), img.RGBAAt(1, 1))
	assert.Equal(t, white, img.RGBAAt(1, 2))
	assert.NotEqual(t, white, img.RGBAAt(0, 0))
}

func TestImageIsACopy(t *testing.T) {
	waterfall := New(2, 2, band)
	img := waterfall.Image()

	waterfall.Update([]float64{1, 1})

	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, img.RGBAAt(1, 0))
}

func TestWritePNG(t *testing.T) {
	waterfall := New(4, 3, band)
	waterfall.Update([]float64{1, 2, 3})
	buffer := &bytes.Buffer{}

	require.NoError(t, waterfall.WritePNG(buffer))

	decoded, err := png.Decode(buffer)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Equal(t, 3, decoded.Bounds().Dy())
}

func TestFrequencyScale(t *testing.T) {
	waterfall := New(10, 401, band)

	marks := waterfall.FrequencyScale(100)

	require.Len(t, marks, 5)
	assert.Equal(t, Mark{Y: 400, Frequency: 1300}, marks[0])
	assert.Equal(t, Mark{Y: 200, Frequency: 1500}, marks[2])
	assert.Equal(t, Mark{Y: 0, Frequency: 1700}, marks[4])
	assert.Empty(t, waterfall.FrequencyScale(0))
}

func TestColor(t *testing.T) {
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, Color(0))
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, Color(255))
}
