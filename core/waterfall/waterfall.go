// Package waterfall keeps the rolling intensity image of the display band.
package waterfall

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ftl/wsqso/core"
)

// Waterfall is a rolling image with one column per spectrum. The newest column is on the right,
// low frequencies are at the bottom.
type Waterfall struct {
	band    core.FrequencyRange
	img     *image.RGBA
	columns int
}

// Mark of a frequency on the vertical axis.
type Mark struct {
	Y         int
	Frequency core.Frequency
}

// New returns a new waterfall of the given size for the given frequency band.
func New(width, height int, band core.FrequencyRange) *Waterfall {
	if width < 1 || height < 1 {
		panic(errors.Errorf("invalid waterfall size %dx%d", width, height))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return &Waterfall{
		band: band,
		img:  img,
	}
}

// Width of the image.
func (w *Waterfall) Width() int {
	return w.img.Rect.Dx()
}

// Height of the image.
func (w *Waterfall) Height() int {
	return w.img.Rect.Dy()
}

// Columns returns the number of spectrums added so far.
func (w *Waterfall) Columns() int {
	return w.columns
}

// Update rolls the image to the left and draws the given magnitudes as new column on the right.
func (w *Waterfall) Update(magnitudes []float64) {
	if len(magnitudes) == 0 {
		return
	}
	w.roll()
	x := w.Width() - 1
	for i, v := range Normalize(Resample(magnitudes, w.Height())) {
		w.img.SetRGBA(x, w.Height()-1-i, Color(v))
	}
	w.columns++
}

// MarkCycle draws a dotted white line over the newest column.
func (w *Waterfall) MarkCycle() {
	x := w.Width() - 1
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	for y := 0; y < w.Height(); y += 2 {
		w.img.SetRGBA(x, y, white)
	}
}

// Image returns a copy of the current image.
func (w *Waterfall) Image() *image.RGBA {
	result := image.NewRGBA(w.img.Rect)
	copy(result.Pix, w.img.Pix)
	return result
}

// WritePNG encodes the current image as PNG into the given writer.
func (w *Waterfall) WritePNG(out io.Writer) error {
	return errors.Wrap(png.Encode(out, w.img), "cannot encode waterfall image")
}

// SavePNG writes the current image into the given PNG file.
func (w *Waterfall) SavePNG(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", filename)
	}
	err = w.WritePNG(file)
	if err != nil {
		file.Close()
		return err
	}
	return errors.Wrapf(file.Close(), "cannot close %s", filename)
}

// FrequencyScale returns the rows of the round frequencies within the band, with the given step.
func (w *Waterfall) FrequencyScale(step core.Frequency) []Mark {
	if step <= 0 || w.band.Width() <= 0 {
		return []Mark{}
	}
	result := make([]Mark, 0, int(w.band.Width()/step)+1)
	first := core.Frequency(int(w.band.From/step)) * step
	if first < w.band.From {
		first += step
	}
	for f := first; f <= w.band.To; f += step {
		fraction := float64((f - w.band.From) / w.band.Width())
		row := int(fraction * float64(w.Height()-1))
		result = append(result, Mark{Y: w.Height() - 1 - row, Frequency: f})
	}
	return result
}

func (w *Waterfall) roll() {
	rowLen := w.Width() * 4
	for y := 0; y < w.Height(); y++ {
		row := w.img.Pix[y*w.img.Stride : y*w.img.Stride+rowLen]
		copy(row, row[4:])
	}
}

// Resample maps the given values onto the given number of rows, taking the maximum of all values
// that fall into a row. Row 0 holds the lowest frequency.
func Resample(values []float64, rows int) []float64 {
	result := make([]float64, rows)
	if len(values) == 0 {
		return result
	}
	for i := range result {
		from := i * len(values) / rows
		to := (i + 1) * len(values) / rows
		if to <= from {
			to = from + 1
		}
		result[i] = floats.Max(values[from:to])
	}
	return result
}

// Normalize scales the given values to [0, 255] against their maximum.
func Normalize(values []float64) []uint8 {
	result := make([]uint8, len(values))
	if len(values) == 0 {
		return result
	}
	max := floats.Max(values)
	if max <= 0 {
		return result
	}
	for i, v := range values {
		if v <= 0 {
			continue
		}
		result[i] = uint8(255 * v / max)
	}
	return result
}

// Color of the given intensity, from blue (weak) to yellow (strong).
func Color(intensity uint8) color.RGBA {
	return color.RGBA{intensity, intensity, 255 - intensity, 0xff}
}
