package apt

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/large-farva/apt-engine/internal/dsp"
)

// Word offsets of the line regions defined by the APT standard. Each
// channel is sync (39) + space (47) + image (909) + telemetry (45).
const (
	telemetryWords = 45
	telemetryAEnd  = WordsPerLine / 2 // channel A telemetry ends at word 1039
	telemetryBEnd  = WordsPerLine     // channel B telemetry ends at word 2079
)

// Telemetry holds the mean raw envelope value over each channel's
// calibration wedge region for one row, taken before the contrast stretch
// so rows stay comparable against the wedge reference levels.
type Telemetry struct {
	WedgeA float64
	WedgeB float64
}

// Quality summarizes how trustworthy a decoded image is.
type Quality struct {
	Rows          int
	EstimatedRows int     // lines whose sync was interpolated, not detected
	MinScore      float64 // lowest correlation among detected lines
	MaxScore      float64
	TransientRows int // leading rows inside the filter edge transient
}

// Image is the final raster: Height rows of Width 8-bit intensity samples,
// row-major, plus per-row telemetry and quality metadata. It is built once
// per decode run and never mutated after the contrast stretch.
type Image struct {
	Width, Height int
	Pixels        []uint8
	Telemetry     []Telemetry
	Quality       Quality
}

// At returns the pixel intensity at column x, row y.
func (img *Image) At(x, y int) uint8 {
	return img.Pixels[y*img.Width+x]
}

// ImageBuilder maps the envelope between consecutive LineMarks onto the
// fixed APT line grid and applies one global percentile contrast stretch.
// Per-row stretching would destroy inter-line calibration, so the stretch
// runs exactly once over the full image.
type ImageBuilder struct {
	// ClipLo and ClipHi are the stretch percentiles, in [0, 1].
	ClipLo, ClipHi float64
}

// NewImageBuilder returns a builder with the standard 1%/99% clip.
func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{ClipLo: 0.01, ClipHi: 0.99}
}

// Build produces one image row per consecutive LineMark pair. Each
// envelope segment is mapped onto WordsPerLine pixels by linear
// interpolation; the full Resampler would be overkill for this per-line
// stretch of at most a few percent.
func (b *ImageBuilder) Build(env dsp.Signal, marks []LineMark) (*Image, error) {
	if len(marks) < 2 {
		return nil, fmt.Errorf("image: need at least 2 line marks, got %d", len(marks))
	}

	rows := len(marks) - 1
	raw := make([]float64, rows*WordsPerLine)
	telemetry := make([]Telemetry, rows)

	quality := Quality{Rows: rows, MinScore: math.Inf(1), MaxScore: math.Inf(-1)}

	for r := 0; r < rows; r++ {
		start, end := marks[r].Offset, marks[r+1].Offset
		row := raw[r*WordsPerLine : (r+1)*WordsPerLine]
		sampleRow(row, env.Samples, start, end)

		telemetry[r] = Telemetry{
			WedgeA: mean(row[telemetryAEnd-telemetryWords : telemetryAEnd]),
			WedgeB: mean(row[telemetryBEnd-telemetryWords : telemetryBEnd]),
		}

		if marks[r].Estimated {
			quality.EstimatedRows++
		} else {
			quality.MinScore = math.Min(quality.MinScore, marks[r].Score)
			quality.MaxScore = math.Max(quality.MaxScore, marks[r].Score)
		}
	}
	if quality.MinScore > quality.MaxScore { // every row was estimated
		quality.MinScore, quality.MaxScore = 0, 0
	}

	pixels := b.stretch(raw)

	return &Image{
		Width:     WordsPerLine,
		Height:    rows,
		Pixels:    pixels,
		Telemetry: telemetry,
		Quality:   quality,
	}, nil
}

// sampleRow fills row by linearly interpolating the envelope segment
// [start, end) onto len(row) evenly spaced positions.
func sampleRow(row, env []float64, start, end int) {
	step := float64(end-start) / float64(len(row))
	for i := range row {
		pos := float64(start) + float64(i)*step
		j := int(pos)
		if j+1 >= len(env) {
			row[i] = env[len(env)-1]
			continue
		}
		frac := pos - float64(j)
		row[i] = env[j]*(1-frac) + env[j+1]*frac
	}
}

// stretch maps raw intensities to the full 8-bit range, clipping at the
// configured percentiles of the whole image.
func (b *ImageBuilder) stretch(raw []float64) []uint8 {
	sorted := make([]float64, len(raw))
	copy(sorted, raw)
	sort.Float64s(sorted)

	lo := stat.Quantile(b.ClipLo, stat.Empirical, sorted, nil)
	hi := stat.Quantile(b.ClipHi, stat.Empirical, sorted, nil)

	pixels := make([]uint8, len(raw))
	span := hi - lo
	if span <= 0 {
		// Flat image (constant envelope): map everything to mid-scale.
		for i := range pixels {
			pixels[i] = 128
		}
		return pixels
	}

	for i, v := range raw {
		scaled := (v - lo) / span * 255
		switch {
		case scaled < 0:
			pixels[i] = 0
		case scaled > 255:
			pixels[i] = 255
		default:
			pixels[i] = uint8(scaled)
		}
	}
	return pixels
}

func mean(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}
