package apt

import (
	"math"

	"github.com/large-farva/apt-engine/internal/dsp"
)

// Channel selects which of the two APT image channels' sync pulse train to
// look for. Channel A leads each line, so line detection correlates
// against it; the channel B train is defined here because the standard
// does and tests exercise both.
type Channel int

const (
	ChannelA Channel = iota
	ChannelB
)

// Word-level sync trains from the APT standard. Channel A is seven cycles
// of a 1040 Hz square wave, channel B seven 832 Hz pulses; both are 39
// words long and preceded in the line by nothing (the train IS the line
// start).
var (
	syncWordsA = buildSyncWords(4, 7, 2, 2, 7)
	syncWordsB = buildSyncWords(4, 7, 3, 2, 0)
)

// buildSyncWords assembles a pulse train as +1/-1 words: lead low words,
// then pulses of on/off words, then trail low words.
func buildSyncWords(lead, pulses, on, off, trail int) []float64 {
	words := make([]float64, 0, lead+pulses*(on+off)+trail)
	for i := 0; i < lead; i++ {
		words = append(words, -1)
	}
	for p := 0; p < pulses; p++ {
		for i := 0; i < on; i++ {
			words = append(words, 1)
		}
		for i := 0; i < off; i++ {
			words = append(words, -1)
		}
	}
	for i := 0; i < trail; i++ {
		words = append(words, -1)
	}
	return words
}

// SyncPattern expands a channel's word-level train to the work rate and
// removes its mean, so correlation against it ignores the envelope's DC
// level.
func SyncPattern(channel Channel, workRate int) []float64 {
	words := syncWordsA
	if channel == ChannelB {
		words = syncWordsB
	}

	spw := workRate / WordRate
	pattern := make([]float64, 0, len(words)*spw)
	for _, w := range words {
		for i := 0; i < spw; i++ {
			pattern = append(pattern, w)
		}
	}

	mean := 0.0
	for _, v := range pattern {
		mean += v
	}
	mean /= float64(len(pattern))
	for i := range pattern {
		pattern[i] -= mean
	}
	return pattern
}

// LineMark identifies one detected (or estimated) line start in the
// envelope. Marks are ordered by Offset, strictly increasing.
type LineMark struct {
	Offset    int     // sample offset into the envelope
	Score     float64 // normalized correlation score at Offset
	Estimated bool    // true when no sync cleared the threshold and the mark was interpolated
}

// SyncDetector locates line boundaries by sliding the sync pattern across
// the envelope. It starts in a Seeking state scanning freely; once a line
// locks it switches to Tracking, confining the search for each next sync
// to an expected-period neighborhood. Sub-threshold windows produce
// estimated marks instead of failures, and several consecutive misses
// widen the window again to resynchronize.
type SyncDetector struct {
	pattern []float64
	period  int

	// Threshold is the minimum normalized correlation for a confident
	// sync. DriftTol and WideTol are the Tracking search half-widths as
	// fractions of a line period; MaxMisses consecutive estimated lines
	// trigger the wide window.
	Threshold float64
	DriftTol  float64
	WideTol   float64
	MaxMisses int
}

// NewSyncDetector builds a detector for the given profile's work rate,
// correlating against the channel A train.
func NewSyncDetector(p Profile) *SyncDetector {
	return &SyncDetector{
		pattern:   SyncPattern(ChannelA, p.WorkRate),
		period:    p.samplesPerLine(),
		Threshold: 0.45,
		DriftTol:  0.02,
		WideTol:   0.08,
		MaxMisses: 4,
	}
}

// Detect returns one LineMark per line covering the whole envelope. guard
// samples at each end are treated as filter transients and excluded from
// the search. If no sync ever clears the threshold the detector falls back
// to nominal-period marks, all estimated: a low-quality image beats no
// image for marginal recordings.
func (d *SyncDetector) Detect(env dsp.Signal, guard int) []LineMark {
	x := env.Samples
	n := len(d.pattern)
	if len(x) < n+2*guard || d.period <= 0 {
		return nil
	}

	c := newCorrelator(x, d.pattern)
	limit := len(x) - n - guard

	// Seeking: scan forward a couple of line periods at a time until a
	// confident sync appears.
	first := -1
	var firstScore float64
	for lo := guard; lo <= limit && first < 0; lo += d.period {
		hi := lo + 2*d.period
		if hi > limit {
			hi = limit
		}
		if off, score := c.argmax(lo, hi); score >= d.Threshold {
			first, firstScore = off, score
		}
	}

	if first < 0 {
		return d.fallbackMarks(len(x), guard)
	}

	marks := []LineMark{{Offset: first, Score: firstScore}}
	misses := 0

	// Tracking: each next sync is expected one period ahead, within a
	// drift window.
	for {
		prev := marks[len(marks)-1].Offset
		expected := prev + d.period
		if expected > limit {
			break
		}

		tol := d.DriftTol
		if misses >= d.MaxMisses {
			tol = d.WideTol
		}
		w := int(tol * float64(d.period))

		lo := expected - w
		if lo <= prev {
			lo = prev + 1
		}
		hi := expected + w
		if hi > limit {
			hi = limit
		}

		off, score := c.argmax(lo, hi)
		if score >= d.Threshold {
			marks = append(marks, LineMark{Offset: off, Score: score})
			misses = 0
			continue
		}

		// Missing or garbled sync: interpolate at the expected offset and
		// carry on rather than aborting the decode.
		marks = append(marks, LineMark{Offset: expected, Score: score, Estimated: true})
		misses++
	}

	return marks
}

// fallbackMarks covers the envelope with nominal-period estimated marks
// when nothing ever correlated above threshold.
func (d *SyncDetector) fallbackMarks(length, guard int) []LineMark {
	var marks []LineMark
	for off := guard; off+len(d.pattern) <= length-guard; off += d.period {
		marks = append(marks, LineMark{Offset: off, Estimated: true})
	}
	return marks
}

// correlator computes normalized cross-correlation scores against a fixed
// zero-mean pattern, using prefix sums for O(1) window statistics.
type correlator struct {
	x       []float64
	pattern []float64
	pNorm   float64
	sum     []float64 // prefix sums of x
	sumSq   []float64 // prefix sums of x^2
}

func newCorrelator(x, pattern []float64) *correlator {
	pNorm := 0.0
	for _, v := range pattern {
		pNorm += v * v
	}
	sum := make([]float64, len(x)+1)
	sumSq := make([]float64, len(x)+1)
	for i, v := range x {
		sum[i+1] = sum[i] + v
		sumSq[i+1] = sumSq[i] + v*v
	}
	return &correlator{x: x, pattern: pattern, pNorm: math.Sqrt(pNorm), sum: sum, sumSq: sumSq}
}

// score returns the normalized correlation at offset o, in [-1, 1].
func (c *correlator) score(o int) float64 {
	n := len(c.pattern)
	dot := 0.0
	for i, p := range c.pattern {
		dot += p * c.x[o+i]
	}

	// The pattern is zero-mean, so subtracting the window mean from x
	// leaves the dot product unchanged; only the window's own variance
	// matters for normalization.
	winSum := c.sum[o+n] - c.sum[o]
	winSq := c.sumSq[o+n] - c.sumSq[o]
	variance := winSq - winSum*winSum/float64(n)
	if variance <= 0 {
		return 0
	}
	return dot / (c.pNorm * math.Sqrt(variance))
}

// argmax returns the offset in [lo, hi] with the highest score.
func (c *correlator) argmax(lo, hi int) (int, float64) {
	best, bestScore := lo, math.Inf(-1)
	for o := lo; o <= hi; o++ {
		if s := c.score(o); s > bestScore {
			best, bestScore = o, s
		}
	}
	return best, bestScore
}
