package dsp

import "fmt"

// maxResampleFactor bounds the reduced interpolation and decimation
// factors. Standard audio rates reduce to small L/M against the APT work
// rates; anything beyond this bound means a pathological rate ratio that
// would demand an absurdly long filter.
const maxResampleFactor = 10000

// ResampleSpec carries the filter parameters for a rate conversion. The
// frequencies are fractions of the narrower side's Nyquist band: Cutout is
// how much of that band the anti-alias filter keeps, TransitionBW how wide
// its roll-off is.
type ResampleSpec struct {
	Attenuation  float64
	TransitionBW float64
	Cutout       float64
}

// Resampler converts signals from one fixed rate to another through the
// classic interpolate/filter/decimate chain: zero-stuff by L, low-pass at
// the combined rate, keep every Mth sample. The filter is designed once at
// construction, so one Resampler can process any number of signals at the
// input rate.
type Resampler struct {
	inRate  int
	outRate int
	l, m    int
	taps    []float64
}

// NewResampler reduces outRate/inRate to L/M by their GCD and designs the
// anti-alias filter. Returns a ResampleError when the reduced factors blow
// past the sanity bound, or a ConfigError for a bad filter spec.
func NewResampler(inRate, outRate int, spec ResampleSpec) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, &ResampleError{Reason: fmt.Sprintf("rates must be positive, got %d -> %d", inRate, outRate)}
	}

	g := gcd(inRate, outRate)
	l := outRate / g
	m := inRate / g
	if l > maxResampleFactor || m > maxResampleFactor {
		return nil, &ResampleError{
			Reason: fmt.Sprintf("degenerate rate ratio %d/%d for %d Hz -> %d Hz", l, m, inRate, outRate),
		}
	}

	// Identity ratio: Apply copies straight through, no filter needed.
	if l == 1 && m == 1 {
		return &Resampler{inRate: inRate, outRate: outRate, l: 1, m: 1}, nil
	}

	// The filter runs at the interpolated rate L*inRate. Its cutoff sits at
	// Cutout times the narrower of the two Nyquist bands, which in pi units
	// at the combined rate is Cutout/max(L, M).
	scale := float64(l)
	if m > l {
		scale = float64(m)
	}
	taps, err := DesignLowPass(FilterSpec{
		Cutoff:       spec.Cutout / scale,
		TransitionBW: spec.TransitionBW / scale,
		Attenuation:  spec.Attenuation,
	})
	if err != nil {
		return nil, err
	}

	// Zero-stuffing spreads each input sample's energy across L output
	// positions; scaling the taps by L restores the original amplitude.
	for i := range taps {
		taps[i] *= float64(l)
	}

	return &Resampler{inRate: inRate, outRate: outRate, l: l, m: m, taps: taps}, nil
}

// Factors returns the reduced interpolation and decimation factors.
func (r *Resampler) Factors() (l, m int) { return r.l, r.m }

// Transient returns how many output samples at each boundary carry the
// filter's edge transient. They are produced, not discarded; downstream
// consumers treat them as low-confidence.
func (r *Resampler) Transient() int {
	return len(r.taps)/2/r.m + 1
}

// Apply converts sig from the input rate to the output rate. The zero
// insertions are never materialized: for each output sample the loop walks
// only the upsampled-grid positions that land on a real input sample,
// exactly the polyphase identity. Boundaries are zero-padded.
func (r *Resampler) Apply(sig Signal) (Signal, error) {
	if len(sig.Samples) == 0 {
		return Signal{}, &ResampleError{Reason: "empty input signal"}
	}
	if sig.Rate != r.inRate {
		return Signal{}, &ResampleError{
			Reason: fmt.Sprintf("signal rate %d does not match resampler input rate %d", sig.Rate, r.inRate),
		}
	}
	if r.l == 1 && r.m == 1 {
		out := make([]float64, len(sig.Samples))
		copy(out, sig.Samples)
		return Signal{Samples: out, Rate: r.outRate}, nil
	}

	x := sig.Samples
	l, m := r.l, r.m
	taps := r.taps
	offset := (len(taps) - 1) / 2
	outLen := (len(x)*l + m - 1) / m
	out := make([]float64, outLen)

	parallelBlocks(outLen, func(lo, hi int) {
		for k := lo; k < hi; k++ {
			t := k * m // position on the upsampled grid

			// First upsampled index inside the filter window that holds a
			// real input sample.
			n := 0
			if t > offset {
				n = t - offset
				if rem := n % l; rem != 0 {
					n += l - rem
				}
			}

			sum := 0.0
			for ; n <= t+offset; n += l {
				if idx := n / l; idx < len(x) {
					sum += taps[n-t+offset] * x[idx]
				}
			}
			out[k] = sum
		}
	})

	return Signal{Samples: out, Rate: r.outRate}, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
