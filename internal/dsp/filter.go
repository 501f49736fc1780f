package dsp

import "math"

// FilterSpec describes a low-pass FIR filter by what it must achieve rather
// than by its taps. Frequencies are in fractions of pi rad/sample, so 1.0
// is the Nyquist frequency of whatever rate the filter runs at.
type FilterSpec struct {
	Cutoff       float64 // passband edge
	TransitionBW float64 // width of the transition band
	Attenuation  float64 // stopband attenuation, positive dB
}

func (s FilterSpec) validate() error {
	if s.TransitionBW <= 0 {
		return &ConfigError{Param: "transition bandwidth", Reason: "must be positive"}
	}
	if s.Cutoff <= 0 {
		return &ConfigError{Param: "cutoff", Reason: "must be positive"}
	}
	if s.Cutoff >= 1 {
		return &ConfigError{Param: "cutoff", Reason: "must be below Nyquist"}
	}
	if s.Attenuation <= 0 {
		return &ConfigError{Param: "attenuation", Reason: "must be positive"}
	}
	return nil
}

// DesignLowPass synthesizes windowed-sinc low-pass taps meeting the spec.
// The result is odd-length and symmetric (linear phase), with unity DC
// gain, and is fully determined by the spec.
func DesignLowPass(spec FilterSpec) ([]float64, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	window := kaiserWindow(spec.Attenuation, spec.TransitionBW)
	taps := make([]float64, len(window))
	half := (len(window) - 1) / 2

	for i := range taps {
		n := float64(i - half)
		if i == half {
			taps[i] = spec.Cutoff
		} else {
			taps[i] = math.Sin(n*math.Pi*spec.Cutoff) / (n * math.Pi)
		}
		taps[i] *= window[i]
	}
	return taps, nil
}

// Filter convolves the signal with symmetric FIR taps, compensating the
// group delay so the output stays aligned with the input. Edges are
// zero-padded; the first and last len(taps)/2 samples carry the filter's
// startup transient.
//
// Output samples are independent of each other, so the work is split into
// fixed-size blocks across the worker pool. Block boundaries do not depend
// on the worker count, keeping the result bit-identical at any GOMAXPROCS.
func Filter(sig Signal, taps []float64) Signal {
	out := make([]float64, len(sig.Samples))
	half := (len(taps) - 1) / 2
	x := sig.Samples

	parallelBlocks(len(out), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			sum := 0.0
			for j, tap := range taps {
				k := i + j - half
				if k >= 0 && k < len(x) {
					sum += tap * x[k]
				}
			}
			out[i] = sum
		}
	})

	return Signal{Samples: out, Rate: sig.Rate}
}
