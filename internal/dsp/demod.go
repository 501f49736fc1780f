package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Demodulate recovers the AM envelope of a signal: the analytic signal is
// computed with a full-length Fourier transform (negative frequencies
// zeroed), its magnitude is the instantaneous amplitude, and the given
// low-pass taps then strip residual carrier and noise. The output has the
// same length and rate as the input.
//
// The transform is sized to the next power of two at or above the signal
// length and the input zero-padded into it, so no trailing samples are ever
// dropped. Fails with a DemodulationError on empty or all-zero input, whose
// envelope would have no energy to normalize against later.
func Demodulate(sig Signal, taps []float64) (Signal, error) {
	n := len(sig.Samples)
	if n == 0 {
		return Signal{}, &DemodulationError{Reason: "empty input signal"}
	}
	if allZero(sig.Samples) {
		return Signal{}, &DemodulationError{Reason: "input signal carries no energy"}
	}

	size := nextPow2(n)
	buf := make([]complex128, size)
	for i, v := range sig.Samples {
		buf[i] = complex(v, 0)
	}

	fft := fourier.NewCmplxFFT(size)
	coeffs := fft.Coefficients(nil, buf)

	// Analytic signal: keep DC and Nyquist, double the positive bins, zero
	// the negative ones.
	for k := 1; k < size/2; k++ {
		coeffs[k] *= 2
	}
	for k := size/2 + 1; k < size; k++ {
		coeffs[k] = 0
	}

	analytic := fft.Sequence(nil, coeffs)

	env := make([]float64, n)
	scale := 1 / float64(size) // gonum's inverse transform is unnormalized
	parallelBlocks(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			env[i] = cmplx.Abs(analytic[i]) * scale
		}
	})

	return Filter(Signal{Samples: env, Rate: sig.Rate}, taps), nil
}

func allZero(x []float64) bool {
	for _, v := range x {
		if v != 0 {
			return false
		}
	}
	return true
}

func nextPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
