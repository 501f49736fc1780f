package dsp

import "math"

// kaiserBeta derives the Kaiser window shape parameter from a stopband
// attenuation target in positive decibels, using the standard analytic
// approximation.
func kaiserBeta(atten float64) float64 {
	switch {
	case atten > 50:
		return 0.1102 * (atten - 8.7)
	case atten < 21:
		return 0
	default:
		return 0.5842*math.Pow(atten-21, 0.4) + 0.07886*(atten-21)
	}
}

// kaiserLength estimates the filter length needed to reach atten decibels
// over a transition band of deltaW (fractions of pi rad/sample). The result
// is always odd so the filter stays linear-phase with an integer group
// delay.
func kaiserLength(atten, deltaW float64) int {
	length := int(math.Ceil((atten-8)/(2.285*math.Pi*deltaW))) + 1
	if length%2 == 0 {
		length++
	}
	return length
}

// kaiserWindow builds the window itself. Length depends only on the
// parameters, so identical specs always yield identical taps.
func kaiserWindow(atten, deltaW float64) []float64 {
	beta := kaiserBeta(atten)
	length := kaiserLength(atten, deltaW)

	window := make([]float64, length)
	m := float64(length)
	denom := besselI0(beta)
	half := (length - 1) / 2
	for i := range window {
		n := float64(i - half)
		window[i] = besselI0(beta*math.Sqrt(1-math.Pow(n/(m/2), 2))) / denom
	}
	return window
}

// besselI0 is the zeroth-order modified Bessel function of the first kind,
// evaluated by its power series. Convergence is fast for the beta values a
// Kaiser window produces.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	for k := 1; k < 64; k++ {
		term *= (x / 2) * (x / 2) / (float64(k) * float64(k))
		sum += term
		if term < sum*1e-15 {
			break
		}
	}
	return sum
}
