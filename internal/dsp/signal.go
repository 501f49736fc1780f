// Package dsp implements the signal-processing primitives behind the APT
// decoder: Kaiser-window FIR filter design, rational sample-rate conversion,
// and Hilbert-transform AM envelope demodulation. Every stage consumes one
// Signal and produces a new one; nothing here mutates its input, which keeps
// the stages independently testable and lets concurrent decode runs share
// nothing.
package dsp

// Signal is an ordered sequence of real-valued samples at a fixed rate.
// Treat a Signal as immutable once a pipeline stage has produced it.
type Signal struct {
	Samples []float64
	Rate    int // samples per second
}

// Len returns the number of samples.
func (s Signal) Len() int {
	return len(s.Samples)
}

// Seconds returns the signal duration in seconds.
func (s Signal) Seconds() float64 {
	if s.Rate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.Rate)
}
