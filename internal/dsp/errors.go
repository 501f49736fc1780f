package dsp

import "fmt"

// ConfigError reports an invalid filter specification or profile parameter.
// Nothing is processed once one of these surfaces; the caller gets told
// which parameter failed and why.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Reason)
}

// ResampleError reports a degenerate resampling request: an empty input
// signal or a rate ratio whose reduced L/M factors are unreasonably large.
type ResampleError struct {
	Reason string
}

func (e *ResampleError) Error() string {
	return "resample: " + e.Reason
}

// DemodulationError reports input the demodulator cannot produce a
// meaningful envelope for (empty, or carrying no energy at all).
type DemodulationError struct {
	Reason string
}

func (e *DemodulationError) Error() string {
	return "demodulate: " + e.Reason
}
