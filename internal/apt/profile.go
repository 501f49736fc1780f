// Package apt decodes NOAA APT weather-satellite transmissions. It maps a
// demodulated AM envelope onto the fixed APT line geometry: 2080 words per
// scan line at 4160 words per second, two lines per second, with
// channel-specific synchronization pulse trains marking each line start.
package apt

import (
	"fmt"

	"github.com/large-farva/apt-engine/internal/dsp"
)

// Fixed parameters of the APT transmission standard.
const (
	// WordRate is the APT word rate in Hz: 2080 words per line at two
	// lines per second.
	WordRate = 4160

	// WordsPerLine is the width of one scan line in words (= pixels).
	WordsPerLine = 2080

	// LinesPerSecond is the APT scan rate.
	LinesPerSecond = 2
)

// Profile is an immutable decode parameter set, selected before a run and
// passed by value. Frequencies are fractions of the relevant Nyquist band;
// attenuations are positive decibels.
type Profile struct {
	Name string

	// WorkRate is the internal rate demodulation and sync detection run
	// at. Must be a multiple of 4160 Hz and at least 12480 Hz.
	WorkRate int

	// Input -> work-rate conversion filter.
	ResampleAtten     float64
	ResampleDeltaFreq float64
	ResampleCutout    float64

	// Post-demodulation envelope filter.
	DemodulationAtten float64

	// Filter for the standalone WAV resampling operation.
	WavResampleAtten     float64
	WavResampleDeltaFreq float64
}

// Validate checks the profile invariants. It fails fast with a ConfigError
// naming the offending parameter; no processing is attempted afterwards.
func (p Profile) Validate() error {
	if p.WorkRate%WordRate != 0 {
		return &dsp.ConfigError{
			Param:  "work_rate",
			Reason: fmt.Sprintf("%d Hz is not a multiple of %d Hz", p.WorkRate, WordRate),
		}
	}
	if p.WorkRate < 3*WordRate {
		return &dsp.ConfigError{
			Param:  "work_rate",
			Reason: fmt.Sprintf("%d Hz is below the minimum %d Hz", p.WorkRate, 3*WordRate),
		}
	}
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"resample_atten", p.ResampleAtten},
		{"resample_delta_freq", p.ResampleDeltaFreq},
		{"demodulation_atten", p.DemodulationAtten},
		{"wav_resample_atten", p.WavResampleAtten},
		{"wav_resample_delta_freq", p.WavResampleDeltaFreq},
	} {
		if v.value <= 0 {
			return &dsp.ConfigError{Param: v.name, Reason: "must be positive"}
		}
	}
	if p.ResampleCutout <= 0 || p.ResampleCutout > 1 {
		return &dsp.ConfigError{Param: "resample_cutout", Reason: "must be in (0, 1]"}
	}
	return nil
}

// samplesPerWord returns how many work-rate samples one APT word spans.
func (p Profile) samplesPerWord() int {
	return p.WorkRate / WordRate
}

// samplesPerLine returns how many work-rate samples one scan line spans.
func (p Profile) samplesPerLine() int {
	return p.WorkRate / LinesPerSecond
}
