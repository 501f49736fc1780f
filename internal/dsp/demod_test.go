package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeTaps(t *testing.T) []float64 {
	t.Helper()
	taps, err := DesignLowPass(FilterSpec{Cutoff: 1.0 / 3, TransitionBW: 1.0 / 12, Attenuation: 40})
	require.NoError(t, err)
	return taps
}

func TestDemodulateRecoversAMEnvelope(t *testing.T) {
	const (
		rate    = 12480
		carrier = 2340.0
		modFreq = 4.0
	)
	taps := envelopeTaps(t)

	n := rate // one second
	samples := make([]float64, n)
	want := make([]float64, n)
	for i := range samples {
		ts := float64(i) / rate
		want[i] = 0.6 + 0.3*math.Sin(2*math.Pi*modFreq*ts)
		samples[i] = want[i] * math.Sin(2*math.Pi*carrier*ts)
	}

	env, err := Demodulate(Signal{Samples: samples, Rate: rate}, taps)
	require.NoError(t, err)
	require.Len(t, env.Samples, n)
	assert.Equal(t, rate, env.Rate)

	for i := 500; i < n-500; i++ {
		assert.InDelta(t, want[i], env.Samples[i], 0.05, "sample %d", i)
	}
}

func TestDemodulateConstantCarrier(t *testing.T) {
	const rate = 12480
	taps := envelopeTaps(t)

	n := rate / 2
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2*math.Pi*2340*float64(i)/rate)
	}

	env, err := Demodulate(Signal{Samples: samples, Rate: rate}, taps)
	require.NoError(t, err)

	for i := 500; i < n-500; i++ {
		assert.InDelta(t, 0.8, env.Samples[i], 0.02, "sample %d", i)
	}
}

func TestDemodulateRejectsEmptyInput(t *testing.T) {
	_, err := Demodulate(Signal{Samples: nil, Rate: 12480}, envelopeTaps(t))
	require.Error(t, err)
	var demErr *DemodulationError
	assert.ErrorAs(t, err, &demErr)
}

func TestDemodulateRejectsSilentInput(t *testing.T) {
	_, err := Demodulate(Signal{Samples: make([]float64, 4096), Rate: 12480}, envelopeTaps(t))
	require.Error(t, err)
	var demErr *DemodulationError
	assert.ErrorAs(t, err, &demErr)
}

func TestDemodulateNonPowerOfTwoLength(t *testing.T) {
	const rate = 12480
	taps := envelopeTaps(t)

	// A length just past a power of two exercises the zero-padded
	// transform; no trailing samples may be lost.
	n := 4100
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*2340*float64(i)/rate)
	}

	env, err := Demodulate(Signal{Samples: samples, Rate: rate}, taps)
	require.NoError(t, err)
	assert.Len(t, env.Samples, n)
}

func TestNextPow2(t *testing.T) {
	assert.Equal(t, 1, nextPow2(1))
	assert.Equal(t, 2, nextPow2(2))
	assert.Equal(t, 4, nextPow2(3))
	assert.Equal(t, 4096, nextPow2(4096))
	assert.Equal(t, 8192, nextPow2(4097))
}
