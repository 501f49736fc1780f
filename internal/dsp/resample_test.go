package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testResampleSpec = ResampleSpec{Attenuation: 40, TransitionBW: 0.2, Cutout: 0.9}

func TestNewResamplerReducesFactors(t *testing.T) {
	r, err := NewResampler(20800, 12480, testResampleSpec)
	require.NoError(t, err)
	l, m := r.Factors()
	assert.Equal(t, 3, l)
	assert.Equal(t, 5, m)
}

func TestNewResamplerRejectsBadRates(t *testing.T) {
	_, err := NewResampler(0, 12480, testResampleSpec)
	require.Error(t, err)
	var rsErr *ResampleError
	assert.ErrorAs(t, err, &rsErr)

	_, err = NewResampler(48000, -1, testResampleSpec)
	assert.Error(t, err)
}

func TestNewResamplerRejectsDegenerateRatio(t *testing.T) {
	// Coprime rates reduce to themselves, far past the factor bound.
	_, err := NewResampler(44100, 44101, testResampleSpec)
	require.Error(t, err)
	var rsErr *ResampleError
	assert.ErrorAs(t, err, &rsErr)
}

func TestApplyPreservesDC(t *testing.T) {
	cases := []struct {
		name            string
		inRate, outRate int
	}{
		{"upsample 1:2", 12480, 24960},
		{"downsample 5:3", 20800, 12480},
		{"downsample 2:1", 24960, 12480},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewResampler(tc.inRate, tc.outRate, testResampleSpec)
			require.NoError(t, err)

			samples := make([]float64, tc.inRate) // one second
			for i := range samples {
				samples[i] = 0.5
			}

			out, err := r.Apply(Signal{Samples: samples, Rate: tc.inRate})
			require.NoError(t, err)
			assert.Equal(t, tc.outRate, out.Rate)

			guard := r.Transient()
			for i := guard; i < len(out.Samples)-guard; i++ {
				assert.InDelta(t, 0.5, out.Samples[i], 0.02, "sample %d", i)
			}
		})
	}
}

func TestApplyPreservesSine(t *testing.T) {
	const (
		inRate  = 12480
		outRate = 6240
		freq    = 500.0
	)
	r, err := NewResampler(inRate, outRate, testResampleSpec)
	require.NoError(t, err)

	samples := make([]float64, inRate)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / inRate)
	}

	out, err := r.Apply(Signal{Samples: samples, Rate: inRate})
	require.NoError(t, err)

	guard := r.Transient() + 50
	for k := guard; k < len(out.Samples)-guard; k++ {
		want := math.Sin(2 * math.Pi * freq * float64(k) / outRate)
		assert.InDelta(t, want, out.Samples[k], 0.05, "sample %d", k)
	}
}

func TestApplyRoundTrip(t *testing.T) {
	const (
		rateA = 12480
		rateB = 20800
		freq  = 500.0
	)
	up, err := NewResampler(rateA, rateB, testResampleSpec)
	require.NoError(t, err)
	down, err := NewResampler(rateB, rateA, testResampleSpec)
	require.NoError(t, err)

	samples := make([]float64, rateA)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / rateA)
	}

	mid, err := up.Apply(Signal{Samples: samples, Rate: rateA})
	require.NoError(t, err)
	back, err := down.Apply(mid)
	require.NoError(t, err)

	guard := up.Transient() + down.Transient() + 100
	for i := guard; i < len(samples)-guard && i < len(back.Samples)-guard; i++ {
		assert.InDelta(t, samples[i], back.Samples[i], 0.05, "sample %d", i)
	}
}

func TestApplyOutputLength(t *testing.T) {
	r, err := NewResampler(20800, 12480, testResampleSpec)
	require.NoError(t, err)

	in := make([]float64, 20800)
	out, err := r.Apply(Signal{Samples: in, Rate: 20800})
	require.NoError(t, err)

	// ceil(len * L / M)
	assert.Len(t, out.Samples, (20800*3+4)/5)
}

func TestApplyIdentityRate(t *testing.T) {
	r, err := NewResampler(12480, 12480, testResampleSpec)
	require.NoError(t, err)

	samples := []float64{0.1, -0.2, 0.3, -0.4}
	out, err := r.Apply(Signal{Samples: samples, Rate: 12480})
	require.NoError(t, err)
	assert.Equal(t, samples, out.Samples)
}

func TestApplyRejectsEmptyInput(t *testing.T) {
	r, err := NewResampler(48000, 12480, testResampleSpec)
	require.NoError(t, err)

	_, err = r.Apply(Signal{Samples: nil, Rate: 48000})
	require.Error(t, err)
	var rsErr *ResampleError
	assert.ErrorAs(t, err, &rsErr)
}

func TestApplyRejectsRateMismatch(t *testing.T) {
	r, err := NewResampler(48000, 12480, testResampleSpec)
	require.NoError(t, err)

	_, err = r.Apply(Signal{Samples: []float64{1, 2, 3}, Rate: 44100})
	assert.Error(t, err)
}

func TestApplyDeterministic(t *testing.T) {
	r, err := NewResampler(20800, 12480, testResampleSpec)
	require.NoError(t, err)

	samples := make([]float64, 2*blockSize+999)
	for i := range samples {
		samples[i] = math.Sin(float64(i) * 0.003)
	}
	sig := Signal{Samples: samples, Rate: 20800}

	a, err := r.Apply(sig)
	require.NoError(t, err)
	b, err := r.Apply(sig)
	require.NoError(t, err)
	assert.Equal(t, a.Samples, b.Samples)
}
