package wav

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/large-farva/apt-engine/internal/dsp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := make([]float64, 4410)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}
	in := dsp.Signal{Samples: samples, Rate: 44100}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, in.Rate, out.Rate)
	require.Len(t, out.Samples, len(in.Samples))

	// 16-bit quantization costs at most one LSB.
	for i := range in.Samples {
		assert.InDelta(t, in.Samples[i], out.Samples[i], 1.0/32768, "sample %d", i)
	}
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	in := dsp.Signal{Samples: []float64{2.0, -3.0, 0.0}, Rate: 8000}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, in))

	out, err := Decode(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 32767.0/32768, out.Samples[0], 1e-9)
	assert.InDelta(t, -1.0, out.Samples[1], 1e-9)
	assert.InDelta(t, 0.0, out.Samples[2], 1e-9)
}

// writeChunk appends a chunk header plus payload, padding odd sizes the way
// the RIFF spec demands.
func writeChunk(buf *bytes.Buffer, id string, payload []byte) {
	buf.WriteString(id)
	binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	if len(payload)%2 == 1 {
		buf.WriteByte(0)
	}
}

func buildWAV(channels int, rate int, frames [][]int16, junkChunk bool) []byte {
	var data bytes.Buffer
	for _, frame := range frames {
		binary.Write(&data, binary.LittleEndian, frame)
	}

	var fmtChunk bytes.Buffer
	binary.Write(&fmtChunk, binary.LittleEndian, struct {
		AudioFormat uint16
		NumChannels uint16
		SampleRate  uint32
		ByteRate    uint32
		BlockAlign  uint16
		BitsPerSamp uint16
	}{1, uint16(channels), uint32(rate), uint32(rate * channels * 2), uint16(channels * 2), 16})

	var body bytes.Buffer
	writeChunk(&body, "fmt ", fmtChunk.Bytes())
	if junkChunk {
		writeChunk(&body, "LIST", []byte("INFOjunk metadata"))
	}
	writeChunk(&body, "data", data.Bytes())

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(4+body.Len()))
	out.WriteString("WAVE")
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestDecodeDownmixesStereo(t *testing.T) {
	raw := buildWAV(2, 11025, [][]int16{
		{16384, -16384}, // averages to zero
		{8192, 8192},
		{-32768, 0},
	}, false)

	sig, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 11025, sig.Rate)
	require.Len(t, sig.Samples, 3)
	assert.InDelta(t, 0.0, sig.Samples[0], 1e-9)
	assert.InDelta(t, 0.25, sig.Samples[1], 1e-9)
	assert.InDelta(t, -0.5, sig.Samples[2], 1e-9)
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	raw := buildWAV(1, 8000, [][]int16{{100}, {200}}, true)

	sig, err := Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 8000, sig.Rate)
	assert.Len(t, sig.Samples, 2)
}

func TestDecodeRejectsNonRIFF(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("this is definitely not a wav file, not even close")))
	assert.Error(t, err)
}

func TestDecodeRejectsNonPCM(t *testing.T) {
	raw := buildWAV(1, 8000, [][]int16{{1}}, false)
	// Patch the audio format field (first word of the fmt payload) to
	// IEEE float.
	off := bytes.Index(raw, []byte("fmt ")) + 8
	binary.LittleEndian.PutUint16(raw[off:], 3)

	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}

func TestDecodeRejectsMissingData(t *testing.T) {
	raw := buildWAV(1, 8000, [][]int16{{1}}, false)
	truncated := raw[:bytes.Index(raw, []byte("data"))]

	_, err := Decode(bytes.NewReader(truncated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data chunk")
}
