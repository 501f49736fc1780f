// Package wav reads and writes RIFF/WAV containers holding 16-bit signed
// PCM, the format the capture side records passes in. Reading downmixes
// multi-channel files to mono by averaging, so the decoder only ever sees a
// plain sample sequence.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/large-farva/apt-engine/internal/dsp"
)

const (
	formatPCM     = 1
	bitsPerSample = 16
)

// header is the 44-byte canonical RIFF/WAV header for 16-bit LE mono PCM.
type header struct {
	// RIFF header
	RiffID   [4]byte
	RiffSize uint32
	WaveID   [4]byte
	// fmt sub-chunk
	FmtID       [4]byte
	FmtSize     uint32
	AudioFormat uint16
	NumChannels uint16
	SampleRate  uint32
	ByteRate    uint32
	BlockAlign  uint16
	BitsPerSamp uint16
	// data sub-chunk
	DataID   [4]byte
	DataSize uint32
}

// Decode reads a WAV stream into a Signal. Unknown chunks (LIST, fact, …)
// are skipped; only the fmt and data chunks matter. Samples are scaled to
// [-1, 1) and channels averaged down to mono.
func Decode(r io.Reader) (dsp.Signal, error) {
	var riff struct {
		RiffID   [4]byte
		RiffSize uint32
		WaveID   [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return dsp.Signal{}, fmt.Errorf("wav: read RIFF header: %w", err)
	}
	if string(riff.RiffID[:]) != "RIFF" || string(riff.WaveID[:]) != "WAVE" {
		return dsp.Signal{}, fmt.Errorf("wav: not a RIFF/WAVE stream")
	}

	var (
		channels   int
		sampleRate int
		haveFmt    bool
	)

	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return dsp.Signal{}, fmt.Errorf("wav: no data chunk found")
			}
			return dsp.Signal{}, fmt.Errorf("wav: read chunk header: %w", err)
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			var f struct {
				AudioFormat uint16
				NumChannels uint16
				SampleRate  uint32
				ByteRate    uint32
				BlockAlign  uint16
				BitsPerSamp uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return dsp.Signal{}, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			if f.AudioFormat != formatPCM {
				return dsp.Signal{}, fmt.Errorf("wav: unsupported audio format %d (want PCM)", f.AudioFormat)
			}
			if f.BitsPerSamp != bitsPerSample {
				return dsp.Signal{}, fmt.Errorf("wav: unsupported sample width %d bits (want %d)", f.BitsPerSamp, bitsPerSample)
			}
			if f.NumChannels == 0 || f.SampleRate == 0 {
				return dsp.Signal{}, fmt.Errorf("wav: malformed fmt chunk")
			}
			channels = int(f.NumChannels)
			sampleRate = int(f.SampleRate)
			haveFmt = true

			// Skip any fmt extension bytes.
			if extra := int64(chunk.Size) - 16; extra > 0 {
				if err := skip(r, extra); err != nil {
					return dsp.Signal{}, err
				}
			}

		case "data":
			if !haveFmt {
				return dsp.Signal{}, fmt.Errorf("wav: data chunk before fmt chunk")
			}
			return readData(r, chunk.Size, channels, sampleRate)

		default:
			// Chunks are word-aligned; odd sizes carry a pad byte.
			size := int64(chunk.Size)
			if size%2 == 1 {
				size++
			}
			if err := skip(r, size); err != nil {
				return dsp.Signal{}, err
			}
		}
	}
}

// ReadFile opens and decodes a WAV file.
func ReadFile(path string) (dsp.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return dsp.Signal{}, err
	}
	defer f.Close()
	return Decode(f)
}

func readData(r io.Reader, size uint32, channels, sampleRate int) (dsp.Signal, error) {
	frames := int(size) / (2 * channels)
	raw := make([]int16, frames*channels)
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return dsp.Signal{}, fmt.Errorf("wav: read sample data: %w", err)
	}

	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(raw[i*channels+c])
		}
		samples[i] = sum / float64(channels) / 32768.0
	}

	return dsp.Signal{Samples: samples, Rate: sampleRate}, nil
}

func skip(r io.Reader, n int64) error {
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("wav: skip chunk: %w", err)
	}
	return nil
}

// Encode writes the signal as 16-bit LE mono PCM. The full signal is in
// hand, so the header carries final sizes up front and needs no later
// patching. Samples outside [-1, 1) are clamped.
func Encode(w io.Writer, sig dsp.Signal) error {
	dataSize := uint32(len(sig.Samples) * 2)

	h := header{
		RiffID:      [4]byte{'R', 'I', 'F', 'F'},
		RiffSize:    36 + dataSize,
		WaveID:      [4]byte{'W', 'A', 'V', 'E'},
		FmtID:       [4]byte{'f', 'm', 't', ' '},
		FmtSize:     16,
		AudioFormat: formatPCM,
		NumChannels: 1,
		SampleRate:  uint32(sig.Rate),
		ByteRate:    uint32(sig.Rate) * bitsPerSample / 8,
		BlockAlign:  bitsPerSample / 8,
		BitsPerSamp: bitsPerSample,
		DataID:      [4]byte{'d', 'a', 't', 'a'},
		DataSize:    dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}

	pcm := make([]int16, len(sig.Samples))
	for i, v := range sig.Samples {
		switch {
		case v >= 1:
			pcm[i] = 32767
		case v < -1:
			pcm[i] = -32768
		default:
			pcm[i] = int16(v * 32768)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, pcm); err != nil {
		return fmt.Errorf("wav: write samples: %w", err)
	}
	return nil
}

// WriteFile encodes the signal to a new file at path.
func WriteFile(path string, sig dsp.Signal) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, sig); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
