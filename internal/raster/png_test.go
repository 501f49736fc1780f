package raster

import (
	"bytes"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/large-farva/apt-engine/internal/apt"
)

func testImage() *apt.Image {
	// 4x3 with distinct corner values.
	return &apt.Image{
		Width:  4,
		Height: 3,
		Pixels: []uint8{
			10, 20, 30, 40,
			50, 60, 70, 80,
			90, 100, 110, 120,
		},
	}
}

func TestEncodeGrayscale(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testImage(), false))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)

	b := decoded.Bounds()
	assert.Equal(t, 4, b.Dx())
	assert.Equal(t, 3, b.Dy())

	r, _, _, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	r, _, _, _ = decoded.At(3, 2).RGBA()
	assert.Equal(t, uint32(120), r>>8)
}

func TestEncodeRotated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testImage(), true))

	decoded, err := png.Decode(&buf)
	require.NoError(t, err)

	// 180° rotation: the old bottom-right corner lands top-left.
	r, _, _, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(120), r>>8)
	r, _, _, _ = decoded.At(3, 2).RGBA()
	assert.Equal(t, uint32(10), r>>8)
}

func TestWriteFile(t *testing.T) {
	path := t.TempDir() + "/out.png"
	require.NoError(t, WriteFile(path, testImage(), false))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
}
