// Package raster writes decoded APT images as 8-bit grayscale PNG files.
// Northbound passes scan the Earth south-to-north, so their images come out
// upside down; Encode can rotate 180° to compensate.
package raster

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/large-farva/apt-engine/internal/apt"
)

// Encode writes img as a grayscale PNG. With rotate set the raster is
// flipped 180° (both axes), the orientation fix for northbound passes.
func Encode(w io.Writer, img *apt.Image, rotate bool) error {
	gray := image.NewGray(image.Rect(0, 0, img.Width, img.Height))

	if rotate {
		for y := 0; y < img.Height; y++ {
			srcRow := img.Height - 1 - y
			for x := 0; x < img.Width; x++ {
				gray.Pix[y*gray.Stride+x] = img.At(img.Width-1-x, srcRow)
			}
		}
	} else {
		for y := 0; y < img.Height; y++ {
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+img.Width], img.Pixels[y*img.Width:(y+1)*img.Width])
		}
	}

	if err := png.Encode(w, gray); err != nil {
		return fmt.Errorf("raster: encode png: %w", err)
	}
	return nil
}

// WriteFile encodes img to a new PNG file at path.
func WriteFile(path string, img *apt.Image, rotate bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img, rotate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
