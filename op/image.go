// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package op

import (
	"image"
	"image/color"
)

// Image is a rendered height x width x 4 float image. Row 0 is the bottom
// row of the framebuffer.
type Image struct {
	Height, Width int
	Pix           []float32
}

// NewImage allocates a zeroed image.
func NewImage(height, width int) *Image {
	return &Image{Height: height, Width: width, Pix: make([]float32, height*width*4)}
}

// At returns the four channels of the pixel at row y, column x.
func (img *Image) At(y, x int) [4]float32 {
	i := (y*img.Width + x) * 4
	return [4]float32{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

// FlipVertical reverses the row order in place.
func (img *Image) FlipVertical() {
	stride := img.Width * 4
	row := make([]float32, stride)
	for top, bottom := 0, img.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		t := img.Pix[top*stride : (top+1)*stride]
		b := img.Pix[bottom*stride : (bottom+1)*stride]
		copy(row, t)
		copy(t, b)
		copy(b, row)
	}
}

// NRGBA64 converts the image for encoding. Channels are clamped to [0, 1]
// and row 0 stays the first row.
func (img *Image) NRGBA64() *image.NRGBA64 {
	out := image.NewNRGBA64(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.At(y, x)
			out.SetNRGBA64(x, y, color.NRGBA64{
				R: unit16(p[0]),
				G: unit16(p[1]),
				B: unit16(p[2]),
				A: unit16(p[3]),
			})
		}
	}
	return out
}

func unit16(v float32) uint16 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 0xffff
	}
	return uint16(v*0xffff + 0.5)
}
