// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package captcha

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/samber/oops"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Canvas dimensions for the rendered challenge.
const (
	imageWidth  = 120
	imageHeight = 30
)

// ImageRenderer renders challenge codes as PNG images.
type ImageRenderer struct {
	face font.Face
}

// NewImageRenderer creates a renderer using the built-in bitmap face.
func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{face: basicfont.Face7x13}
}

// Render draws the code in black on a white canvas and encodes it as PNG.
func (r *ImageRenderer) Render(code string) ([]byte, error) {
	if code == "" {
		return nil, oops.Code("CAPTCHA_EMPTY_CODE").Errorf("challenge code cannot be empty")
	}

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: r.face,
		Dot:  fixed.P(8, (imageHeight+r.face.Metrics().Ascent.Ceil())/2),
	}
	drawer.DrawString(code)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, oops.Code("CAPTCHA_ENCODE_FAILED").
			With("operation", "encode png").
			Wrap(err)
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ Renderer = (*ImageRenderer)(nil)
