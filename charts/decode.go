// charts/decode.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
)

// decodePNGToSurface decodes PNG-encoded data to a tightly-packed RGBA
// Surface. PNG decoding itself is an out-of-scope "assumed present"
// external collaborator per §1; the standard library's image/png is the
// natural stand-in for it, since the spec draws the scope boundary at
// "decode PNG bytes to RGBA pixel buffer" rather than at any particular
// implementation of that step.
func decodePNGToSurface(data []byte) (Surface, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return Surface{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return Surface{
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: rgba.Stride / 4,
		Pix:    rgba.Pix,
	}, nil
}
