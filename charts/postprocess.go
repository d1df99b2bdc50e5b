// charts/postprocess.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package charts

// invertNight inverts the R, G, and B channels of s in place, leaving
// alpha untouched (§4.9). s.Pix is always treated as 4-bytes-per-pixel
// RGBA, per §3's Surface representation; this is the one "pixel format"
// the core's raster pipeline ever produces, so there's no unsupported-
// format path to fall into here (PNG decode already normalizes to RGBA).
func invertNight(s *Surface) {
	if s == nil {
		return
	}
	for row := 0; row < s.Height; row++ {
		base := row * s.Stride * 4
		for col := 0; col < s.Width; col++ {
			i := base + col*4
			if i+2 >= len(s.Pix) {
				break
			}
			s.Pix[i+0] = 255 - s.Pix[i+0]
			s.Pix[i+1] = 255 - s.Pix[i+1]
			s.Pix[i+2] = 255 - s.Pix[i+2]
			// s.Pix[i+3] (alpha) is left alone.
		}
	}
}

// applyWatermark invokes the provider's optional watermark hook, if it
// implements Watermarker (§4.9, §6.3).
func applyWatermark(p Provider, c *Chart, s *Surface) {
	if wm, ok := p.(Watermarker); ok {
		wm.Watermark(c, s)
	}
}
