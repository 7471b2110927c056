/*
DESCRIPTION
  scale.go resamples packed RGB24 frames to target dimensions using a
  Lanczos-3 kernel hosted by golang.org/x/image/draw's generic convolution
  resampler.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pixel

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// lanczosSupport is the number of lobes (and hence the Kernel.Support) of
// the resampler below.
const lanczosSupport = 3.0

// lanczos is the Kernel golang.org/x/image/draw uses to perform high
// quality anti-aliasing resampling. x/image/draw does not export a named
// Lanczos kernel (only CatmullRom, a bicubic kernel, and the bilinear
// family), so it's constructed here from the windowed-sinc definition.
var lanczos = &draw.Kernel{Support: lanczosSupport, At: lanczosAt}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func lanczosAt(x float64) float64 {
	if x < -lanczosSupport || x > lanczosSupport {
		return 0
	}
	return sinc(x) * sinc(x/lanczosSupport)
}

// Scale resamples a packed RGB24 frame of shape (h, w) to (targetH,
// targetW). If the dimensions already match, rgb is returned unchanged
// (identity, no copy).
func Scale(rgb []byte, w, h, targetW, targetH int) ([]byte, error) {
	if w == targetW && h == targetH {
		return rgb, nil
	}
	if len(rgb) < w*h*3 {
		return nil, ErrInvalidDimension
	}

	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		src.Pix[i*4+0] = rgb[i*3+0]
		src.Pix[i*4+1] = rgb[i*3+1]
		src.Pix[i*4+2] = rgb[i*3+2]
		src.Pix[i*4+3] = 0xff
	}

	dst := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	lanczos.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := make([]byte, targetW*targetH*3)
	for i := 0; i < targetW*targetH; i++ {
		out[i*3+0] = dst.Pix[i*4+0]
		out[i*3+1] = dst.Pix[i*4+1]
		out[i*3+2] = dst.Pix[i*4+2]
	}
	return out, nil
}
