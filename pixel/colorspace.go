/*
DESCRIPTION
  colorspace.go implements BT.601 colorspace conversion between packed
  RGB24 and the two YUV layouts served by the VTS daemon: packed 4:2:2
  (UYVY) and planar 4:2:0. Conversion is bit-exact per the rules in the
  specification this package implements: each channel is computed in
  floating point then clipped to [0,255] and truncated to uint8.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pixel implements colorspace conversion and scaling of decoded
// video frames to the VTS daemon's broadcast-style output formats.
package pixel

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// BT.601 luma coefficients (standard-definition primaries).
const (
	kr = 0.299
	kg = 0.587
	kb = 0.114
)

// ErrInvalidDimension is returned when a subsampling routine is given
// dimensions it cannot operate on (odd width for 4:2:2, odd width or
// height for 4:2:0).
var ErrInvalidDimension = errors.New("invalid argument: odd dimension")

func clipU8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// RGBToYUV444 converts a packed RGB24 frame (row-major, 3 bytes per pixel)
// to full-resolution Y, U, V planes using BT.601. Each returned plane has
// w*h bytes.
func RGBToYUV444(rgb []byte, w, h int) (y, u, v []byte, err error) {
	if len(rgb) < w*h*3 {
		return nil, nil, nil, fmt.Errorf("pixel: rgb buffer too small: have %d, need %d", len(rgb), w*h*3)
	}
	y = make([]byte, w*h)
	u = make([]byte, w*h)
	v = make([]byte, w*h)
	for i := 0; i < w*h; i++ {
		r := float64(rgb[i*3])
		g := float64(rgb[i*3+1])
		b := float64(rgb[i*3+2])
		yy := kr*r + kg*g + kb*b
		uu := (b-yy)/(2*(1-kb)) + 128
		vv := (r-yy)/(2*(1-kr)) + 128
		y[i] = clipU8(yy)
		u[i] = clipU8(uu)
		v[i] = clipU8(vv)
	}
	return y, u, v, nil
}

// RGBToUYVY converts a packed RGB24 frame to packed 4:2:2 UYVY. Width must
// be even. Chroma is subsampled horizontally by the integer arithmetic mean
// of each pair of adjacent columns. The returned slice has shape h x (2*w)
// bytes, with each group of 4 bytes holding one pixel pair as U, Y0, V, Y1.
func RGBToUYVY(rgb []byte, w, h int) ([]byte, error) {
	if w%2 != 0 {
		return nil, errors.Wrapf(ErrInvalidDimension, "width %d must be even", w)
	}
	y, u, v, err := RGBToYUV444(rgb, w, h)
	if err != nil {
		return nil, err
	}
	out := make([]byte, h*w*2)
	for row := 0; row < h; row++ {
		rowOff := row * w
		outOff := row * w * 2
		for col := 0; col < w; col += 2 {
			uAvg := (uint16(u[rowOff+col]) + uint16(u[rowOff+col+1])) / 2
			vAvg := (uint16(v[rowOff+col]) + uint16(v[rowOff+col+1])) / 2
			o := outOff + col*2
			out[o] = byte(uAvg)
			out[o+1] = y[rowOff+col]
			out[o+2] = byte(vAvg)
			out[o+3] = y[rowOff+col+1]
		}
	}
	return out, nil
}

// RGBToYUV420P converts a packed RGB24 frame to planar 4:2:0. Width and
// height must both be even. Chroma is subsampled by the floating-point mean
// of each 2x2 pixel block, then truncated to uint8. The returned slice is
// the concatenation of the Y plane (h*w bytes), U plane (h/2*w/2 bytes) and
// V plane (h/2*w/2 bytes).
func RGBToYUV420P(rgb []byte, w, h int) ([]byte, error) {
	if w%2 != 0 || h%2 != 0 {
		return nil, errors.Wrapf(ErrInvalidDimension, "width and height must be even, got %dx%d", w, h)
	}
	y, u, v, err := RGBToYUV444(rgb, w, h)
	if err != nil {
		return nil, err
	}
	cw, ch := w/2, h/2
	uPlane := make([]byte, cw*ch)
	vPlane := make([]byte, cw*ch)
	block := make([]float64, 4)
	for cy := 0; cy < ch; cy++ {
		for cx := 0; cx < cw; cx++ {
			r0, r1 := cy*2*w, (cy*2+1)*w
			c0, c1 := cx*2, cx*2+1
			block[0] = float64(u[r0+c0])
			block[1] = float64(u[r0+c1])
			block[2] = float64(u[r1+c0])
			block[3] = float64(u[r1+c1])
			uPlane[cy*cw+cx] = uint8(stat.Mean(block, nil))
			block[0] = float64(v[r0+c0])
			block[1] = float64(v[r0+c1])
			block[2] = float64(v[r1+c0])
			block[3] = float64(v[r1+c1])
			vPlane[cy*cw+cx] = uint8(stat.Mean(block, nil))
		}
	}
	out := make([]byte, 0, len(y)+len(uPlane)+len(vPlane))
	out = append(out, y...)
	out = append(out, uPlane...)
	out = append(out, vPlane...)
	return out, nil
}

// UYVYToRGB converts a packed 4:2:2 UYVY frame back to RGB24. It is the
// inverse of RGBToUYVY, used for test round-trip verification. Chroma
// samples are replicated across the pair of luma samples they cover before
// the inverse BT.601 transform is applied.
func UYVYToRGB(uyvy []byte, w, h int) ([]byte, error) {
	if w%2 != 0 {
		return nil, errors.Wrapf(ErrInvalidDimension, "width %d must be even", w)
	}
	if len(uyvy) < h*w*2 {
		return nil, fmt.Errorf("pixel: uyvy buffer too small: have %d, need %d", len(uyvy), h*w*2)
	}
	out := make([]byte, w*h*3)
	for row := 0; row < h; row++ {
		rowOff := row * w * 2
		outOff := row * w * 3
		for col := 0; col < w; col += 2 {
			o := rowOff + col*2
			uu := float64(uyvy[o]) - 128
			y0 := float64(uyvy[o+1])
			vv := float64(uyvy[o+2]) - 128
			y1 := float64(uyvy[o+3])

			po := outOff + col*3
			out[po] = clipU8(y0 + 1.402*vv)
			out[po+1] = clipU8(y0 - 0.344136*uu - 0.714136*vv)
			out[po+2] = clipU8(y0 + 1.772*uu)

			po += 3
			out[po] = clipU8(y1 + 1.402*vv)
			out[po+1] = clipU8(y1 - 0.344136*uu - 0.714136*vv)
			out[po+2] = clipU8(y1 + 1.772*uu)
		}
	}
	return out, nil
}
