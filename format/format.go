/*
DESCRIPTION
  format.go defines the two broadcast-style output formats (NTSC, PAL) and
  the three pixel layouts (RGB24, YUV422_UYVY, YUV420P) served by the VTS
  daemon, along with their derived quantities.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package format provides the VideoFormat catalog: the broadcast-style
// output resolutions/frame-rates (NTSC, PAL) and pixel layouts (RGB24,
// YUV422_UYVY, YUV420P) that the VTS daemon normalizes decoded frames to.
package format

import "fmt"

// PixelLayout identifies the packing of pixel samples in a transmitted
// frame. The numeric value is the wire code sent in FrameHeader.colorspace.
type PixelLayout uint8

// Supported pixel layouts and their wire codes.
const (
	RGB24       PixelLayout = 0 // Packed RGB, 8:8:8, 3 bytes per pixel.
	YUV422_UYVY PixelLayout = 1 // Packed YUV 4:2:2, UYVY byte order, 2 bytes per pixel.
	YUV420P     PixelLayout = 2 // Planar YUV 4:2:0, 1.5 bytes per pixel.
)

// String returns the protocol token for the layout, e.g. "RGB24".
func (p PixelLayout) String() string {
	switch p {
	case RGB24:
		return "RGB24"
	case YUV422_UYVY:
		return "YUV422"
	case YUV420P:
		return "YUV420P"
	default:
		return fmt.Sprintf("PixelLayout(%d)", uint8(p))
	}
}

// BytesPerPixel returns the average number of bytes a single pixel occupies
// under this layout. For YUV420P this is a fractional average (1.5) since
// the chroma planes are quarter resolution.
func (p PixelLayout) BytesPerPixel() float64 {
	switch p {
	case RGB24:
		return 3.0
	case YUV422_UYVY:
		return 2.0
	case YUV420P:
		return 1.5
	default:
		return 0
	}
}

// ParsePixelLayout maps a protocol token (FORMAT command argument) to a
// PixelLayout. Matching is case-insensitive at the caller's discretion; ok
// is false for unrecognised tokens.
func ParsePixelLayout(s string) (PixelLayout, bool) {
	switch s {
	case "RGB24":
		return RGB24, true
	case "YUV422":
		return YUV422_UYVY, true
	case "YUV420P":
		return YUV420P, true
	default:
		return 0, false
	}
}

// VideoStandard identifies a broadcast-style video standard.
type VideoStandard uint8

const (
	NTSC VideoStandard = iota
	PAL
)

func (s VideoStandard) String() string {
	if s == PAL {
		return "PAL"
	}
	return "NTSC"
}

// ParseVideoStandard maps a protocol token (FORMAT command argument) to a
// VideoStandard. ok is false for unrecognised tokens.
func ParseVideoStandard(s string) (VideoStandard, bool) {
	switch s {
	case "NTSC":
		return NTSC, true
	case "PAL":
		return PAL, true
	default:
		return 0, false
	}
}

// VideoFormat is an immutable record describing a target output format:
// resolution, frame rate, pixel aspect ratio, pixel layout and video
// standard. Changing format means replacing the VideoFormat value held by
// the caller (e.g. the Source Engine), never mutating one in place.
type VideoFormat struct {
	Width          int
	Height         int
	FrameRateNum   int
	FrameRateDen   int
	PixelAspectNum int
	PixelAspectDen int
	Layout         PixelLayout
	Standard       VideoStandard
}

// NTSCFormat returns the NTSC broadcast format: 720x486 @ 30000/1001 fps,
// 10:11 pixel aspect ratio, with the given pixel layout.
func NTSCFormat(layout PixelLayout) VideoFormat {
	return VideoFormat{
		Width:          720,
		Height:         486,
		FrameRateNum:   30000,
		FrameRateDen:   1001,
		PixelAspectNum: 10,
		PixelAspectDen: 11,
		Layout:         layout,
		Standard:       NTSC,
	}
}

// PALFormat returns the PAL broadcast format: 720x576 @ 25 fps, 59:54
// pixel aspect ratio, with the given pixel layout.
func PALFormat(layout PixelLayout) VideoFormat {
	return VideoFormat{
		Width:          720,
		Height:         576,
		FrameRateNum:   25,
		FrameRateDen:   1,
		PixelAspectNum: 59,
		PixelAspectDen: 54,
		Layout:         layout,
		Standard:       PAL,
	}
}

// New returns the broadcast VideoFormat for the given standard and layout.
func New(std VideoStandard, layout PixelLayout) VideoFormat {
	if std == PAL {
		return PALFormat(layout)
	}
	return NTSCFormat(layout)
}

// FrameRate returns the frame rate as a floating point value, e.g. 29.97
// for NTSC.
func (f VideoFormat) FrameRate() float64 {
	return float64(f.FrameRateNum) / float64(f.FrameRateDen)
}

// FrameDurationMs returns the duration of one frame in milliseconds.
func (f VideoFormat) FrameDurationMs() float64 {
	return (float64(f.FrameRateDen) / float64(f.FrameRateNum)) * 1000
}

// FrameSizeBytes returns the size, in bytes, of one frame encoded in this
// format's pixel layout at this format's resolution.
func (f VideoFormat) FrameSizeBytes() int {
	return int(float64(f.Width) * float64(f.Height) * f.Layout.BytesPerPixel())
}

// PixelAspectRatio returns the pixel aspect ratio as a floating point value.
func (f VideoFormat) PixelAspectRatio() float64 {
	return float64(f.PixelAspectNum) / float64(f.PixelAspectDen)
}

// DisplayAspectRatio returns the display aspect ratio. Standard-definition
// broadcast video is always 4:3.
func (f VideoFormat) DisplayAspectRatio() (num, den int) {
	return 4, 3
}

// DataRateMbps returns the uncompressed data rate, in megabits per second,
// of this format at its native frame rate.
func (f VideoFormat) DataRateMbps() float64 {
	bytesPerSecond := float64(f.FrameSizeBytes()) * f.FrameRate()
	return (bytesPerSecond * 8) / 1_000_000
}

// String returns a human-readable summary, e.g. "NTSC 720x486 @ 29.97fps RGB24".
func (f VideoFormat) String() string {
	return fmt.Sprintf("%s %dx%d @ %.2ffps %s", f.Standard, f.Width, f.Height, f.FrameRate(), f.Layout)
}
