/*
DESCRIPTION
  header.go packs and unpacks the 16-byte binary frame header that
  precedes every GETFRAME payload on the wire.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vts

import (
	"encoding/binary"
	"fmt"
)

// Flags bitmap values for FrameHeader.Flags.
const (
	FlagNone        uint8 = 0
	FlagKeyframe    uint8 = 1 << 0
	FlagField1      uint8 = 1 << 1
	FlagField2      uint8 = 1 << 2
	FlagEndOfStream uint8 = 1 << 3
)

// HeaderSize is the packed size, in bytes, of a FrameHeader.
const HeaderSize = 16

// FrameHeader is the 16-byte, big-endian header prepended to every frame
// transmitted in response to GETFRAME.
type FrameHeader struct {
	Sequence    uint32
	TimestampMs uint32
	Width       uint16
	Height      uint16
	Colorspace  uint8
	Flags       uint8
	Reserved    uint16
}

// IsKeyframe reports whether the KEYFRAME flag is set.
func (h FrameHeader) IsKeyframe() bool { return h.Flags&FlagKeyframe != 0 }

// IsEndOfStream reports whether the END_OF_STREAM flag is set.
func (h FrameHeader) IsEndOfStream() bool { return h.Flags&FlagEndOfStream != 0 }

// Pack serializes the header to exactly HeaderSize bytes, big-endian, in
// wire field order: sequence(4) timestamp(4) width(2) height(2)
// colorspace(1) flags(1) reserved(2).
func (h FrameHeader) Pack() []byte {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[0:4], h.Sequence)
	binary.BigEndian.PutUint32(b[4:8], h.TimestampMs)
	binary.BigEndian.PutUint16(b[8:10], h.Width)
	binary.BigEndian.PutUint16(b[10:12], h.Height)
	b[12] = h.Colorspace
	b[13] = h.Flags
	binary.BigEndian.PutUint16(b[14:16], h.Reserved)
	return b
}

// UnpackFrameHeader deserializes a FrameHeader from the first HeaderSize
// bytes of b.
func UnpackFrameHeader(b []byte) (FrameHeader, error) {
	if len(b) < HeaderSize {
		return FrameHeader{}, fmt.Errorf("vts: header requires %d bytes, got %d", HeaderSize, len(b))
	}
	return FrameHeader{
		Sequence:    binary.BigEndian.Uint32(b[0:4]),
		TimestampMs: binary.BigEndian.Uint32(b[4:8]),
		Width:       binary.BigEndian.Uint16(b[8:10]),
		Height:      binary.BigEndian.Uint16(b[10:12]),
		Colorspace:  b[12],
		Flags:       b[13],
		Reserved:    binary.BigEndian.Uint16(b[14:16]),
	}, nil
}
