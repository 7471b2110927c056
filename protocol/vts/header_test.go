package vts

import "testing"

func TestHeaderSize(t *testing.T) {
	if HeaderSize != 16 {
		t.Fatalf("got %d, want 16", HeaderSize)
	}
}

func TestHeaderPackUnpackRoundTrip(t *testing.T) {
	h := FrameHeader{
		Sequence:    12345,
		TimestampMs: 67890,
		Width:       720,
		Height:      486,
		Colorspace:  0,
		Flags:       FlagKeyframe,
	}
	packed := h.Pack()
	if len(packed) != HeaderSize {
		t.Fatalf("got %d bytes, want %d", len(packed), HeaderSize)
	}
	got, err := UnpackFrameHeader(packed)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Fatalf("got %+v, want %+v", got, h)
	}
}

func TestHeaderIsKeyframe(t *testing.T) {
	h := FrameHeader{Width: 720, Height: 486, Flags: FlagKeyframe}
	if !h.IsKeyframe() {
		t.Fatal("want keyframe")
	}
	h2 := FrameHeader{Width: 720, Height: 486}
	if h2.IsKeyframe() {
		t.Fatal("want not keyframe")
	}
}

func TestHeaderIsEndOfStream(t *testing.T) {
	h := FrameHeader{Flags: FlagEndOfStream}
	if !h.IsEndOfStream() {
		t.Fatal("want end of stream")
	}
}
