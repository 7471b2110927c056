package source

import (
	"bytes"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vts/decoder"
	"github.com/ausocean/vts/format"
)

// fakeDecoder is a deterministic stand-in for the gocv-backed decoder,
// serving solid-colored frames from an in-memory "stream" of the given
// length so the Source Engine's state machine can be tested without a real
// video file.
type fakeDecoder struct {
	opened bool
	pos    int
	total  int
	w, h   int

	openErr   error
	seekErr   error
	decodeErr error
}

func (f *fakeDecoder) Open(path string) (decoder.SourceInfo, error) {
	if f.openErr != nil {
		return decoder.SourceInfo{}, f.openErr
	}
	f.opened = true
	f.pos = 0
	return decoder.SourceInfo{
		Path:       path,
		Width:      f.w,
		Height:     f.h,
		FrameCount: f.total,
		FrameRate:  25,
	}, nil
}

func (f *fakeDecoder) Seek(n int) error {
	if f.seekErr != nil {
		return f.seekErr
	}
	f.pos = n
	return nil
}

func (f *fakeDecoder) DecodeNext() (decoder.Frame, bool, error) {
	if f.decodeErr != nil {
		return decoder.Frame{}, false, f.decodeErr
	}
	if f.pos >= f.total {
		return decoder.Frame{}, false, nil
	}
	rgb := make([]byte, f.w*f.h*3)
	for i := range rgb {
		rgb[i] = byte(f.pos)
	}
	f.pos++
	return decoder.Frame{RGB: rgb, Width: f.w, Height: f.h}, true, nil
}

func (f *fakeDecoder) Close() error {
	f.opened = false
	return nil
}

func testLogger() logging.Logger {
	return logging.New(logging.Debug, &bytes.Buffer{}, true)
}

func newTestEngine(total, w, h int) (*Engine, *fakeDecoder) {
	fd := &fakeDecoder{total: total, w: w, h: h}
	f := format.VideoFormat{
		Width: w, Height: h,
		FrameRateNum: 25, FrameRateDen: 1,
		PixelAspectNum: 1, PixelAspectDen: 1,
		Layout: format.RGB24,
	}
	e := newEngine(fd, testLogger(), f, 4)
	return e, fd
}

func TestLoadResetsState(t *testing.T) {
	e, _ := newTestEngine(10, 16, 16)
	total, err := e.Load("clip.mp4")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if total != 10 {
		t.Fatalf("got total %d, want 10", total)
	}
	if e.CurrentFrame() != 0 {
		t.Fatalf("got current frame %d, want 0", e.CurrentFrame())
	}
	if e.State() != Stopped {
		t.Fatalf("got state %v, want Stopped", e.State())
	}
	if !e.IsLoaded() {
		t.Fatal("expected IsLoaded true after Load")
	}
}

func TestLoadFailureClearsSource(t *testing.T) {
	e, fd := newTestEngine(10, 16, 16)
	fd.openErr = errTest
	if _, err := e.Load("clip.mp4"); err == nil {
		t.Fatal("expected error")
	}
	if e.IsLoaded() {
		t.Fatal("expected IsLoaded false after failed Load")
	}
}

var errTest = &testError{"boom"}

type testError struct{ s string }

func (e *testError) Error() string { return e.s }

func TestSeekClampsPositive(t *testing.T) {
	e, _ := newTestEngine(10, 16, 16)
	e.Load("clip.mp4")

	got, err := e.Seek(100)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got != 9 {
		t.Fatalf("got %d, want 9 (clamped to total-1)", got)
	}
}

func TestSeekClampsNegativeBelowZero(t *testing.T) {
	e, _ := newTestEngine(10, 16, 16)
	e.Load("clip.mp4")

	got, err := e.Seek(-100)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestSeekNegativeFromEnd(t *testing.T) {
	e, _ := newTestEngine(10, 16, 16)
	e.Load("clip.mp4")

	got, err := e.Seek(-1)
	if err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if got != 9 {
		t.Fatalf("got %d, want 9 (last frame)", got)
	}
}

func TestSeekWithoutSourceFails(t *testing.T) {
	e, _ := newTestEngine(10, 16, 16)
	if _, err := e.Seek(0); err == nil {
		t.Fatal("expected error seeking with no source loaded")
	}
}

func TestAdvanceStopsAtEndWithoutLoop(t *testing.T) {
	e, _ := newTestEngine(3, 16, 16)
	e.Load("clip.mp4")
	e.Seek(2)

	if e.Advance() {
		t.Fatal("expected Advance to return false at last frame without loop")
	}
	if e.CurrentFrame() != 2 {
		t.Fatalf("got current frame %d, want unchanged 2", e.CurrentFrame())
	}
}

func TestAdvanceWrapsWithLoop(t *testing.T) {
	e, _ := newTestEngine(3, 16, 16)
	e.Load("clip.mp4")
	e.SetLoop(true)
	e.Seek(2)

	if !e.Advance() {
		t.Fatal("expected Advance to wrap with loop enabled")
	}
	if e.CurrentFrame() != 0 {
		t.Fatalf("got current frame %d, want 0 after wrap", e.CurrentFrame())
	}
}

func TestRetreatStopsAtZero(t *testing.T) {
	e, _ := newTestEngine(5, 16, 16)
	e.Load("clip.mp4")

	if e.Retreat() {
		t.Fatal("expected Retreat to return false at frame 0")
	}
}

func TestGetFrameDecodesAndCaches(t *testing.T) {
	e, fd := newTestEngine(5, 16, 16)
	e.Load("clip.mp4")

	b1, n1, err := e.GetFrame(nil)
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if n1 != 0 {
		t.Fatalf("got frame %d, want 0", n1)
	}
	if len(b1) != 16*16*3 {
		t.Fatalf("got %d bytes, want %d", len(b1), 16*16*3)
	}

	// A second call for the same frame should hit the cache rather than
	// advancing the fake decoder's position.
	posBefore := fd.pos
	b2, _, err := e.GetFrame(func() *int { z := 0; return &z }())
	if err != nil {
		t.Fatalf("GetFrame cached: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatal("cached frame bytes differ from original")
	}
	if fd.pos != posBefore {
		t.Fatalf("decoder position advanced on cache hit: %d -> %d", posBefore, fd.pos)
	}
}

func TestGetFrameNoSourceFails(t *testing.T) {
	e, _ := newTestEngine(5, 16, 16)
	if _, _, err := e.GetFrame(nil); err == nil {
		t.Fatal("expected error with no source loaded")
	}
}

func TestSetOutputFormatClearsCache(t *testing.T) {
	e, _ := newTestEngine(5, 16, 16)
	e.Load("clip.mp4")
	e.GetFrame(nil)
	if e.cache.Len() == 0 {
		t.Fatal("expected cache to be populated")
	}

	e.SetOutputFormat(format.PALFormat(format.RGB24))
	if e.cache.Len() != 0 {
		t.Fatal("expected cache to be cleared after SetOutputFormat")
	}
}

func TestCloseIsIdempotentAndClearsState(t *testing.T) {
	e, _ := newTestEngine(5, 16, 16)
	e.Load("clip.mp4")
	e.GetFrame(nil)

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if e.IsLoaded() {
		t.Fatal("expected IsLoaded false after Close")
	}
	if e.cache.Len() != 0 {
		t.Fatal("expected cache cleared on Close")
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
