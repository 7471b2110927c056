/*
DESCRIPTION
  engine.go implements the Source Engine: the playback state machine that
  composes the Decoder Adapter and Pixel Ops to load, seek, navigate and
  serve video frames in a configurable output format, backed by a bounded
  LRU frame cache.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package source

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/vts/decoder"
	"github.com/ausocean/vts/format"
	"github.com/ausocean/vts/pixel"
)

const pkg = "source: "

// decoderIface is the narrow subset of *decoder.Decoder the engine depends
// on. Defining it here (rather than importing decoder's concrete type
// directly into the Engine field) lets tests substitute a fake decoder
// without any real video file or gocv backend.
type decoderIface interface {
	Open(path string) (decoder.SourceInfo, error)
	Seek(n int) error
	DecodeNext() (decoder.Frame, bool, error)
	Close() error
}

// PlayState is the advisory playback state. The engine does not self-advance
// frames on a clock; clients pull frames explicitly, and PlayState merely
// reflects the last PLAY/PAUSE/STOP command.
type PlayState uint8

const (
	Stopped PlayState = iota
	Playing
	Paused
)

func (s PlayState) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// Engine is the Source Engine: it owns the decoder handle, the current
// SourceInfo, the playback state machine, and the frame cache. All
// state-mutating methods are serialized by a single exclusive lock, per the
// daemon's shared-source concurrency policy; read-only accessors may be
// called without holding it.
type Engine struct {
	mu sync.RWMutex

	dec    decoderIface
	info   *decoder.SourceInfo
	state  PlayState
	frame  int
	loop   bool
	format format.VideoFormat
	cache  *FrameCache

	log logging.Logger
}

// New returns a new Engine with no source loaded, using outputFormat for
// GETFRAME conversion and a frame cache bounded to cacheSize entries (0 for
// the default of 30).
func New(l logging.Logger, outputFormat format.VideoFormat, cacheSize int) *Engine {
	return newEngine(decoder.New(l), l, outputFormat, cacheSize)
}

// newEngine builds an Engine around an arbitrary decoderIface, letting
// tests substitute a fake decoder in place of the real gocv-backed one.
func newEngine(dec decoderIface, l logging.Logger, outputFormat format.VideoFormat, cacheSize int) *Engine {
	return &Engine{
		dec:    dec,
		format: outputFormat,
		cache:  NewFrameCache(cacheSize),
		log:    l,
	}
}

// Load closes any existing source, opens path, and resets playback state.
func (e *Engine) Load(path string) (totalFrames int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	info, err := e.dec.Open(path)
	if err != nil {
		e.info = nil
		e.frame = 0
		e.state = Stopped
		e.cache.Clear()
		return 0, errors.Wrap(err, pkg+"load failed")
	}

	e.info = &info
	e.frame = 0
	e.state = Stopped
	e.cache.Clear()
	e.log.Info(pkg+"loaded source", "path", path, "frames", info.FrameCount)
	return info.FrameCount, nil
}

// Close releases the current source, if any. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeLocked()
}

func (e *Engine) closeLocked() error {
	err := e.dec.Close()
	e.info = nil
	e.frame = 0
	e.state = Stopped
	e.cache.Clear()
	return err
}

// IsLoaded reports whether a source is currently loaded.
func (e *Engine) IsLoaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.info != nil
}

// TotalFrames returns the total frame count of the loaded source, or 0 if
// none is loaded.
func (e *Engine) TotalFrames() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.info == nil {
		return 0
	}
	return e.info.FrameCount
}

// CurrentFrame returns the current frame number.
func (e *Engine) CurrentFrame() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frame
}

// State returns the current advisory PlayState.
func (e *Engine) State() PlayState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// SetState sets the advisory PlayState directly (used by PLAY/PAUSE).
func (e *Engine) SetState(s PlayState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// Loop returns the current loop flag.
func (e *Engine) Loop() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loop
}

// SetLoop sets the loop flag.
func (e *Engine) SetLoop(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = v
}

// Info returns the SourceInfo of the loaded source, or nil if none is
// loaded. The returned value is a copy safe to read without the lock.
func (e *Engine) Info() *decoder.SourceInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.info == nil {
		return nil
	}
	cp := *e.info
	return &cp
}

// OutputFormat returns the engine's current output VideoFormat.
func (e *Engine) OutputFormat() format.VideoFormat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.format
}

// SetOutputFormat replaces the output format and invalidates the cache,
// since cached bytes are only valid for the format they were produced
// under.
func (e *Engine) SetOutputFormat(f format.VideoFormat) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.format = f
	e.cache.Clear()
}

// Seek moves to frame n, clamped to [0, total-1]. A negative n is
// interpreted as relative to the end of the stream (effective n = total +
// n) before clamping, so -1 means the last frame.
func (e *Engine) Seek(n int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seekLocked(n)
}

func (e *Engine) seekLocked(n int) (int, error) {
	if e.info == nil {
		return 0, errors.New(pkg + "seek: no source loaded")
	}

	total := e.info.FrameCount
	if n < 0 {
		n = total + n
	}
	if n < 0 {
		n = 0
	}
	if n > total-1 {
		n = total - 1
	}

	if err := e.dec.Seek(n); err != nil {
		return e.frame, errors.Wrap(err, pkg+"seek failed")
	}
	e.frame = n
	return e.frame, nil
}

// GetFrame returns the output-formatted bytes for frame n (or the current
// frame, if n is nil), decoding and caching as needed. A decode failure
// returns a non-nil error and leaves the cache and current frame
// untouched.
func (e *Engine) GetFrame(n *int) ([]byte, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.info == nil {
		return nil, 0, errors.New(pkg + "get_frame: no source loaded")
	}

	target := e.frame
	if n != nil {
		target = *n
	}

	if cached, ok := e.cache.Get(target); ok {
		e.frame = target
		return cached, target, nil
	}

	if target != e.frame {
		if err := e.dec.Seek(target); err != nil {
			return nil, 0, errors.Wrap(err, pkg+"seek before decode failed")
		}
	}

	frame, ok, err := e.dec.DecodeNext()
	if err != nil {
		return nil, 0, errors.Wrap(err, pkg+"decode failed")
	}
	if !ok {
		return nil, 0, errors.Errorf(pkg+"no frame available at %d", target)
	}

	scaled, err := pixel.Scale(frame.RGB, frame.Width, frame.Height, e.format.Width, e.format.Height)
	if err != nil {
		return nil, 0, errors.Wrap(err, pkg+"scale failed")
	}

	out, err := convert(scaled, e.format)
	if err != nil {
		return nil, 0, errors.Wrap(err, pkg+"colorspace conversion failed")
	}

	e.cache.Put(target, out)
	e.frame = target
	return out, target, nil
}

// convert converts a scaled RGB24 frame to the output format's pixel
// layout.
func convert(rgb []byte, f format.VideoFormat) ([]byte, error) {
	switch f.Layout {
	case format.RGB24:
		return rgb, nil
	case format.YUV422_UYVY:
		return pixel.RGBToUYVY(rgb, f.Width, f.Height)
	case format.YUV420P:
		return pixel.RGBToYUV420P(rgb, f.Width, f.Height)
	default:
		return rgb, nil
	}
}

// Advance moves to the next frame. If already at the last frame, it wraps
// to 0 when loop is enabled, else returns false without moving.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.info == nil {
		return false
	}
	if e.frame < e.info.FrameCount-1 {
		e.frame++
		return true
	}
	if e.loop {
		e.frame = 0
		e.dec.Seek(0)
		return true
	}
	return false
}

// Retreat moves to the previous frame, if not already at frame 0.
func (e *Engine) Retreat() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frame > 0 {
		e.frame--
		return true
	}
	return false
}
