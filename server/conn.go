/*
DESCRIPTION
  conn.go implements per-connection handling for the VTS server: the
  HELLO banner, the read/dispatch/respond loop, and the command table
  described in the protocol specification.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package server

import (
	"bufio"
	"io"
	"math"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ausocean/vts/format"
	"github.com/ausocean/vts/protocol/vts"
	"github.com/ausocean/vts/source"
)

// conn holds the per-connection state needed to dispatch commands against
// the shared Server.
type conn struct {
	s    *Server
	nc   net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	done bool
}

func (s *Server) serveConn(nc net.Conn) {
	defer nc.Close()

	c := &conn{
		s:  s,
		nc: nc,
		r:  bufio.NewReader(nc),
		w:  bufio.NewWriter(nc),
	}

	s.log.Info(pkg+"connection opened", "remote", nc.RemoteAddr().String())
	defer s.log.Info(pkg+"connection closed", "remote", nc.RemoteAddr().String())

	if err := c.writeLine("OK HELLO VTSource " + Version); err != nil {
		return
	}

	for !c.done {
		line, err := c.r.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				s.log.Warning(pkg+"read failed", "remote", nc.RemoteAddr().String(), "error", err.Error())
			}
			return
		}

		if !utf8.ValidString(line) {
			c.writeLine(vts.FormatError(vts.InvalidArgument, "Malformed input"))
			continue
		}

		c.handle(line)
		if c.w.Flush() != nil {
			return
		}
	}
}

// handle dispatches a single command line, recovering from any panic in
// the handler so that one misbehaving command never takes down the
// connection's goroutine or the daemon.
func (c *conn) handle(line string) {
	defer func() {
		if r := recover(); r != nil {
			c.s.log.Error(pkg+"panic recovered", "recovered", r)
			c.writeLine(vts.FormatError(vts.InternalError, "Internal error"))
		}
	}()

	cmd, args := vts.ParseCommand(line)
	if cmd == "" {
		return
	}

	switch cmd {
	case "BYE":
		c.writeLine("OK BYE")
		c.done = true
	case "LIST":
		c.cmdList(args)
	case "LOAD":
		c.cmdLoad(args)
	case "PLAY":
		c.cmdPlay()
	case "PAUSE":
		c.cmdPause()
	case "STOP":
		c.cmdStop()
	case "SEEK":
		c.cmdSeek(args)
	case "NEXT":
		c.cmdNext()
	case "PREV":
		c.cmdPrev()
	case "GETFRAME":
		c.cmdGetFrame(args)
	case "STATUS":
		c.cmdStatus()
	case "INFO":
		c.cmdInfo()
	case "SOURCE":
		c.cmdSource()
	case "FRAMEINFO":
		c.cmdFrameInfo(args)
	case "LOOP":
		c.cmdLoop(args)
	case "FORMAT":
		c.cmdFormat(args)
	default:
		c.writeLine(vts.FormatError(vts.UnknownCommand, "Unknown command"))
	}
}

func (c *conn) writeLine(s string) error {
	_, err := c.w.WriteString(s + "\n")
	return err
}

// resolvePath joins a relative path against the configured media root, if
// any; absolute paths and an unconfigured root pass through unchanged.
func (c *conn) resolvePath(p string) string {
	root := c.s.cfg.MediaRoot
	if root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func (c *conn) cmdList(args []string) {
	dir := c.s.cfg.MediaRoot
	if len(args) > 0 {
		dir = c.resolvePath(args[0])
	}
	if dir == "" {
		dir = "."
	}

	names, err := c.s.lister.List(dir)
	if err != nil {
		c.writeLine(vts.FormatError(vts.FileNotFound, "Directory not found"))
		return
	}

	c.w.WriteString("OK LIST " + strconv.Itoa(len(names)) + "\n")
	for _, n := range names {
		c.w.WriteString(n + "\n")
	}
}

func (c *conn) cmdLoad(args []string) {
	if len(args) == 0 {
		c.writeLine(vts.FormatError(vts.InvalidArgument, "Missing path"))
		return
	}
	path := c.resolvePath(strings.Join(args, " "))

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			c.writeLine(vts.FormatError(vts.FileNotFound, "File not found"))
			return
		}
		c.writeLine(vts.FormatError(vts.InternalError, "Could not stat file"))
		return
	}

	total, err := c.s.engine.Load(path)
	if err != nil {
		c.s.log.Error(pkg+"load failed", "path", path, "error", err.Error())
		c.writeLine(vts.FormatError(vts.InternalError, "Could not open source"))
		return
	}
	c.writeLine("OK LOADED " + strconv.Itoa(total))
}

func (c *conn) cmdPlay() {
	if !c.s.engine.IsLoaded() {
		c.writeLine(vts.FormatError(vts.NotLoaded, "No source loaded"))
		return
	}
	c.s.engine.SetState(source.Playing)
	c.writeLine("OK PLAYING")
}

func (c *conn) cmdPause() {
	c.s.engine.SetState(source.Paused)
	c.writeLine("OK PAUSED")
}

func (c *conn) cmdStop() {
	c.s.engine.SetState(source.Stopped)
	if c.s.engine.IsLoaded() {
		c.s.engine.Seek(0)
	}
	c.writeLine("OK STOPPED")
}

func (c *conn) cmdSeek(args []string) {
	if len(args) == 0 {
		c.writeLine(vts.FormatError(vts.InvalidArgument, "Missing seek target"))
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		c.writeLine(vts.FormatError(vts.InvalidArgument, "Non-integer seek target"))
		return
	}
	got, err := c.s.engine.Seek(n)
	if err != nil {
		c.writeLine(vts.FormatError(vts.InternalError, "Seek failed"))
		return
	}
	c.writeLine("OK SEEKED " + strconv.Itoa(got))
}

func (c *conn) cmdNext() {
	if c.s.engine.Advance() {
		c.writeLine("OK FRAME " + strconv.Itoa(c.s.engine.CurrentFrame()))
		return
	}
	c.writeLine("OK END")
}

func (c *conn) cmdPrev() {
	if c.s.engine.Retreat() {
		c.writeLine("OK FRAME " + strconv.Itoa(c.s.engine.CurrentFrame()))
		return
	}
	c.writeLine("OK START")
}

func (c *conn) cmdGetFrame(args []string) {
	var n *int
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			c.writeLine(vts.FormatError(vts.InvalidArgument, "Non-integer frame number"))
			return
		}
		n = &v
	}

	data, frameNum, err := c.s.engine.GetFrame(n)
	if err != nil {
		c.s.log.Error(pkg+"decode failed", "error", err.Error())
		c.writeLine(vts.FormatError(vts.InternalError, "Decode failed"))
		return
	}

	h := buildHeader(frameNum, c.s.engine.TotalFrames(), c.s.engine.OutputFormat())

	c.w.WriteString("OK FRAMEDATA " + strconv.Itoa(len(data)) + "\n")
	c.w.Write(h.Pack())
	c.w.Write(data)
}

func (c *conn) cmdStatus() {
	c.writeLine("OK " + vts.FormatStatus(c.s.engine.State().String(), c.s.engine.CurrentFrame(), c.s.engine.TotalFrames()))
}

func (c *conn) cmdInfo() {
	info := c.s.engine.Info()
	if info == nil {
		c.writeLine("OK INFO none")
		return
	}
	c.writeLine("OK INFO " + strconv.Itoa(info.Width) + "x" + strconv.Itoa(info.Height) +
		" " + strconv.FormatFloat(info.FrameRate, 'f', 2, 64) + "fps " + info.Codec +
		" " + strconv.Itoa(info.FrameCount) + " frames " + strconv.FormatFloat(info.DurationSeconds, 'f', 2, 64) + "s")
}

func (c *conn) cmdSource() {
	info := c.s.engine.Info()
	if info == nil {
		c.writeLine("OK SOURCE NONE")
		return
	}
	c.writeLine("OK SOURCE \"" + info.Path + "\" " + strconv.Itoa(info.FrameCount) +
		" " + strconv.Itoa(info.Width) + "x" + strconv.Itoa(info.Height) +
		" " + strconv.FormatFloat(info.FrameRate, 'f', 2, 64) + " " + info.Codec)
}

func (c *conn) cmdFrameInfo(args []string) {
	if !c.s.engine.IsLoaded() {
		c.writeLine(vts.FormatError(vts.NotLoaded, "No source loaded"))
		return
	}

	n := c.s.engine.CurrentFrame()
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			c.writeLine(vts.FormatError(vts.InvalidArgument, "Non-integer frame number"))
			return
		}
		n = v
	}

	total := c.s.engine.TotalFrames()
	if n < 0 || n >= total {
		c.writeLine(vts.FormatError(vts.InvalidArgument, "Frame out of range"))
		return
	}

	h := buildHeader(n, total, c.s.engine.OutputFormat())
	c.writeLine("OK FRAMEINFO " + strconv.Itoa(int(h.Sequence)) + " " + strconv.Itoa(int(h.TimestampMs)) +
		" " + strconv.Itoa(int(h.Width)) + " " + strconv.Itoa(int(h.Height)) +
		" " + strconv.Itoa(int(h.Colorspace)) + " " + strconv.Itoa(int(h.Flags)))
}

func (c *conn) cmdLoop(args []string) {
	if len(args) == 0 {
		c.writeLine("OK LOOP " + loopToken(c.s.engine.Loop()))
		return
	}
	v, ok := vts.ParseBool(strings.ToUpper(args[0]))
	if !ok {
		c.writeLine(vts.FormatError(vts.InvalidArgument, "Invalid loop value"))
		return
	}
	c.s.engine.SetLoop(v)
	c.writeLine("OK LOOP " + loopToken(v))
}

func loopToken(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func (c *conn) cmdFormat(args []string) {
	cur := c.s.engine.OutputFormat()
	std := cur.Standard
	layout := cur.Layout

	if len(args) > 0 {
		s, ok := format.ParseVideoStandard(strings.ToUpper(args[0]))
		if !ok {
			c.writeLine(vts.FormatError(vts.InvalidArgument, "Unknown video standard"))
			return
		}
		std = s
	}
	if len(args) > 1 {
		l, ok := format.ParsePixelLayout(strings.ToUpper(args[1]))
		if !ok {
			c.writeLine(vts.FormatError(vts.InvalidArgument, "Unknown pixel layout"))
			return
		}
		layout = l
	}

	next := format.New(std, layout)
	c.s.engine.SetOutputFormat(next)
	c.writeLine("OK FORMAT " + next.Standard.String() + " " + next.Layout.String())
}

// buildHeader constructs the wire FrameHeader for frame n of a source with
// the given total frame count, in output format f. KEYFRAME is set only
// for frame 0; END_OF_STREAM only for the last frame.
func buildHeader(n, total int, f format.VideoFormat) vts.FrameHeader {
	var flags uint8
	if n == 0 {
		flags |= vts.FlagKeyframe
	}
	if total > 0 && n == total-1 {
		flags |= vts.FlagEndOfStream
	}
	return vts.FrameHeader{
		Sequence:    uint32(n),
		TimestampMs: uint32(math.Floor(float64(n) * f.FrameDurationMs())),
		Width:       uint16(f.Width),
		Height:      uint16(f.Height),
		Colorspace:  uint8(f.Layout),
		Flags:       flags,
	}
}
