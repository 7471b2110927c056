/*
DESCRIPTION
  vts-client is a diagnostic test client for vtsd: it connects, loads a
  video file, and captures a run of frames to PNG files, exercising the
  FORMAT, LOAD, STATUS, GETFRAME and BYE commands end to end.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements vts-client, a diagnostic frame-capture client
// for the VTS daemon.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vts/protocol/vts"
)

const pkg = "vts-client: "

func main() {
	host := flag.String("host", "localhost", "daemon host")
	port := flag.Int("port", 5400, "daemon port")
	frames := flag.Int("frames", 10, "number of frames to capture")
	start := flag.Int("start", 0, "starting frame number")
	output := flag.String("output", "frame_%04d.png", "output filename pattern")
	videoFormat := flag.String("format", "ntsc", "video format: ntsc or pal")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vts-client [flags] <video-file>")
		os.Exit(2)
	}
	videoFile := flag.Arg(0)

	level := logging.Info
	if *verbose {
		level = logging.Debug
	}
	l := logging.New(level, os.Stderr, true)

	if err := run(l, *host, *port, videoFile, *videoFormat, *start, *frames, *output); err != nil {
		l.Error(pkg+"failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(l logging.Logger, host string, port int, videoFile, videoFormat string, start, count int, outputPattern string) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	l.Info(pkg+"connecting", "addr", addr)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf(pkg+"dial failed: %w", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)

	hello, err := recvLine(r)
	if err != nil {
		return err
	}
	l.Info(pkg+"server", "banner", hello)

	std := strings.ToUpper(videoFormat)
	if err := sendLine(conn, "FORMAT "+std+" RGB24"); err != nil {
		return err
	}
	resp, err := recvLine(r)
	if err != nil {
		return err
	}
	l.Info(pkg+"format", "response", resp)

	if err := sendLine(conn, "LOAD "+videoFile); err != nil {
		return err
	}
	resp, err = recvLine(r)
	if err != nil {
		return err
	}
	l.Info(pkg+"load", "response", resp)
	if !strings.HasPrefix(resp, "OK") {
		return fmt.Errorf(pkg+"failed to load file: %s", resp)
	}

	if err := sendLine(conn, "STATUS"); err != nil {
		return err
	}
	resp, err = recvLine(r)
	if err != nil {
		return err
	}
	l.Info(pkg+"status", "response", resp)

	l.Info(pkg+"capturing frames", "count", count, "start", start)
	for i := 0; i < count; i++ {
		n := start + i
		if err := sendLine(conn, "GETFRAME "+strconv.Itoa(n)); err != nil {
			return err
		}
		resp, err := recvLine(r)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(resp, "OK FRAMEDATA") {
			l.Error(pkg+"frame failed", "frame", n, "response", resp)
			continue
		}

		fields := strings.Fields(resp)
		size, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			return fmt.Errorf(pkg+"could not parse frame size from %q: %w", resp, err)
		}

		headerBytes := make([]byte, vts.HeaderSize)
		if _, err := io.ReadFull(r, headerBytes); err != nil {
			return fmt.Errorf(pkg+"reading frame header: %w", err)
		}
		header, err := vts.UnpackFrameHeader(headerBytes)
		if err != nil {
			return err
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf(pkg+"reading frame payload: %w", err)
		}

		name := fmt.Sprintf(outputPattern, n)
		if err := savePNG(name, payload, int(header.Width), int(header.Height)); err != nil {
			return fmt.Errorf(pkg+"saving %s: %w", name, err)
		}
		l.Info(pkg+"saved", "file", name, "width", header.Width, "height", header.Height)
	}

	if err := sendLine(conn, "BYE"); err != nil {
		return err
	}
	resp, err = recvLine(r)
	if err != nil {
		return err
	}
	l.Debug(pkg+"bye", "response", resp)

	l.Info(pkg + "done")
	return nil
}

// savePNG writes rgb (packed RGB24, w*h*3 bytes) as a PNG file.
func savePNG(path string, rgb []byte, w, h int) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			o := img.PixOffset(x, y)
			img.Pix[o+0] = rgb[i+0]
			img.Pix[o+1] = rgb[i+1]
			img.Pix[o+2] = rgb[i+2]
			img.Pix[o+3] = 0xff
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func sendLine(conn net.Conn, s string) error {
	_, err := conn.Write([]byte(s + "\n"))
	return err
}

func recvLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\n"), nil
}
