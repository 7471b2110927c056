/*
DESCRIPTION
  vtsd is the VTS daemon: it serves decoded, standardized video frames to
  TCP clients over the VTSource control protocol.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vtsd is the VTS daemon entry point.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vts/config"
	"github.com/ausocean/vts/format"
	"github.com/ausocean/vts/server"
)

const pkg = "vtsd: "

func main() {
	host := flag.String("host", config.DefaultHost, "address to listen on")
	port := flag.Int("port", config.DefaultPort, "TCP port to listen on")
	std := flag.String("format", "ntsc", "output video standard: ntsc or pal")
	layout := flag.String("colorspace", "rgb24", "output pixel layout: rgb24, yuv422 or yuv420p")
	media := flag.String("media", "", "media root directory for relative LOAD/LIST paths")
	verbose := flag.Bool("v", false, "enable verbose (debug) logging")
	verboseLong := flag.Bool("verbose", false, "enable verbose (debug) logging")
	logFile := flag.String("log-file", "", "rotate daemon logs through this file, in addition to stderr")
	noReuseAddr := flag.Bool("no-reuseaddr", false, "disable SO_REUSEADDR on the listening socket")
	flag.Parse()

	var w io.Writer = os.Stderr
	if *logFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    config.DefaultLogMaxSize,
			MaxAge:     config.DefaultLogMaxAge,
			MaxBackups: config.DefaultLogBackups,
		})
	}

	level := logging.Info
	if *verbose || *verboseLong {
		level = logging.Debug
	}
	l := logging.New(level, w, true)

	standard, ok := format.ParseVideoStandard(strings.ToUpper(*std))
	if !ok {
		l.Info(pkg+"unrecognised format, defaulting to ntsc", "format", *std)
		standard = format.NTSC
	}
	pix, ok := format.ParsePixelLayout(normalizeLayout(*layout))
	if !ok {
		l.Info(pkg+"unrecognised colorspace, defaulting to rgb24", "colorspace", *layout)
		pix = format.RGB24
	}

	cfg := &config.Config{
		Host:        *host,
		Port:        *port,
		Standard:    standard,
		Layout:      pix,
		MediaRoot:   *media,
		CacheSize:   config.DefaultCacheSize,
		Verbose:     *verbose || *verboseLong,
		LogFile:     *logFile,
		NoReuseAddr: *noReuseAddr,
		Logger:      l,
	}

	s := server.New(cfg)
	s.OnReady = func() { notifyReady(l) }

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		l.Info(pkg + "shutdown signal received")
		cancel()
	}()

	if err := s.ListenAndServe(ctx); err != nil {
		l.Error(pkg+"server exited with error", "error", err.Error())
		s.Close()
		os.Exit(1)
	}

	s.Close()
	l.Info(pkg + "shutdown complete")
}

// notifyReady tells a systemd unit with Type=notify that vtsd is ready. It
// is a no-op when not running under systemd.
func notifyReady(l logging.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		l.Warning(pkg+"systemd notify failed", "error", err.Error())
		return
	}
	if sent {
		l.Info(pkg + "systemd readiness notification sent")
	}
}

func normalizeLayout(s string) string {
	switch strings.ToUpper(s) {
	case "RGB24":
		return "RGB24"
	case "YUV422", "YUV422_UYVY", "UYVY":
		return "YUV422"
	case "YUV420P", "YUV420":
		return "YUV420P"
	default:
		return strings.ToUpper(s)
	}
}
