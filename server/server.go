/*
DESCRIPTION
  server.go implements the VTS daemon's TCP listener: socket setup
  (including SO_REUSEADDR tuning) and the accept loop that hands each
  connection to its own session goroutine.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package server implements the VTS control-protocol server: the
// accept loop, per-connection command dispatch, and the single Source
// Engine instance shared by all connections.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vts/config"
	"github.com/ausocean/vts/media"
	"github.com/ausocean/vts/source"
)

const pkg = "server: "

// Version is the VTSource protocol version reported in the HELLO banner.
const Version = "1.0"

// Server is the VTS daemon's TCP server. A single Server owns exactly one
// Source Engine, shared by every connected client.
type Server struct {
	cfg    *config.Config
	engine *source.Engine
	lister *media.Lister
	log    logging.Logger

	mu sync.Mutex
	ln net.Listener

	// OnReady, if set, is called once the listener is bound and before the
	// accept loop starts, so callers can signal readiness (e.g. to
	// systemd) only once the socket is actually up.
	OnReady func()
}

// New returns a Server configured from cfg, with its own Source Engine and
// media Lister.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		engine: source.New(cfg.Logger, cfg.OutputFormat(), cfg.CacheSize),
		lister: media.NewLister(cfg.Logger),
		log:    cfg.Logger,
	}
}

// listen creates the TCP listener, applying SO_REUSEADDR unless disabled
// in the config.
func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if s.cfg.NoReuseAddr {
		return net.Listen("tcp", addr)
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(ctx, "tcp", addr)
}

// ListenAndServe starts the listener and serves connections until ctx is
// cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := s.listen(ctx)
	if err != nil {
		return fmt.Errorf(pkg+"listen failed: %w", err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Info(pkg+"listening", "addr", ln.Addr().String())

	if s.OnReady != nil {
		s.OnReady()
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				wg.Wait()
				return nil
			default:
			}
			s.log.Error(pkg+"accept failed", "error", err.Error())
			wg.Wait()
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(conn)
		}()
	}
}

// Close shuts down the listener and releases the media lister.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	s.lister.Close()
	return s.engine.Close()
}
