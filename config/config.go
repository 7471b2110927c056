/*
DESCRIPTION
  config.go defines Config, the VTS daemon's runtime parameters, in the
  teacher's plain-struct-with-defaults style.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config provides the configuration settings for the VTS daemon.
package config

import (
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/vts/format"
)

// Default values for Config fields left unset by a caller.
const (
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 5400
	DefaultCacheSize  = 30
	DefaultLogMaxSize = 100 // MB
	DefaultLogMaxAge  = 28  // days
	DefaultLogBackups = 10
)

// Config holds the parameters of a vtsd instance. cmd/vtsd populates it
// from flags whose defaults are the constants above. A zero CacheSize
// selects the frame cache's default of 30; other zero-value fields are used
// as they are.
type Config struct {
	// Host is the address the server listens on.
	Host string

	// Port is the TCP port the server listens on.
	Port int

	// Standard is the initial output video standard.
	Standard format.VideoStandard

	// Layout is the initial output pixel layout.
	Layout format.PixelLayout

	// MediaRoot is the directory relative LOAD/LIST paths resolve against.
	// Empty means relative paths are used as given.
	MediaRoot string

	// CacheSize bounds the Source Engine's decoded-frame LRU cache.
	CacheSize int

	// Verbose raises the daemon's log verbosity to Debug.
	Verbose bool

	// LogFile, if set, rotates daemon logs through this path in addition
	// to stderr.
	LogFile string

	// NoReuseAddr disables the SO_REUSEADDR socket option on the listener.
	NoReuseAddr bool

	// Logger is the structured logger used throughout the daemon.
	Logger logging.Logger
}

// LogInvalidField logs that a configured value for name was invalid and
// that def is being used instead.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// OutputFormat returns the VideoFormat implied by Standard and Layout.
func (c *Config) OutputFormat() format.VideoFormat {
	return format.New(c.Standard, c.Layout)
}
