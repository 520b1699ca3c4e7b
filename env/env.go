//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

// Package env implements process-wide configuration for the DORAM
// system: the entropy source shared by triple generation and share
// splitting, and the structured logger used by all three roles.
package env

import (
	"crypto/rand"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Config defines the global configuration threaded into the dealer
// server and party constructors (the coordinator client takes its
// entropy source directly). Config must not be modified
// after being passed to any of them; it is safe for concurrent use by
// multiple goroutines since none of them modify it.
type Config struct {
	// Rand is the entropy source for triple generation and share
	// splitting. Nil means crypto/rand.Reader.
	Rand io.Reader

	// Log is the structured logger used for request/response tracing.
	// Nil means a logger writing to stderr at info level.
	Log *zerolog.Logger
}

// GetRandom returns the configured entropy source, defaulting to
// crypto/rand.Reader.
func (config *Config) GetRandom() io.Reader {
	if config != nil && config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// GetLogger returns the configured logger, defaulting to a
// console-friendly stderr logger at info level.
func (config *Config) GetLogger() *zerolog.Logger {
	if config != nil && config.Log != nil {
		return config.Log
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()
	return &l
}
