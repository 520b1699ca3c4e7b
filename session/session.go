//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

// Package session implements READ session identifiers and the registry
// a party uses to route inbound peer-residual messages to the session
// worker waiting for them.
package session

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
	"time"
)

// ID is a 64-bit session identifier, unique within a process and
// distinct across restarts (spec section 9): epoch (wall-clock
// nanoseconds at process start xor OS randomness; no monotonic clock
// reading is used) xor an atomic counter, xor the dimension.
type ID uint64

var (
	epoch   uint64
	counter atomic.Uint64
)

func init() {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failure is unrecoverable process-wide; fall back
		// to the wall clock alone rather than panic at import time.
		epoch = uint64(time.Now().UnixNano())
		return
	}
	epoch = uint64(time.Now().UnixNano()) ^ binary.BigEndian.Uint64(buf[:])
}

// New mints a fresh session id for a READ over the given dimension.
func New(dim uint32) ID {
	c := counter.Add(1)
	return ID(epoch ^ c ^ uint64(dim))
}
