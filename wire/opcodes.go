//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package wire

import "errors"

// Opcodes shared by the dealer and party wire protocols (spec section 6).
const (
	OpRequest    byte = 0x31 // client -> dealer: request a triple for dim
	OpResponse   byte = 0x33 // dealer -> client: triple halves
	OpWriteVec   byte = 0x40 // coordinator -> party: oblivious write
	OpReadSecure byte = 0x41 // coordinator -> party: secure read
)

// Peer-residual exchange tags (spec section 4.4).
const (
	TagCrossAB byte = 0x01
	TagCrossBA byte = 0x10
)

// ErrBadOp is returned when a received opcode is not the one expected.
var ErrBadOp = errors.New("wire: unexpected opcode")

// ErrZeroDim is returned when a request names dimension 0.
var ErrZeroDim = errors.New("wire: dimension must be > 0")

// ErrDimMismatch is returned when a request's dimension does not match
// the previously negotiated size (the store's row count).
var ErrDimMismatch = errors.New("wire: dimension mismatch")
