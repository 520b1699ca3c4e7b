//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

// Package triple implements Du-Atallah correlated-randomness triples:
// the dealer's currency for the party online engine's secure
// inner-product cross terms.
package triple

import (
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20"

	"github.com/oblivious-ram/duoram/ring"
)

// Triple is one party's half of a Du-Atallah triple for a given
// dimension: A and B are that party's shares of the correlated vectors
// a and b, and C is its share of the scalar c = <a, b>.
type Triple struct {
	Dim uint32
	A   []ring.Element
	B   []ring.Element
	C   ring.Element
}

// Generate draws a fresh pair of triples for the given dimension from
// entropy, satisfying the dealer's invariant:
//
//	a = a0 + a1, b = b0 + b1, c0 + c1 = <a, b>
//
// Randomness is drawn by seeding a chacha20 keystream from entropy,
// following the same "seed a stream cipher from a general entropy
// source" idiom used elsewhere in this tree's correlated-randomness
// generation.
func Generate(entropy io.Reader, dim uint32) (Triple, Triple, error) {
	stream, err := newKeystream(entropy)
	if err != nil {
		return Triple{}, Triple{}, err
	}

	a0 := randomVector(stream, dim)
	a1 := randomVector(stream, dim)
	b0 := randomVector(stream, dim)
	b1 := randomVector(stream, dim)

	a, err := ring.AddVectors(a0, a1)
	if err != nil {
		return Triple{}, Triple{}, err
	}
	b, err := ring.AddVectors(b0, b1)
	if err != nil {
		return Triple{}, Triple{}, err
	}
	c, err := ring.DotProduct(a, b)
	if err != nil {
		return Triple{}, Triple{}, err
	}

	c0 := randomElement(stream)
	c1 := c.Sub(c0)

	return Triple{Dim: dim, A: a0, B: b0, C: c0},
		Triple{Dim: dim, A: a1, B: b1, C: c1},
		nil
}

// newKeystream seeds a chacha20 cipher from a fresh key drawn from
// entropy, and returns the cipher, whose keystream supplies uniform
// bytes.
func newKeystream(entropy io.Reader) (*chacha20.Cipher, error) {
	var key [chacha20.KeySize]byte
	if _, err := io.ReadFull(entropy, key[:]); err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20.NonceSize)
	return chacha20.NewUnauthenticatedCipher(key[:], nonce)
}

func randomElement(stream *chacha20.Cipher) ring.Element {
	var zero, word [4]byte
	stream.XORKeyStream(word[:], zero[:])
	return ring.FromUint32(binary.BigEndian.Uint32(word[:]))
}

func randomVector(stream *chacha20.Cipher, dim uint32) []ring.Element {
	out := make([]ring.Element, dim)
	for i := range out {
		out[i] = randomElement(stream)
	}
	return out
}
