//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

// Package ring implements arithmetic over Z/2^31, the additive-sharing
// domain used by the DORAM protocol: addition, negation, multiplication,
// and inverse of odd elements.
package ring

import "errors"

// Bits is the width of the ring modulus, 2^Bits.
const Bits = 31

// mod is the ring modulus, 2^31.
const mod = uint32(1) << Bits

// mask clears every bit above the 31 low bits.
const mask = mod - 1

// ErrEven is returned by Inverse when the operand has no multiplicative
// inverse modulo 2^31.
var ErrEven = errors.New("ring: no inverse for even element")

// Element is a ring element in [0, 2^31), the additive-sharing domain
// for the DORAM. Every wire word carrying an Element has its top bit
// zero.
type Element uint32

// Zero is the additive identity.
const Zero Element = 0

// FromUint32 masks v to 31 bits.
func FromUint32(v uint32) Element {
	return Element(v & mask)
}

// FromInt32 masks v to 31 bits, wrapping negative values into the ring.
func FromInt32(v int32) Element {
	return Element(uint32(v) & mask)
}

// Uint32 returns the element's raw 32-bit word, top bit always zero.
func (e Element) Uint32() uint32 {
	return uint32(e) & mask
}

// Add returns e+other mod 2^31.
func (e Element) Add(other Element) Element {
	return Element((uint32(e) + uint32(other)) & mask)
}

// Sub returns e-other mod 2^31.
func (e Element) Sub(other Element) Element {
	return Element((uint32(e) - uint32(other)) & mask)
}

// Neg returns -e mod 2^31: 2^31-e when e != 0, else 0.
func (e Element) Neg() Element {
	if e == 0 {
		return 0
	}
	return Element((mod - uint32(e)) & mask)
}

// Mul returns e*other mod 2^31, computed via the full 64-bit product.
func (e Element) Mul(other Element) Element {
	return Element(uint32((uint64(e) * uint64(other)) & uint64(mask)))
}

// IsOdd reports whether e is odd, i.e. a unit in Z/2^31.
func (e Element) IsOdd() bool {
	return e&1 == 1
}

// Inverse returns the multiplicative inverse of e modulo 2^31, defined
// only for odd e. It is computed by Hensel/Newton lifting: five
// doublings of the one-bit seed x=1 via x <- x*(2-e*x) mod 2^31, each
// doubling the number of correct low bits (1 -> 2 -> 4 -> 8 -> 16 -> 32,
// truncated to 31).
func (e Element) Inverse() (Element, error) {
	if !e.IsOdd() {
		return 0, ErrEven
	}
	x := uint64(1)
	ev := uint64(e)
	for i := 0; i < 5; i++ {
		ax := (ev * x) & uint64(mask)
		twoMinus := (2 + uint64(mod) - ax) & uint64(mask)
		x = (x * twoMinus) & uint64(mask)
	}
	return Element(uint32(x)), nil
}

// Div returns e/other mod 2^31; other must be odd.
func (e Element) Div(other Element) (Element, error) {
	inv, err := other.Inverse()
	if err != nil {
		return 0, err
	}
	return e.Mul(inv), nil
}

// DotProduct returns the sum of component-wise products of a and b,
// which must share length.
func DotProduct(a, b []Element) (Element, error) {
	if len(a) != len(b) {
		return 0, ErrLengthMismatch
	}
	acc := Zero
	for i := range a {
		acc = acc.Add(a[i].Mul(b[i]))
	}
	return acc, nil
}

// AddVectors returns the component-wise sum of a and b, which must
// share length.
func AddVectors(a, b []Element) ([]Element, error) {
	if len(a) != len(b) {
		return nil, ErrLengthMismatch
	}
	out := make([]Element, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out, nil
}

// ErrLengthMismatch is returned by vector operations whose operands do
// not share a length.
var ErrLengthMismatch = errors.New("ring: vector length mismatch")
