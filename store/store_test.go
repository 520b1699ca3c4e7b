//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package store

import (
	"testing"

	"github.com/oblivious-ram/duoram/ring"
)

func TestReadWriteRoundTrip(t *testing.T) {
	s := New(4)
	if err := s.Write(2, ring.FromUint32(7)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	v, err := s.Read(2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != ring.FromUint32(7) {
		t.Fatalf("Read(2) = %d, want 7", v)
	}
}

func TestOutOfRange(t *testing.T) {
	s := New(4)
	if _, err := s.Read(4); err != ErrOutOfRange {
		t.Fatalf("Read(4) = %v, want ErrOutOfRange", err)
	}
	if err := s.Write(100, 0); err != ErrOutOfRange {
		t.Fatalf("Write(100) = %v, want ErrOutOfRange", err)
	}
}

func TestObliviousAddIsAdditiveOverlay(t *testing.T) {
	s := New(4)
	delta := []ring.Element{0, 0, ring.FromUint32(7), 0}
	if err := s.ObliviousAdd(delta); err != nil {
		t.Fatalf("ObliviousAdd: %v", err)
	}
	for i, want := range []ring.Element{0, 0, ring.FromUint32(7), 0} {
		got, _ := s.Read(uint32(i))
		if got != want {
			t.Fatalf("row %d = %d, want %d", i, got, want)
		}
	}
}

func TestObliviousAddLengthMismatch(t *testing.T) {
	s := New(4)
	if err := s.ObliviousAdd([]ring.Element{1, 2}); err != ErrLengthMismatch {
		t.Fatalf("ObliviousAdd length mismatch: got %v", err)
	}
}

func TestWriteIdempotenceWithZeroAndOpposite(t *testing.T) {
	s := New(3)
	v := ring.FromUint32(1<<31 - 1)

	delta := []ring.Element{v, 0, 0}
	if err := s.ObliviousAdd(delta); err != nil {
		t.Fatalf("ObliviousAdd v: %v", err)
	}
	if err := s.ObliviousAdd([]ring.Element{ring.FromUint32(1), 0, 0}); err != nil {
		t.Fatalf("ObliviousAdd 1: %v", err)
	}
	got, _ := s.Read(0)
	if got != 0 {
		t.Fatalf("row 0 = %d, want 0 (v + (-v) mod 2^31)", got)
	}

	zero := New(3)
	if err := zero.ObliviousAdd([]ring.Element{0, 0, 0}); err != nil {
		t.Fatalf("ObliviousAdd zero: %v", err)
	}
	for i := uint32(0); i < 3; i++ {
		got, _ := zero.Read(i)
		if got != 0 {
			t.Fatalf("row %d = %d, want 0 after WRITE v=0", i, got)
		}
	}
}
