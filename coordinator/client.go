//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

// Package coordinator implements the user-facing DORAM client: it
// splits plaintext values and indices into additive shares, drives
// WRITE and READ against both parties concurrently, and reconstructs
// results.
package coordinator

import (
	"context"
	"io"
	"net"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/oblivious-ram/duoram/ring"
	"github.com/oblivious-ram/duoram/wire"
)

// Client drives the two-party protocol against one deployment: a fixed
// pair of party addresses and a fixed entropy source for share splits.
type Client struct {
	partyA string
	partyB string
	rand   io.Reader
	n      uint32
}

// New creates a Client for an N-row array served by partyA and partyB.
func New(n uint32, partyA, partyB string, rand io.Reader) *Client {
	return &Client{n: n, partyA: partyA, partyB: partyB, rand: rand}
}

// splitScalar draws a uniform additive share of v and returns (share,
// v-share): the caller's two halves.
func splitScalar(rand io.Reader, v ring.Element) (ring.Element, ring.Element, error) {
	var buf [4]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return 0, 0, xerrors.Errorf("draw random share: %w", err)
	}
	shareA := ring.FromUint32(uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3]))
	shareB := v.Sub(shareA)
	return shareA, shareB, nil
}

// SplitBasis draws additive shares of the standard basis vector e_idx
// (length n, a 1 at idx and 0 elsewhere), one half per party.
func SplitBasis(rand io.Reader, n, idx uint32) ([]ring.Element, []ring.Element, error) {
	if idx >= n {
		return nil, nil, xerrors.New("coordinator: index out of range")
	}
	a := make([]ring.Element, n)
	b := make([]ring.Element, n)
	for i := uint32(0); i < n; i++ {
		v := ring.Zero
		if i == idx {
			v = ring.FromUint32(1)
		}
		shareA, shareB, err := splitScalar(rand, v)
		if err != nil {
			return nil, nil, err
		}
		a[i] = shareA
		b[i] = shareB
	}
	return a, b, nil
}

// writeVec sends one OP_WRITE_VEC request to addr and waits for its
// two-byte "OK" acknowledgement.
func writeVec(addr string, share []ring.Element) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return xerrors.Errorf("dial %s: %w", addr, err)
	}
	c := wire.NewConn(conn)
	defer c.Close()

	if err := c.SendByte(wire.OpWriteVec); err != nil {
		return err
	}
	if err := c.SendUint32(uint32(len(share))); err != nil {
		return err
	}
	if err := c.SendVector(share); err != nil {
		return err
	}
	if err := c.Flush(); err != nil {
		return err
	}

	ok0, err := c.ReceiveByte()
	if err != nil {
		return xerrors.Errorf("receive ack: %w", err)
	}
	ok1, err := c.ReceiveByte()
	if err != nil {
		return xerrors.Errorf("receive ack: %w", err)
	}
	if ok0 != 'O' || ok1 != 'K' {
		return xerrors.New("coordinator: unexpected write acknowledgement")
	}
	return nil
}

// readSecure sends one OP_READ_SECURE request to addr and returns the
// party's output share.
func readSecure(addr string, eShare []ring.Element) (ring.Element, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return 0, xerrors.Errorf("dial %s: %w", addr, err)
	}
	c := wire.NewConn(conn)
	defer c.Close()

	if err := c.SendByte(wire.OpReadSecure); err != nil {
		return 0, err
	}
	if err := c.SendUint32(uint32(len(eShare))); err != nil {
		return 0, err
	}
	if err := c.SendVector(eShare); err != nil {
		return 0, err
	}
	if err := c.Flush(); err != nil {
		return 0, err
	}

	raw, err := c.ReceiveUint32()
	if err != nil {
		return 0, xerrors.Errorf("receive share: %w", err)
	}
	return ring.FromUint32(raw), nil
}

// Write splits v*e_idx into additive shares and pushes one half to each
// party concurrently, per the write protocol in spec section 4.5.
func (cl *Client) Write(ctx context.Context, idx uint32, v ring.Element) error {
	basisA, basisB, err := SplitBasis(cl.rand, cl.n, idx)
	if err != nil {
		return err
	}
	valA, valB, err := splitScalar(cl.rand, v)
	if err != nil {
		return err
	}
	shareA := scaleBasis(basisA, valA, idx)
	shareB := scaleBasis(basisB, valB, idx)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return writeVec(cl.partyA, shareA) })
	g.Go(func() error { return writeVec(cl.partyB, shareB) })
	return g.Wait()
}

// scaleBasis returns a copy of basis with its 1-entry at idx replaced
// by this party's share of v, so that the two parties' vectors sum to
// v*e_idx rather than e_idx.
func scaleBasis(basis []ring.Element, valShare ring.Element, idx uint32) []ring.Element {
	out := make([]ring.Element, len(basis))
	copy(out, basis)
	out[idx] = valShare
	return out
}

// Read splits e_idx into additive shares, queries both parties
// concurrently, and reconstructs A[idx] from their two output shares,
// per spec section 4.5.
func (cl *Client) Read(ctx context.Context, idx uint32) (ring.Element, error) {
	eA, eB, err := SplitBasis(cl.rand, cl.n, idx)
	if err != nil {
		return 0, err
	}

	var sA, sB ring.Element
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sA, err = readSecure(cl.partyA, eA)
		return err
	})
	g.Go(func() error {
		var err error
		sB, err = readSecure(cl.partyB, eB)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return sA.Add(sB), nil
}
