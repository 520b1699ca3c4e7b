//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package party

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oblivious-ram/duoram/dealer"
	"github.com/oblivious-ram/duoram/ring"
	"github.com/oblivious-ram/duoram/session"
	"github.com/oblivious-ram/duoram/wire"
)

// harness wires up one dealer and two parties (A and B) over loopback
// TCP, mirroring the deployment in spec section 6.
type harness struct {
	dealerAddr string
	userA      string
	userB      string
}

func startHarness(t *testing.T, n uint32) *harness {
	t.Helper()

	dealerLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dsrv := dealer.NewServer(dealerLn, nil)
	go func() { _ = dsrv.Serve() }()
	t.Cleanup(func() { _ = dealerLn.Close() })

	userLnA, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	residualLnA, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	userLnB, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	residualLnB, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	pa := New(RoleA, n, dealerLn.Addr().String(), residualLnB.Addr().String(), nil, false)
	pb := New(RoleB, n, dealerLn.Addr().String(), residualLnA.Addr().String(), nil, false)

	go func() { _ = pa.Serve(userLnA, residualLnA) }()
	go func() { _ = pb.Serve(userLnB, residualLnB) }()

	t.Cleanup(func() {
		_ = userLnA.Close()
		_ = residualLnA.Close()
		_ = userLnB.Close()
		_ = residualLnB.Close()
	})

	return &harness{
		dealerAddr: dealerLn.Addr().String(),
		userA:      userLnA.Addr().String(),
		userB:      userLnB.Addr().String(),
	}
}

func doWrite(t *testing.T, addr string, share []ring.Element) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	c := wire.NewConn(conn)
	require.NoError(t, c.SendByte(wire.OpWriteVec))
	require.NoError(t, c.SendUint32(uint32(len(share))))
	require.NoError(t, c.SendVector(share))
	require.NoError(t, c.Flush())

	ok0, err := c.ReceiveByte()
	require.NoError(t, err)
	ok1, err := c.ReceiveByte()
	require.NoError(t, err)
	require.Equal(t, byte('O'), ok0)
	require.Equal(t, byte('K'), ok1)
}

func doRead(t *testing.T, addr string, eShare []ring.Element) ring.Element {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	c := wire.NewConn(conn)
	require.NoError(t, c.SendByte(wire.OpReadSecure))
	require.NoError(t, c.SendUint32(uint32(len(eShare))))
	require.NoError(t, c.SendVector(eShare))
	require.NoError(t, c.Flush())

	raw, err := c.ReceiveUint32()
	require.NoError(t, err)
	return ring.FromUint32(raw)
}

// splitShares returns two additive shares of v, each of length n, with
// v placed at idx.
func splitShares(t *testing.T, n, idx uint32, v ring.Element) ([]ring.Element, []ring.Element) {
	t.Helper()
	a := make([]ring.Element, n)
	b := make([]ring.Element, n)
	for i := range a {
		a[i] = ring.FromUint32(uint32(7*i + 3))
		b[i] = a[i].Neg()
	}
	b[idx] = b[idx].Add(v)
	return a, b
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	const n = 8
	h := startHarness(t, n)

	value := ring.FromUint32(424242)
	const idx = 3

	shareA, shareB := splitShares(t, n, idx, value)
	doWrite(t, h.userA, shareA)
	doWrite(t, h.userB, shareB)

	eA, eB := splitShares(t, n, idx, ring.FromUint32(1))

	resultA := make(chan ring.Element, 1)
	resultB := make(chan ring.Element, 1)
	go func() { resultA <- doRead(t, h.userA, eA) }()
	go func() { resultB <- doRead(t, h.userB, eB) }()

	sA := <-resultA
	sB := <-resultB

	require.Equal(t, value, sA.Add(sB))
}

func TestReadOfUntouchedRowIsZero(t *testing.T) {
	const n = 4
	h := startHarness(t, n)

	eA, eB := splitShares(t, n, 2, ring.FromUint32(1))

	resultA := make(chan ring.Element, 1)
	resultB := make(chan ring.Element, 1)
	go func() { resultA <- doRead(t, h.userA, eA) }()
	go func() { resultB <- doRead(t, h.userB, eB) }()

	sA := <-resultA
	sB := <-resultB
	require.Equal(t, ring.Zero, sA.Add(sB))
}

func TestConcurrentReadsGetDistinctSessions(t *testing.T) {
	const n = 6
	h := startHarness(t, n)

	value := ring.FromUint32(99)
	shareA, shareB := splitShares(t, n, 1, value)
	doWrite(t, h.userA, shareA)
	doWrite(t, h.userB, shareB)

	eA, eB := splitShares(t, n, 1, ring.FromUint32(1))

	const rounds = 4
	type pair struct{ a, b ring.Element }
	results := make(chan pair, rounds)
	for i := 0; i < rounds; i++ {
		go func() {
			resultA := make(chan ring.Element, 1)
			resultB := make(chan ring.Element, 1)
			go func() { resultA <- doRead(t, h.userA, eA) }()
			go func() { resultB <- doRead(t, h.userB, eB) }()
			results <- pair{<-resultA, <-resultB}
		}()
	}
	for i := 0; i < rounds; i++ {
		r := <-results
		require.Equal(t, value, r.a.Add(r.b))
	}
}

// TestResidualHeaderMismatchAbortsSession drives spec section 8's
// invariant 8: a residual delivered under the registered sid but with
// the wrong tag must be rejected by receiveResidual's header check
// rather than accepted as the awaited message.
func TestResidualHeaderMismatchAbortsSession(t *testing.T) {
	const n = 4

	residualLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = residualLn.Close() })

	pb := New(RoleB, n, "127.0.0.1:0", "127.0.0.1:0", nil, false)
	go func() { _ = pb.serveResidual(residualLn) }()

	sid := session.New(n)
	inbox, err := pb.registry.Register(sid)
	require.NoError(t, err)
	defer pb.registry.Unregister(sid)

	conn, err := net.Dial("tcp", residualLn.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	c := wire.NewConn(conn)
	vec := make([]ring.Element, n)
	require.NoError(t, c.SendUint64(uint64(sid)))
	require.NoError(t, c.SendByte(wire.TagCrossBA)) // session below expects TagCrossAB
	require.NoError(t, c.SendUint32(n))
	require.NoError(t, c.SendVector(vec))
	require.NoError(t, c.Flush())

	_, err = receiveResidual(inbox, sid, wire.TagCrossAB, n)
	require.ErrorIs(t, err, ErrHeaderMismatch)
}

// TestWriteDimMismatchRejected drives spec section 8's invariant 8 for
// WRITE: a request naming a dimension other than the store's row count
// must be rejected without touching the store, and the connection
// closed without an acknowledgement.
func TestWriteDimMismatchRejected(t *testing.T) {
	const n = 4
	h := startHarness(t, n)

	conn, err := net.Dial("tcp", h.userA)
	require.NoError(t, err)
	defer conn.Close()

	c := wire.NewConn(conn)
	badVec := make([]ring.Element, n+1)
	require.NoError(t, c.SendByte(wire.OpWriteVec))
	require.NoError(t, c.SendUint32(uint32(len(badVec))))
	require.NoError(t, c.SendVector(badVec))
	require.NoError(t, c.Flush())

	_, err = c.ReceiveByte()
	require.Error(t, err, "party must close the connection instead of acknowledging a dim mismatch")

	eA, eB := splitShares(t, n, 0, ring.FromUint32(1))
	resultA := make(chan ring.Element, 1)
	resultB := make(chan ring.Element, 1)
	go func() { resultA <- doRead(t, h.userA, eA) }()
	go func() { resultB <- doRead(t, h.userB, eB) }()
	require.Equal(t, ring.Zero, (<-resultA).Add(<-resultB))
}

// TestReadDimMismatchRejected drives spec section 8's scenario 6 for
// READ: a request naming a dimension other than the store's row count
// must be rejected, the connection closed without a share, and the
// store left unchanged.
func TestReadDimMismatchRejected(t *testing.T) {
	const n = 4
	h := startHarness(t, n)

	conn, err := net.Dial("tcp", h.userA)
	require.NoError(t, err)
	defer conn.Close()

	c := wire.NewConn(conn)
	badEShare := make([]ring.Element, n+1)
	require.NoError(t, c.SendByte(wire.OpReadSecure))
	require.NoError(t, c.SendUint32(uint32(len(badEShare))))
	require.NoError(t, c.SendVector(badEShare))
	require.NoError(t, c.Flush())

	_, err = c.ReceiveUint32()
	require.Error(t, err, "party must close the connection instead of returning a share for a dim mismatch")

	eA, eB := splitShares(t, n, 0, ring.FromUint32(1))
	resultA := make(chan ring.Element, 1)
	resultB := make(chan ring.Element, 1)
	go func() { resultA <- doRead(t, h.userA, eA) }()
	go func() { resultB <- doRead(t, h.userB, eB) }()
	require.Equal(t, ring.Zero, (<-resultA).Add(<-resultB))
}
