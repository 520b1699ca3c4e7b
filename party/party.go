//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

// Package party implements one DORAM party's online engine: it owns one
// additive share of the array and answers WRITE/READ user RPCs,
// pulling fresh Du-Atallah triples from the dealer and exchanging two
// masked residuals with its peer party per READ.
package party

import (
	"errors"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/oblivious-ram/duoram/env"
	"github.com/oblivious-ram/duoram/ring"
	"github.com/oblivious-ram/duoram/session"
	"github.com/oblivious-ram/duoram/stats"
	"github.com/oblivious-ram/duoram/store"
	"github.com/oblivious-ram/duoram/triple"
	"github.com/oblivious-ram/duoram/wire"
)

// Role distinguishes the two party variants: the reconstruction formula
// in a cross term differs by a single <u,v> term, which Role selects,
// rather than by subclassing.
type Role int

const (
	// RoleA is party A.
	RoleA Role = iota
	// RoleB is party B.
	RoleB
)

// String renders the role as "A" or "B".
func (r Role) String() string {
	if r == RoleA {
		return "A"
	}
	return "B"
}

// ErrHeaderMismatch is returned when a peer-residual message's sid, tag,
// or dim does not match what the session expected.
var ErrHeaderMismatch = errors.New("party: peer residual header mismatch")

// Party is one DORAM party's online engine.
type Party struct {
	role       Role
	store      *store.Store
	dealerAddr string
	peerAddr   string
	registry   *session.Registry
	log        *zerolog.Logger
	verbose    bool
}

// New creates a Party of the given role holding an all-zero share of n
// rows, ready to be Serve'd once its listeners are bound.
func New(role Role, n uint32, dealerAddr, peerAddr string, cfg *env.Config, verbose bool) *Party {
	log := cfg.GetLogger()
	sublog := log.With().Str("component", "party").Str("role", role.String()).Logger()
	return &Party{
		role:       role,
		store:      store.New(n),
		dealerAddr: dealerAddr,
		peerAddr:   peerAddr,
		registry:   session.NewRegistry(),
		log:        &sublog,
		verbose:    verbose,
	}
}

// Rows returns N, the store's row count.
func (p *Party) Rows() uint32 {
	return p.store.Len()
}

// mergeStats folds a finished connection's I/O counters into the
// session-wide accumulator so the verbose report covers every dial the
// read protocol made, not just the user-facing socket.
func mergeStats(into wire.IOStats, from wire.IOStats) {
	into.Sent.Add(from.Sent.Load())
	into.Recvd.Add(from.Recvd.Load())
	into.Flushed.Add(from.Flushed.Load())
}

// fetchTriple pulls one fresh Du-Atallah triple half for dim from the
// dealer. The dealer's own sid is read and discarded: spec section 9
// requires it be transmitted bit-exactly but parties do not consume it.
func (p *Party) fetchTriple(dim uint32, into wire.IOStats) (triple.Triple, error) {
	conn, err := net.Dial("tcp", p.dealerAddr)
	if err != nil {
		return triple.Triple{}, xerrors.Errorf("dial dealer: %w", err)
	}
	c := wire.NewConn(conn)
	defer func() {
		c.Close()
		mergeStats(into, c.Stats)
	}()

	if err := c.SendByte(wire.OpRequest); err != nil {
		return triple.Triple{}, xerrors.Errorf("send request op: %w", err)
	}
	if err := c.SendUint32(dim); err != nil {
		return triple.Triple{}, xerrors.Errorf("send dim: %w", err)
	}
	if err := c.Flush(); err != nil {
		return triple.Triple{}, xerrors.Errorf("flush request: %w", err)
	}

	op, err := c.ReceiveByte()
	if err != nil {
		return triple.Triple{}, xerrors.Errorf("receive response op: %w", err)
	}
	if op != wire.OpResponse {
		return triple.Triple{}, wire.ErrBadOp
	}
	rdim, err := c.ReceiveUint32()
	if err != nil {
		return triple.Triple{}, xerrors.Errorf("receive dim: %w", err)
	}
	if rdim != dim {
		return triple.Triple{}, wire.ErrDimMismatch
	}
	if _, err := c.ReceiveUint64(); err != nil { // dealer's sid, unused
		return triple.Triple{}, xerrors.Errorf("receive dealer sid: %w", err)
	}
	a, err := c.ReceiveVector(dim)
	if err != nil {
		return triple.Triple{}, xerrors.Errorf("receive a: %w", err)
	}
	b, err := c.ReceiveVector(dim)
	if err != nil {
		return triple.Triple{}, xerrors.Errorf("receive b: %w", err)
	}
	ce, err := c.ReceiveElement()
	if err != nil {
		return triple.Triple{}, xerrors.Errorf("receive c: %w", err)
	}
	return triple.Triple{Dim: dim, A: a, B: b, C: ce}, nil
}

// sendResidual opens one connection to the peer's residual listener,
// sends [sid|tag|dim|vec], and closes it — one message per connection,
// per the peer-port wire format.
func (p *Party) sendResidual(sid session.ID, tag byte, vec []ring.Element, into wire.IOStats) error {
	conn, err := net.Dial("tcp", p.peerAddr)
	if err != nil {
		return xerrors.Errorf("dial peer: %w", err)
	}
	c := wire.NewConn(conn)
	defer func() {
		c.Close()
		mergeStats(into, c.Stats)
	}()

	if err := c.SendUint64(uint64(sid)); err != nil {
		return xerrors.Errorf("send sid: %w", err)
	}
	if err := c.SendByte(tag); err != nil {
		return xerrors.Errorf("send tag: %w", err)
	}
	if err := c.SendUint32(uint32(len(vec))); err != nil {
		return xerrors.Errorf("send dim: %w", err)
	}
	if err := c.SendVector(vec); err != nil {
		return xerrors.Errorf("send vec: %w", err)
	}
	return c.Flush()
}

// receiveResidual waits for the peer's residual message for this
// session, validating its header against what was expected.
func receiveResidual(inbox <-chan session.Message, sid session.ID, tag byte, dim uint32) ([]ring.Element, error) {
	msg := <-inbox
	if msg.SID != sid || msg.Tag != tag || msg.Dim != dim {
		return nil, ErrHeaderMismatch
	}
	return msg.Vec, nil
}

// crossTerm runs one Du-Atallah cross-term subprotocol and returns this
// party's output share s_role of <x_A + x_B, y_A + y_B>'s cross half.
//
// iAmXSide selects whether myInput is the X-operand (this party sends
// u = myInput + a_i, then waits for v) or the Y-operand (this party
// waits for u, then sends v = myInput + b_i). This ordering — X sends
// then receives, Y receives then sends — is what avoids a symmetric
// send deadlock between the two parties without a separate I/O
// multiplexer.
func (p *Party) crossTerm(sid session.ID, tag byte, iAmXSide bool, myInput []ring.Element, t triple.Triple, inbox <-chan session.Message, ioStats wire.IOStats) (ring.Element, error) {
	dim := uint32(len(myInput))

	var mine, peerVec []ring.Element
	var err error

	if iAmXSide {
		mine, err = ring.AddVectors(myInput, t.A) // u = x + a_i
		if err != nil {
			return 0, err
		}
		if err := p.sendResidual(sid, tag, mine, ioStats); err != nil {
			return 0, err
		}
		peerVec, err = receiveResidual(inbox, sid, tag, dim)
		if err != nil {
			return 0, err
		}
	} else {
		mine, err = ring.AddVectors(myInput, t.B) // v = y + b_i
		if err != nil {
			return 0, err
		}
		peerVec, err = receiveResidual(inbox, sid, tag, dim)
		if err != nil {
			return 0, err
		}
		if err := p.sendResidual(sid, tag, mine, ioStats); err != nil {
			return 0, err
		}
	}

	var u, v []ring.Element
	if iAmXSide {
		u, v = mine, peerVec
	} else {
		u, v = peerVec, mine
	}

	ub, err := ring.DotProduct(u, t.B) // <u, b_i>
	if err != nil {
		return 0, err
	}
	av, err := ring.DotProduct(t.A, v) // <a_i, v>
	if err != nil {
		return 0, err
	}

	switch p.role {
	case RoleA:
		// s_A = -<u,b_A> - <a_A,v> + c_A
		return t.C.Sub(ub).Sub(av), nil
	default:
		// s_B = <u,v> - <u,b_B> - <a_B,v> + c_B
		uv, err := ring.DotProduct(u, v)
		if err != nil {
			return 0, err
		}
		return uv.Sub(ub).Sub(av).Add(t.C), nil
	}
}

// secureRead runs the two-round online read protocol described in
// spec section 4.4 and returns this party's output share of A[idx].
func (p *Party) secureRead(dim uint32, eShare []ring.Element) (ring.Element, error) {
	report := stats.New()
	ioStats := wire.NewIOStats()

	t, err := p.fetchTriple(dim, ioStats)
	if err != nil {
		return 0, xerrors.Errorf("fetch triple: %w", err)
	}
	report.Mark("triple-fetch")

	aMine := p.store.Snapshot()

	sid := session.New(dim)
	inbox, err := p.registry.Register(sid)
	if err != nil {
		return 0, xerrors.Errorf("register session: %w", err)
	}
	defer p.registry.Unregister(sid)

	var z01, z10 ring.Element
	if p.role == RoleA {
		z01, err = p.crossTerm(sid, wire.TagCrossAB, true, aMine, t, inbox, ioStats)
		if err != nil {
			return 0, xerrors.Errorf("cross term 0x01: %w", err)
		}
		report.Mark("cross-0x01")

		z10, err = p.crossTerm(sid, wire.TagCrossBA, false, eShare, t, inbox, ioStats)
		if err != nil {
			return 0, xerrors.Errorf("cross term 0x10: %w", err)
		}
		report.Mark("cross-0x10")
	} else {
		z01, err = p.crossTerm(sid, wire.TagCrossAB, false, eShare, t, inbox, ioStats)
		if err != nil {
			return 0, xerrors.Errorf("cross term 0x01: %w", err)
		}
		report.Mark("cross-0x01")

		z10, err = p.crossTerm(sid, wire.TagCrossBA, true, aMine, t, inbox, ioStats)
		if err != nil {
			return 0, xerrors.Errorf("cross term 0x10: %w", err)
		}
		report.Mark("cross-0x10")
	}

	self, err := ring.DotProduct(aMine, eShare)
	if err != nil {
		return 0, err
	}
	result := self.Add(z01).Add(z10)
	report.Mark("reconstruct")

	if p.verbose {
		report.Print(ioStats)
	}
	return result, nil
}
