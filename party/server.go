//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package party

import (
	"net"

	"github.com/oblivious-ram/duoram/session"
	"github.com/oblivious-ram/duoram/wire"
)

// Serve runs both of the party's accept loops — the user-facing port
// (WRITE and READ RPCs) and the peer-facing residual port (the
// Du-Atallah cross-term exchange) — until either listener errs out.
func (p *Party) Serve(userLn, residualLn net.Listener) error {
	errc := make(chan error, 2)
	go func() { errc <- p.serveUser(userLn) }()
	go func() { errc <- p.serveResidual(residualLn) }()
	return <-errc
}

func (p *Party) serveUser(ln net.Listener) error {
	p.log.Info().Str("addr", ln.Addr().String()).Msg("user port listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go p.handleUser(conn)
	}
}

func (p *Party) serveResidual(ln net.Listener) error {
	p.log.Info().Str("addr", ln.Addr().String()).Msg("residual port listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go p.handleResidual(conn)
	}
}

// handleUser dispatches one user connection to its WRITE or READ
// handler. Both are handled entirely within this one goroutine, so
// WRITE-before-READ ordering on a single connection is automatic.
func (p *Party) handleUser(conn net.Conn) {
	c := wire.NewConn(conn)
	defer c.Close()

	op, err := c.ReceiveByte()
	if err != nil {
		p.log.Debug().Err(err).Msg("read user op")
		return
	}

	switch op {
	case wire.OpWriteVec:
		p.handleWrite(c)
	case wire.OpReadSecure:
		p.handleRead(c)
	default:
		p.log.Warn().Uint8("op", op).Msg("unknown user opcode")
	}
}

func (p *Party) handleWrite(c *wire.Conn) {
	dim, err := c.ReceiveUint32()
	if err != nil {
		p.log.Debug().Err(err).Msg("read write dim")
		return
	}
	if dim != p.store.Len() {
		p.log.Warn().Uint32("dim", dim).Uint32("want", p.store.Len()).Msg("write dim mismatch")
		return
	}
	vec, err := c.ReceiveVector(dim)
	if err != nil {
		p.log.Debug().Err(err).Msg("read write vector")
		return
	}
	if err := p.store.ObliviousAdd(vec); err != nil {
		p.log.Error().Err(err).Msg("oblivious add failed")
		return
	}
	if err := c.SendByte('O'); err != nil {
		return
	}
	if err := c.SendByte('K'); err != nil {
		return
	}
	_ = c.Flush()
}

func (p *Party) handleRead(c *wire.Conn) {
	dim, err := c.ReceiveUint32()
	if err != nil {
		p.log.Debug().Err(err).Msg("read read dim")
		return
	}
	if dim != p.store.Len() {
		p.log.Warn().Uint32("dim", dim).Uint32("want", p.store.Len()).Msg("read dim mismatch")
		return
	}
	eShare, err := c.ReceiveVector(dim)
	if err != nil {
		p.log.Debug().Err(err).Msg("read e share")
		return
	}

	share, err := p.secureRead(dim, eShare)
	if err != nil {
		p.log.Warn().Err(err).Msg("read session aborted")
		return
	}

	if err := c.SendUint32(share.Uint32()); err != nil {
		return
	}
	_ = c.Flush()
}

// handleResidual decodes one inbound [sid|tag|dim|vec] message and
// routes it to whichever waiting READ session registered that sid.
// A message with no waiting session is simply dropped: it either
// belongs to a session that already gave up, or was misdirected.
func (p *Party) handleResidual(conn net.Conn) {
	c := wire.NewConn(conn)
	defer c.Close()

	sidRaw, err := c.ReceiveUint64()
	if err != nil {
		p.log.Debug().Err(err).Msg("read residual sid")
		return
	}
	tag, err := c.ReceiveByte()
	if err != nil {
		p.log.Debug().Err(err).Msg("read residual tag")
		return
	}
	dim, err := c.ReceiveUint32()
	if err != nil {
		p.log.Debug().Err(err).Msg("read residual dim")
		return
	}
	vec, err := c.ReceiveVector(dim)
	if err != nil {
		p.log.Debug().Err(err).Msg("read residual vector")
		return
	}

	msg := session.Message{SID: session.ID(sidRaw), Tag: tag, Dim: dim, Vec: vec}
	if !p.registry.Deliver(msg) {
		p.log.Debug().Uint64("sid", sidRaw).Msg("dropped residual with no waiting session")
	}
}
