//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package dealer

import (
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/oblivious-ram/duoram/env"
	"github.com/oblivious-ram/duoram/triple"
	"github.com/oblivious-ram/duoram/wire"
)

// Server runs the dealer's accept loop: one detached goroutine per
// accepted connection, serialized only on the pairing decision (Room).
type Server struct {
	listener net.Listener
	room     *Room
	cfg      *env.Config
	log      *zerolog.Logger
}

// NewServer wraps listener in a dealer Server.
func NewServer(listener net.Listener, cfg *env.Config) *Server {
	log := cfg.GetLogger()
	sublog := log.With().Str("component", "dealer").Logger()
	return &Server{
		listener: listener,
		room:     NewRoom(),
		cfg:      cfg,
		log:      &sublog,
	}
}

// Serve accepts connections until the listener is closed.
func (s *Server) Serve() error {
	s.log.Info().Str("addr", s.listener.Addr().String()).Msg("dealer listening")
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	c := wire.NewConn(conn)

	op, err := c.ReceiveByte()
	if err != nil {
		s.log.Warn().Err(err).Msg("read request op")
		_ = c.Close()
		return
	}
	if op != wire.OpRequest {
		s.log.Warn().Uint8("op", op).Msg("unexpected opcode")
		_ = c.Close()
		return
	}

	dim, err := c.ReceiveUint32()
	if err != nil {
		s.log.Warn().Err(err).Msg("read request dim")
		_ = c.Close()
		return
	}
	if dim == 0 {
		s.log.Warn().Err(wire.ErrZeroDim).Msg("rejected dim=0 request")
		_ = c.Close()
		return
	}

	s.log.Debug().Uint32("dim", dim).Msg("client requesting triple")

	peerConn, paired := s.room.AddAndTryPair(conn, dim)
	if !paired {
		// Parked: conn stays open, owned by the room, until a second
		// requester for this dimension arrives. Do not touch it again
		// from this goroutine.
		s.log.Debug().Uint32("dim", dim).Msg("queued, waiting for peer")
		return
	}

	s.log.Debug().Uint32("dim", dim).Msg("paired; generating triple")

	t0, t1, err := triple.Generate(s.cfg.GetRandom(), dim)
	if err != nil {
		s.log.Error().Err(err).Msg("triple generation failed")
		_ = conn.Close()
		_ = peerConn.Close()
		return
	}

	sid, err := randomSID(s.cfg.GetRandom())
	if err != nil {
		s.log.Error().Err(err).Msg("sid generation failed")
		_ = conn.Close()
		_ = peerConn.Close()
		return
	}

	peerC := wire.NewConn(peerConn)
	if err := sendShare(peerC, dim, sid, t0); err != nil {
		s.log.Warn().Err(err).Msg("send share to first-arrived peer")
	}
	if err := peerC.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close first-arrived peer")
	}

	if err := sendShare(c, dim, sid, t1); err != nil {
		s.log.Warn().Err(err).Msg("send share to second-arrived peer")
	}
	if err := c.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close second-arrived peer")
	}

	s.log.Debug().Uint32("dim", dim).Msg("shares sent")
}

func sendShare(c *wire.Conn, dim uint32, sid uint64, t triple.Triple) error {
	if err := c.SendByte(wire.OpResponse); err != nil {
		return xerrors.Errorf("send op: %w", err)
	}
	if err := c.SendUint32(dim); err != nil {
		return xerrors.Errorf("send dim: %w", err)
	}
	if err := c.SendUint64(sid); err != nil {
		return xerrors.Errorf("send sid: %w", err)
	}
	if err := c.SendVector(t.A); err != nil {
		return xerrors.Errorf("send a: %w", err)
	}
	if err := c.SendVector(t.B); err != nil {
		return xerrors.Errorf("send b: %w", err)
	}
	if err := c.SendElement(t.C); err != nil {
		return xerrors.Errorf("send c: %w", err)
	}
	return c.Flush()
}

// randomSID draws the dealer's own opaque, unused-by-parties session
// tag (spec section 9: transmitted bit-exactly, never consumed as the
// online sid).
func randomSID(entropy io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(entropy, buf[:]); err != nil {
		return 0, errors.New("dealer: failed to draw sid: " + err.Error())
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
