//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package wire

import "io"

// Pipe returns two Conns connected to each other in-process, for tests
// that want to exercise framing without a real socket.
func Pipe() (*Conn, *Conn) {
	var p0, p1 pipeHalf
	p0.r, p1.w = io.Pipe()
	p1.r, p0.w = io.Pipe()
	return NewConn(&p0), NewConn(&p1)
}

type pipeHalf struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeHalf) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *pipeHalf) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *pipeHalf) Close() error {
	if err := p.r.Close(); err != nil {
		return err
	}
	return p.w.Close()
}
