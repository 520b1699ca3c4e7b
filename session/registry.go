//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package session

import (
	"errors"
	"sync"

	"github.com/oblivious-ram/duoram/ring"
)

// Message is one decoded peer-residual message: [sid|tag|dim|vec] from
// the wire format in the external interfaces section.
type Message struct {
	SID ID
	Tag byte
	Dim uint32
	Vec []ring.Element
}

// ErrSIDCollision is returned by Register when a session id is already
// registered — spec section 9 requires cross-process sid collisions to
// be treated as a framing error, not silently accepted.
var ErrSIDCollision = errors.New("session: sid already registered")

// inboxSize holds both residual messages (tags 0x01 and 0x10) a READ
// session expects, so the shared accept loop's delivery never blocks.
const inboxSize = 2

// Registry demultiplexes inbound peer-residual connections, accepted by
// a single shared listener loop, to the READ session worker waiting for
// that connection's session id.
type Registry struct {
	mu      sync.Mutex
	pending map[ID]chan Message
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pending: make(map[ID]chan Message)}
}

// Register reserves sid for the calling session and returns the inbox
// it should read incoming residual messages from.
func (r *Registry) Register(sid ID) (<-chan Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pending[sid]; exists {
		return nil, ErrSIDCollision
	}
	ch := make(chan Message, inboxSize)
	r.pending[sid] = ch
	return ch, nil
}

// Unregister releases sid once the session has consumed everything it
// expects (or is aborting early).
func (r *Registry) Unregister(sid ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, sid)
}

// Deliver routes msg to the session registered for msg.SID. It reports
// whether a waiting session was found; an undelivered message (no
// registrant, or its inbox is unexpectedly full) is simply dropped —
// per spec section 5, a party never blocks its shared accept loop on
// one session's pace.
func (r *Registry) Deliver(msg Message) bool {
	r.mu.Lock()
	ch, ok := r.pending[msg.SID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}
