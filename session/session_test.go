//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

package session

import (
	"testing"

	"github.com/oblivious-ram/duoram/ring"
)

func TestNewIDsAreUnique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 10000; i++ {
		id := New(8)
		if seen[id] {
			t.Fatalf("duplicate session id %d after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestRegistryDeliversToWaiter(t *testing.T) {
	r := NewRegistry()
	sid := New(4)
	ch, err := r.Register(sid)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	msg := Message{SID: sid, Tag: 0x01, Dim: 4, Vec: []ring.Element{1, 2, 3, 4}}
	if !r.Deliver(msg) {
		t.Fatalf("Deliver: no waiter found")
	}
	got := <-ch
	if got.Tag != msg.Tag || got.Dim != msg.Dim {
		t.Fatalf("got %+v, want %+v", got, msg)
	}
	r.Unregister(sid)
}

func TestRegistryCollision(t *testing.T) {
	r := NewRegistry()
	sid := New(4)
	if _, err := r.Register(sid); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := r.Register(sid); err != ErrSIDCollision {
		t.Fatalf("second Register = %v, want ErrSIDCollision", err)
	}
}

func TestRegistryDropsUnknownSID(t *testing.T) {
	r := NewRegistry()
	delivered := r.Deliver(Message{SID: New(4)})
	if delivered {
		t.Fatalf("Deliver reported success for an unregistered sid")
	}
}
