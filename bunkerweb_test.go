package main

import (
	"errors"
	"testing"
	"time"
)

func TestReapDropsHubAndDisconnectsClients(t *testing.T) {
	cfg := &Config{seed: 1}
	reg, err := newRegistry(cfg, newMemStore())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	bs := newBunkerServer(cfg, reg)

	roomID, _, err := reg.CreateRoom("c1", "Alice", "", "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	hub, err := bs.hub(roomID)
	if err != nil {
		t.Fatalf("hub: %v", err)
	}

	client := &Client{send: make(chan any, 8), playerID: "c1"}
	hub.register <- client

	// The run loop answers a registration with session info and state.
	if _, ok := (<-client.send).(SessionInfoMessage); !ok {
		t.Fatal("first message is not session info")
	}
	if _, ok := (<-client.send).(StateMessage); !ok {
		t.Fatal("second message is not state")
	}

	session, _ := reg.Lookup(roomID)
	session.mu.Lock()
	session.lastActive = time.Now().Add(-2 * time.Hour)
	session.mu.Unlock()

	reg.reapIdle(time.Now().Add(-time.Hour))

	if _, err := reg.Lookup(roomID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("reaped room still resolvable: %v", err)
	}

	// The client was disconnected: its send channel is closed.
	for {
		if _, ok := <-client.send; !ok {
			break
		}
	}

	// The hub map forgot the room.
	bs.mu.Lock()
	_, stale := bs.hubs[roomID]
	bs.mu.Unlock()
	if stale {
		t.Fatal("hub map still holds the reaped room")
	}

	// The run loop is stopped, and reconnect attempts see the room gone.
	select {
	case <-hub.done:
	default:
		t.Fatal("hub run loop still alive after reap")
	}
	if _, err := bs.hub(roomID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("stale hub handed out after reap: %v", err)
	}
}
