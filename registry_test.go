package main

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T, seed int64, store Store) *Registry {
	t.Helper()

	// The reaper loop belongs to the transport layer; tests drive
	// reapIdle directly.
	reg, err := newRegistry(&Config{seed: seed}, store)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

func TestCreateRoomAndLookup(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(t, 1, store)

	roomID, hostID, err := reg.CreateRoom("cookie-1", "Alice", "friday night", "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(roomID) != roomIDLength {
		t.Fatalf("room id %q length = %d, want %d", roomID, len(roomID), roomIDLength)
	}
	for _, c := range roomID {
		if !strings.ContainsRune(roomIDAlphabet, c) {
			t.Fatalf("room id %q contains %q outside the alphabet", roomID, c)
		}
	}
	if hostID != "cookie-1" {
		t.Fatalf("host id = %q, want the caller's identity", hostID)
	}

	session, err := reg.Lookup(roomID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	snap := session.Snapshot()
	if snap.Label != "friday night" || snap.Mode != "classic" || snap.MaxRounds != classicMaxRounds {
		t.Fatalf("snapshot: label=%q mode=%q maxRounds=%d", snap.Label, snap.Mode, snap.MaxRounds)
	}
	if len(snap.Players) != 1 || snap.Players[0].Name != "Alice" {
		t.Fatalf("host not seated: %v", snap.Players)
	}

	// The store holds the room too.
	if _, err := store.LoadRoom(roomID); err != nil {
		t.Fatalf("store load: %v", err)
	}
}

func TestLookupUnknownRoom(t *testing.T) {
	reg := newTestRegistry(t, 1, newMemStore())

	if _, err := reg.Lookup("NOSUCH"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	reg := newTestRegistry(t, 1, newMemStore())

	cases := []struct {
		name     string
		hostID   string
		hostName string
		label    string
		mode     string
	}{
		{"empty name", "c1", "", "", "classic"},
		{"long name", "c1", strings.Repeat("a", maxNameLength+1), "", "classic"},
		{"long label", "c1", "Alice", strings.Repeat("x", maxLabelLength+1), "classic"},
		{"bad mode", "c1", "Alice", "", "speedrun"},
		{"missing identity", "", "Alice", "", "classic"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := reg.CreateRoom(tc.hostID, tc.hostName, tc.label, tc.mode)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestQuickModeRoundLimit(t *testing.T) {
	reg := newTestRegistry(t, 1, newMemStore())

	roomID, _, err := reg.CreateRoom("c1", "Alice", "", "quick")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	session, _ := reg.Lookup(roomID)
	if got := session.Snapshot().MaxRounds; got != quickMaxRounds {
		t.Fatalf("maxRounds = %d, want %d", got, quickMaxRounds)
	}
}

// collidingStore refuses every creation, standing in for a store
// whose uniqueness constraint fires.
type collidingStore struct {
	Store
}

func (collidingStore) CreateRoom(GameSnapshot) error {
	return ErrRoomIDCollision
}

func TestStoreCollisionSurfacesToCaller(t *testing.T) {
	reg := newTestRegistry(t, 1, collidingStore{Store: newMemStore()})

	_, _, err := reg.CreateRoom("c1", "Alice", "", "classic")
	if !errors.Is(err, ErrRoomIDCollision) {
		t.Fatalf("got %v, want ErrRoomIDCollision", err)
	}

	// The failed room is not registered: lookups see nothing.
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if len(reg.sessions) != 0 {
		t.Fatalf("sessions after failed create: %d", len(reg.sessions))
	}
}

func TestSeededRoomIDsAreReproducible(t *testing.T) {
	first, _, err := newTestRegistry(t, 7, newMemStore()).CreateRoom("c1", "Alice", "", "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, _, err := newTestRegistry(t, 7, newMemStore()).CreateRoom("c1", "Alice", "", "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first != second {
		t.Fatalf("same seed produced %q and %q", first, second)
	}
}

func TestRoomsAreIndependent(t *testing.T) {
	reg := newTestRegistry(t, 1, newMemStore())

	roomA, _, err := reg.CreateRoom("host-a", "Alice", "", "classic")
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	roomB, _, err := reg.CreateRoom("host-b", "Bob", "", "classic")
	if err != nil {
		t.Fatalf("create B: %v", err)
	}
	if roomA == roomB {
		t.Fatalf("two rooms share id %q", roomA)
	}

	a, _ := reg.Lookup(roomA)
	b, _ := reg.Lookup(roomB)

	if _, _, err := a.Join("p2", "Bob"); err != nil {
		t.Fatalf("join A: %v", err)
	}

	if got := len(b.Snapshot().Players); got != 1 {
		t.Fatalf("room B roster = %d after a join to room A", got)
	}
}

func TestReapIdleSessions(t *testing.T) {
	reg := newTestRegistry(t, 1, newMemStore())

	stale, _, err := reg.CreateRoom("c1", "Alice", "", "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	fresh, _, err := reg.CreateRoom("c2", "Bob", "", "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	session, _ := reg.Lookup(stale)
	session.mu.Lock()
	session.lastActive = time.Now().Add(-2 * time.Hour)
	session.mu.Unlock()

	reg.reapIdle(time.Now().Add(-time.Hour))

	if _, err := reg.Lookup(stale); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("stale room survived the reaper: %v", err)
	}
	if _, err := reg.Lookup(fresh); err != nil {
		t.Fatalf("fresh room reaped: %v", err)
	}
}

func TestReapedFinishedRoomStillServesSnapshot(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(t, 1, store)

	roomID, _, err := reg.CreateRoom("c1", "Alice", "", "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	session, _ := reg.Lookup(roomID)
	session.mu.Lock()
	session.game.Status = StatusFinished
	session.game.FinishedAt = time.Now()
	session.persistLocked()
	session.lastActive = time.Now().Add(-2 * time.Hour)
	session.mu.Unlock()

	reg.reapIdle(time.Now().Add(-time.Hour))

	if _, err := reg.Lookup(roomID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("reaped room still has a live session: %v", err)
	}

	// The final standings are still readable through the store.
	snap, err := reg.Snapshot(roomID)
	if err != nil {
		t.Fatalf("snapshot after reap: %v", err)
	}
	if snap.ID != roomID || snap.Status != "finished" {
		t.Fatalf("stored snapshot: id=%q status=%q", snap.ID, snap.Status)
	}
	if len(snap.Players) != 1 || snap.Players[0].Name != "Alice" {
		t.Fatalf("stored roster: %v", snap.Players)
	}

	if _, err := reg.Snapshot("NOSUCH"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("unknown room snapshot: got %v, want ErrRoomNotFound", err)
	}
}
