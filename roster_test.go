package main

import (
	"errors"
	"fmt"
	"testing"
)

func TestRosterJoinOrderAndHost(t *testing.T) {
	var r roster

	for i, name := range []string{"Alice", "Bob", "Carol"} {
		if _, err := r.join(fmt.Sprintf("p%d", i+1), "ROOM01", name, StatusWaiting); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}

	if host := r.host(); host == nil || host.Name != "Alice" {
		t.Fatalf("host = %v, want first joiner Alice", host)
	}

	active := r.active()
	if len(active) != 3 {
		t.Fatalf("active count = %d, want 3", len(active))
	}
	for i, want := range []string{"Alice", "Bob", "Carol"} {
		if active[i].Name != want {
			t.Fatalf("active[%d] = %q, want %q (join order)", i, active[i].Name, want)
		}
	}
}

func TestRosterJoinFailures(t *testing.T) {
	var r roster
	if _, err := r.join("p1", "ROOM01", "Alice", StatusWaiting); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := r.join("p2", "ROOM01", "Alice", StatusWaiting); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("duplicate name: got %v, want ErrNameTaken", err)
	}

	// Name matching is case-sensitive.
	if _, err := r.join("p2", "ROOM01", "alice", StatusWaiting); err != nil {
		t.Fatalf("case-differing name rejected: %v", err)
	}

	if _, err := r.join("p3", "ROOM01", "Bob", StatusPlaying); !errors.Is(err, ErrRoomAlreadyStarted) {
		t.Fatalf("started room: got %v, want ErrRoomAlreadyStarted", err)
	}
}

func TestRosterJoinRoomFull(t *testing.T) {
	var r roster
	for i := 0; i < maxPlayers; i++ {
		if _, err := r.join(fmt.Sprintf("p%d", i), "ROOM01", fmt.Sprintf("Player%d", i), StatusWaiting); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	if _, err := r.join("extra", "ROOM01", "Extra", StatusWaiting); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("got %v, want ErrRoomFull", err)
	}
}

func TestRosterRejoinReturnsExistingSeat(t *testing.T) {
	var r roster
	first, err := r.join("p1", "ROOM01", "Alice", StatusWaiting)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	// A rejoin works even after the game starts.
	again, err := r.join("p1", "ROOM01", "Alice", StatusPlaying)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again != first {
		t.Fatal("rejoin created a new seat")
	}
	if len(r.players) != 1 {
		t.Fatalf("roster size = %d, want 1", len(r.players))
	}
}

func TestRosterMarkEliminatedIsOneWay(t *testing.T) {
	var r roster
	p, _ := r.join("p1", "ROOM01", "Alice", StatusWaiting)

	if err := r.markEliminated("p1"); err != nil {
		t.Fatalf("eliminate: %v", err)
	}
	if p.Status != PlayerEliminated {
		t.Fatalf("status = %v, want eliminated", p.Status)
	}

	if err := r.markEliminated("p1"); !errors.Is(err, ErrAlreadyEliminated) {
		t.Fatalf("repeat: got %v, want ErrAlreadyEliminated", err)
	}
	if err := r.markEliminated("ghost"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("unknown: got %v, want ErrInvalidTarget", err)
	}
}

func TestRosterNextActiveAfterSkipsEliminated(t *testing.T) {
	var r roster
	for i, name := range []string{"Alice", "Bob", "Carol", "Dave"} {
		_, _ = r.join(fmt.Sprintf("p%d", i+1), "ROOM01", name, StatusWaiting)
	}

	if next := r.nextActiveAfter("p1"); next == nil || next.ID != "p2" {
		t.Fatalf("next after p1 = %v, want p2", next)
	}

	_ = r.markEliminated("p2")
	if next := r.nextActiveAfter("p1"); next == nil || next.ID != "p3" {
		t.Fatalf("next after p1 with p2 out = %v, want p3", next)
	}

	// Wraps around from the last seat.
	if next := r.nextActiveAfter("p4"); next == nil || next.ID != "p1" {
		t.Fatalf("next after p4 = %v, want p1", next)
	}
}

func TestRosterLeave(t *testing.T) {
	var r roster
	_, _ = r.join("p1", "ROOM01", "Alice", StatusWaiting)
	_, _ = r.join("p2", "ROOM01", "Bob", StatusWaiting)

	if !r.leave("p2") {
		t.Fatal("leave returned false for known player")
	}
	if r.leave("p2") {
		t.Fatal("leave returned true for absent player")
	}
	if len(r.players) != 1 || r.players[0].ID != "p1" {
		t.Fatalf("roster after leave: %v", r.players)
	}
}
