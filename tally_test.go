package main

import (
	"errors"
	"math/rand"
	"testing"
)

func activePlayers(ids ...string) []*Player {
	players := make([]*Player, 0, len(ids))
	for _, id := range ids {
		players = append(players, &Player{ID: id, Status: PlayerActive})
	}
	return players
}

func TestTallyRejectsDuplicateVote(t *testing.T) {
	tl := newTally(1)

	if err := tl.cast("a", "b"); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := tl.cast("a", "c"); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second vote: got %v, want ErrAlreadyVoted", err)
	}

	counts := tl.counts()
	if counts["b"] != 1 || counts["c"] != 0 {
		t.Fatalf("tally changed by rejected vote: %v", counts)
	}
}

func TestTallyComplete(t *testing.T) {
	tl := newTally(1)
	active := activePlayers("a", "b", "c")

	if tl.complete(active) {
		t.Fatal("empty tally reported complete")
	}

	_ = tl.cast("a", "b")
	_ = tl.cast("b", "a")
	if tl.complete(active) {
		t.Fatal("partial tally reported complete")
	}

	_ = tl.cast("c", "a")
	if !tl.complete(active) {
		t.Fatal("full tally not reported complete")
	}
}

func TestResolvePicksOnlyTiedLeaders(t *testing.T) {
	// a:3, b:3, c:1
	votes := map[string]string{
		"v1": "a", "v2": "a", "v3": "a",
		"v4": "b", "v5": "b", "v6": "b",
		"v7": "c",
	}

	for seed := int64(0); seed < 20; seed++ {
		tl := newTally(1)
		for voter, target := range votes {
			if err := tl.cast(voter, target); err != nil {
				t.Fatalf("cast: %v", err)
			}
		}

		winner, counts, err := tl.resolve(rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if winner != "a" && winner != "b" {
			t.Fatalf("seed %d: resolved %q, want a or b", seed, winner)
		}
		if counts["a"] != 3 || counts["b"] != 3 || counts["c"] != 1 {
			t.Fatalf("counts: %v", counts)
		}
	}
}

func TestResolveIsReproducibleWithFixedSeed(t *testing.T) {
	build := func() *tally {
		tl := newTally(1)
		_ = tl.cast("v1", "a")
		_ = tl.cast("v2", "b")
		return tl
	}

	first, _, err := build().resolve(rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, _, err := build().resolve(rand.New(rand.NewSource(42)))
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if again != first {
			t.Fatalf("same seed resolved %q then %q", first, again)
		}
	}
}

func TestResolveEmptyTallyIsInternalInconsistency(t *testing.T) {
	tl := newTally(1)

	_, _, err := tl.resolve(rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrInternalInconsistency) {
		t.Fatalf("got %v, want ErrInternalInconsistency", err)
	}
}
