/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand"
	"sort"
)

// tally accumulates at most one vote per voter for a single round.
// Re-votes are rejected, never overwritten. Not safe for concurrent
// use on its own; the owning Session serializes access.
type tally struct {
	round int
	votes map[string]string
}

func newTally(round int) *tally {
	return &tally{
		round: round,
		votes: make(map[string]string),
	}
}

func (t *tally) cast(voterID, targetID string) error {
	if _, dup := t.votes[voterID]; dup {
		return ErrAlreadyVoted
	}
	t.votes[voterID] = targetID
	return nil
}

// complete reports whether every currently-active player has exactly
// one vote recorded for this round.
func (t *tally) complete(active []*Player) bool {
	for _, p := range active {
		if _, ok := t.votes[p.ID]; !ok {
			return false
		}
	}
	return true
}

// counts returns votes received per target.
func (t *tally) counts() map[string]int {
	out := make(map[string]int, len(t.votes))
	for _, target := range t.votes {
		out[target]++
	}
	return out
}

// resolve computes the elimination target. All targets sharing the
// highest received count are candidates; ties are broken uniformly at
// random from the injected source, so a seeded source makes the
// outcome reproducible. A zero max count cannot happen once voting is
// complete and is surfaced as a broken invariant.
func (t *tally) resolve(rng *rand.Rand) (string, map[string]int, error) {
	counts := t.counts()

	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		return "", nil, ErrInternalInconsistency
	}

	candidates := make([]string, 0, len(counts))
	for target, n := range counts {
		if n == maxCount {
			candidates = append(candidates, target)
		}
	}
	sort.Strings(candidates)

	return candidates[rng.Intn(len(candidates))], counts, nil
}
