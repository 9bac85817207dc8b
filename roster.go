/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"time"
)

const (
	minPlayers     = 4
	maxPlayers     = 10
	maxNameLength  = 32
	survivorDivide = 2
)

// roster tracks the players belonging to one room, in join order.
// The first joiner is the host. Not safe for concurrent use on its
// own; the owning Session serializes access.
type roster struct {
	players []*Player
}

// join admits a new player while the room is still waiting. The id is
// supplied by the caller (an opaque identity token); rejoining with an
// id already on the roster returns the existing player unchanged.
func (r *roster) join(id, roomID, name string, status GameStatus) (*Player, error) {
	if existing := r.byID(id); existing != nil {
		return existing, nil
	}

	if status != StatusWaiting {
		return nil, ErrRoomAlreadyStarted
	}

	if len(r.players) >= maxPlayers {
		return nil, ErrRoomFull
	}

	for _, p := range r.players {
		if p.Name == name {
			return nil, ErrNameTaken
		}
	}

	player := &Player{
		ID:       id,
		RoomID:   roomID,
		Name:     name,
		Status:   PlayerActive,
		JoinedAt: time.Now(),
	}
	r.players = append(r.players, player)

	return player, nil
}

// leave drops a player entirely. Only valid while the room is waiting;
// once a game starts, elimination is the only roster exit.
func (r *roster) leave(id string) bool {
	dst := r.players[:0]
	removed := false

	for _, p := range r.players {
		if p.ID == id {
			removed = true
			continue
		}
		dst = append(dst, p)
	}
	r.players = dst

	return removed
}

func (r *roster) byID(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// host returns the first-joined player, or nil for an empty roster.
func (r *roster) host() *Player {
	if len(r.players) == 0 {
		return nil
	}
	return r.players[0]
}

// active returns the active players in join order.
func (r *roster) active() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Status == PlayerActive {
			out = append(out, p)
		}
	}
	return out
}

// nextActiveAfter returns the active player following id in join
// order, wrapping around. Falls back to the first active player when
// id is unknown or no longer active.
func (r *roster) nextActiveAfter(id string) *Player {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}

	n := len(r.players)
	if n == 0 {
		return nil
	}

	for off := 1; off <= n; off++ {
		p := r.players[((idx+off)%n+n)%n]
		if p.Status == PlayerActive {
			return p
		}
	}
	return nil
}

// markEliminated performs the one-way active to eliminated transition.
// Repeating it is rejected rather than treated as a no-op.
func (r *roster) markEliminated(id string) error {
	p := r.byID(id)
	if p == nil {
		return ErrInvalidTarget
	}

	switch p.Status {
	case PlayerActive:
		p.Status = PlayerEliminated
		return nil
	case PlayerEliminated:
		return ErrAlreadyEliminated
	case PlayerSpectator:
		return ErrInvalidTarget
	}
	return ErrInternalInconsistency
}

func validDisplayName(name string) bool {
	return len(name) >= 1 && len(name) <= maxNameLength
}
