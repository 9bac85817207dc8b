/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"time"
)

// GameStatus is the lifecycle state of a room.
type GameStatus int

const (
	StatusWaiting GameStatus = iota
	StatusPlaying
	StatusFinished
)

func (s GameStatus) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	}
	return "unknown"
}

// Phase is the sub-state of an in-progress game. PhaseNone applies
// whenever the game is not in progress.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseBunkerReveal
	PhasePresentation
	PhaseVoting
	PhaseResults
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return ""
	case PhaseBunkerReveal:
		return "bunker-reveal"
	case PhasePresentation:
		return "presentation"
	case PhaseVoting:
		return "voting"
	case PhaseResults:
		return "results"
	}
	return "unknown"
}

// PlayerStatus tracks roster liveness. Spectator is reserved; no
// transition in this engine currently produces it.
type PlayerStatus int

const (
	PlayerActive PlayerStatus = iota
	PlayerEliminated
	PlayerSpectator
)

func (s PlayerStatus) String() string {
	switch s {
	case PlayerActive:
		return "active"
	case PlayerEliminated:
		return "eliminated"
	case PlayerSpectator:
		return "spectator"
	}
	return "unknown"
}

// GameMode selects the round limit for a room.
type GameMode int

const (
	ModeClassic GameMode = iota
	ModeQuick
)

func (m GameMode) String() string {
	switch m {
	case ModeClassic:
		return "classic"
	case ModeQuick:
		return "quick"
	}
	return "unknown"
}

func (m GameMode) maxRounds() int {
	if m == ModeQuick {
		return quickMaxRounds
	}
	return classicMaxRounds
}

func parseGameMode(s string) (GameMode, bool) {
	switch s {
	case "classic", "":
		return ModeClassic, true
	case "quick":
		return ModeQuick, true
	}
	return ModeClassic, false
}

// CardKind identifies one of the six attribute categories, or a
// bunker-requirement card.
type CardKind int

const (
	CardProfession CardKind = iota
	CardBiology
	CardHealth
	CardHobby
	CardBaggage
	CardFact
	CardBunker
)

func (k CardKind) String() string {
	switch k {
	case CardProfession:
		return "profession"
	case CardBiology:
		return "biology"
	case CardHealth:
		return "health"
	case CardHobby:
		return "hobby"
	case CardBaggage:
		return "baggage"
	case CardFact:
		return "fact"
	case CardBunker:
		return "bunker"
	}
	return "unknown"
}

func parseCardKind(s string) (CardKind, bool) {
	switch s {
	case "profession":
		return CardProfession, true
	case "biology":
		return CardBiology, true
	case "health":
		return CardHealth, true
	case "hobby":
		return CardHobby, true
	case "baggage":
		return CardBaggage, true
	case "fact":
		return CardFact, true
	case "bunker":
		return CardBunker, true
	}
	return CardProfession, false
}

// Card is one attribute dealt to a player. Revealed only controls
// visibility; the value never changes after dealing.
type Card struct {
	Kind     CardKind
	Value    string
	Revealed bool
}

// Player holds the data we store server-side for one participant.
// Players are never deleted once a game has started; elimination is a
// status change so history and final standings stay queryable.
type Player struct {
	ID       string
	RoomID   string
	Name     string
	Status   PlayerStatus
	Cards    []Card
	Votes    []string
	JoinedAt time.Time
}

// Game is the authoritative per-room record.
type Game struct {
	ID                  string
	Label               string
	Mode                GameMode
	Status              GameStatus
	Phase               Phase
	Round               int
	MaxRounds           int
	SurvivorTarget      int
	ActivePlayerID      string
	RevealedBunkerCards []string
	CreatedAt           time.Time
	FinishedAt          time.Time
}

// EventType enumerates the state-change notifications emitted by the
// engine for a transport collaborator to fan out.
type EventType int

const (
	EventRosterChanged EventType = iota
	EventPhaseChanged
	EventCardRevealed
	EventPlayerEliminated
	EventGameFinished
)

func (t EventType) String() string {
	switch t {
	case EventRosterChanged:
		return "roster_changed"
	case EventPhaseChanged:
		return "phase_changed"
	case EventCardRevealed:
		return "card_revealed"
	case EventPlayerEliminated:
		return "player_eliminated"
	case EventGameFinished:
		return "game_finished"
	}
	return "unknown"
}

// Event is one emitted state change. Fields beyond Type are populated
// only where meaningful for that type.
type Event struct {
	Type       EventType
	PlayerID   string
	Card       *Card
	Phase      Phase
	Round      int
	VoteCounts map[string]int
}

// CardSnapshot is the wire form of a Card.
type CardSnapshot struct {
	Kind     string `json:"kind"`
	Value    string `json:"value"`
	Revealed bool   `json:"revealed"`
}

// PlayerSnapshot is the wire form of a Player.
type PlayerSnapshot struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Cards    []CardSnapshot `json:"cards,omitempty"`
	Votes    []string       `json:"votes,omitempty"`
	JoinedAt time.Time      `json:"joined_at"`
}

// GameSnapshot is the full Game+Roster state returned to collaborators
// and written through the durable store.
type GameSnapshot struct {
	ID                  string           `json:"id"`
	Label               string           `json:"label"`
	Mode                string           `json:"mode"`
	Status              string           `json:"status"`
	Phase               string           `json:"phase,omitempty"`
	Round               int              `json:"round"`
	MaxRounds           int              `json:"max_rounds"`
	SurvivorTarget      int              `json:"survivor_target"`
	ActivePlayerID      string           `json:"active_player_id,omitempty"`
	RevealedBunkerCards []string         `json:"revealed_bunker_cards,omitempty"`
	Players             []PlayerSnapshot `json:"players"`
	CreatedAt           time.Time        `json:"created_at"`
	FinishedAt          *time.Time       `json:"finished_at,omitempty"`
}

func snapshotCard(c Card) CardSnapshot {
	return CardSnapshot{
		Kind:     c.Kind.String(),
		Value:    c.Value,
		Revealed: c.Revealed,
	}
}

func snapshotPlayer(p *Player) PlayerSnapshot {
	snap := PlayerSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Status:   p.Status.String(),
		JoinedAt: p.JoinedAt,
	}
	for _, c := range p.Cards {
		snap.Cards = append(snap.Cards, snapshotCard(c))
	}
	snap.Votes = append(snap.Votes, p.Votes...)
	return snap
}
