/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Session is the authoritative state machine for one room. Every
// mutating call locks the session mutex, so all operations on a room
// are serialized relative to each other while different rooms never
// block one another. Mutators return the events to be fanned out by
// the transport collaborator; the engine does not care how delivery
// happens.
type Session struct {
	mu sync.Mutex

	cfg   *Config
	store Store
	rng   *rand.Rand

	game   *Game
	roster roster
	tally  *tally
	deck   []string

	lastActive time.Time
}

func newSession(cfg *Config, store Store, rng *rand.Rand, id, label string, mode GameMode) *Session {
	now := time.Now()
	return &Session{
		cfg:   cfg,
		store: store,
		rng:   rng,
		game: &Game{
			ID:        id,
			Label:     label,
			Mode:      mode,
			Status:    StatusWaiting,
			MaxRounds: mode.maxRounds(),
			CreatedAt: now,
		},
		deck:       newBunkerDeck(rng),
		lastActive: now,
	}
}

func (s *Session) touchLocked() {
	s.lastActive = time.Now()
}

func (s *Session) lastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Status == StatusFinished
}

// persistLocked mirrors the current state through the durable store.
// The in-memory session stays authoritative; a failed write is logged
// and the operation still succeeds.
func (s *Session) persistLocked() {
	if err := s.store.SaveRoom(s.snapshotLocked()); err != nil {
		logf(s.cfg, "STORE: Failed to save room %s: %v", s.game.ID, err)
	}
}

func (s *Session) snapshotLocked() GameSnapshot {
	snap := GameSnapshot{
		ID:             s.game.ID,
		Label:          s.game.Label,
		Mode:           s.game.Mode.String(),
		Status:         s.game.Status.String(),
		Phase:          s.game.Phase.String(),
		Round:          s.game.Round,
		MaxRounds:      s.game.MaxRounds,
		SurvivorTarget: s.game.SurvivorTarget,
		ActivePlayerID: s.game.ActivePlayerID,
		CreatedAt:      s.game.CreatedAt,
	}
	snap.RevealedBunkerCards = append(snap.RevealedBunkerCards, s.game.RevealedBunkerCards...)
	for _, p := range s.roster.players {
		snap.Players = append(snap.Players, snapshotPlayer(p))
	}
	if !s.game.FinishedAt.IsZero() {
		t := s.game.FinishedAt
		snap.FinishedAt = &t
	}
	return snap
}

// Snapshot returns the full Game+Roster state.
func (s *Session) Snapshot() GameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Join admits a player while the room is waiting. Rejoining with a
// known id is a reconnect, not a new seat.
func (s *Session) Join(playerID, name string) (PlayerSnapshot, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if !validDisplayName(name) {
		return PlayerSnapshot{}, nil, fmt.Errorf("%w: display name must be 1-%d characters", ErrValidation, maxNameLength)
	}

	before := len(s.roster.players)
	player, err := s.roster.join(playerID, s.game.ID, name, s.game.Status)
	if err != nil {
		return PlayerSnapshot{}, nil, err
	}

	var events []Event
	if len(s.roster.players) > before {
		events = append(events, Event{Type: EventRosterChanged, PlayerID: player.ID})
		logf(s.cfg, "GAMES: Player %q joined %s", name, s.game.ID)
		s.persistLocked()
	}

	return snapshotPlayer(player), events, nil
}

// Leave drops a player from a room that has not started. Once a game
// is playing, elimination is the only way off the active roster, so
// leaving is a no-op there.
func (s *Session) Leave(playerID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.Status != StatusWaiting {
		return nil
	}

	if !s.roster.leave(playerID) {
		return nil
	}

	s.touchLocked()
	s.persistLocked()

	return []Event{{Type: EventRosterChanged, PlayerID: playerID}}
}

// Start moves the room from waiting to playing: deals attribute cards,
// opens round 1 in the bunker-reveal phase, and hands the first turn
// to the first-joined player. Only the host may start.
func (s *Session) Start(requesterID string) (GameSnapshot, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.game.Status != StatusWaiting {
		return GameSnapshot{}, nil, ErrPhaseMismatch
	}

	host := s.roster.host()
	if host == nil || host.ID != requesterID {
		return GameSnapshot{}, nil, ErrNotYourTurn
	}

	active := s.roster.active()
	if len(active) < minPlayers {
		return GameSnapshot{}, nil, ErrNotEnoughPlayers
	}

	dealAll(active, s.rng)

	s.game.Status = StatusPlaying
	s.game.Round = 1
	s.game.Phase = PhaseBunkerReveal
	s.game.SurvivorTarget = (len(active) + 1) / survivorDivide
	s.game.ActivePlayerID = active[0].ID
	s.tally = newTally(1)

	logf(s.cfg, "GAMES: Game %s started with %d players", s.game.ID, len(active))
	s.persistLocked()

	events := []Event{{Type: EventPhaseChanged, Phase: PhaseBunkerReveal, Round: 1}}
	return s.snapshotLocked(), events, nil
}

// RevealCard reveals the next bunker requirement (kind bunker, host
// only, bunker-reveal phase) or one of the requester's own attribute
// cards (presentation phase, active player only). Revealing an
// attribute card passes the turn to the next active player in join
// order.
func (s *Session) RevealCard(requesterID string, kind CardKind) (GameSnapshot, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.game.Status != StatusPlaying {
		return GameSnapshot{}, nil, ErrPhaseMismatch
	}

	var events []Event

	switch kind {
	case CardBunker:
		if s.game.Phase != PhaseBunkerReveal {
			return GameSnapshot{}, nil, ErrPhaseMismatch
		}
		host := s.roster.host()
		if host == nil || host.ID != requesterID {
			return GameSnapshot{}, nil, ErrNotYourTurn
		}
		if len(s.game.RevealedBunkerCards) >= len(s.deck) {
			return GameSnapshot{}, nil, ErrPhaseMismatch
		}

		value := s.deck[len(s.game.RevealedBunkerCards)]
		s.game.RevealedBunkerCards = append(s.game.RevealedBunkerCards, value)

		events = append(events, Event{
			Type: EventCardRevealed,
			Card: &Card{Kind: CardBunker, Value: value, Revealed: true},
		})

	case CardProfession, CardBiology, CardHealth, CardHobby, CardBaggage, CardFact:
		if s.game.Phase != PhasePresentation {
			return GameSnapshot{}, nil, ErrPhaseMismatch
		}
		if s.game.ActivePlayerID != requesterID {
			return GameSnapshot{}, nil, ErrNotYourTurn
		}

		player := s.roster.byID(requesterID)
		if player == nil || player.Status != PlayerActive {
			return GameSnapshot{}, nil, ErrNotYourTurn
		}

		var revealed *Card
		for i := range player.Cards {
			if player.Cards[i].Kind == kind {
				player.Cards[i].Revealed = true
				revealed = &player.Cards[i]
				break
			}
		}
		if revealed == nil {
			return GameSnapshot{}, nil, ErrInternalInconsistency
		}

		if next := s.roster.nextActiveAfter(requesterID); next != nil {
			s.game.ActivePlayerID = next.ID
		}

		card := *revealed
		events = append(events, Event{
			Type:     EventCardRevealed,
			PlayerID: requesterID,
			Card:     &card,
		})

	default:
		return GameSnapshot{}, nil, fmt.Errorf("%w: unknown card kind", ErrValidation)
	}

	s.persistLocked()

	return s.snapshotLocked(), events, nil
}

// AdvancePhase moves bunker-reveal to presentation, or presentation to
// voting. The voting phase only ever exits through vote resolution, so
// advancing from it fails with a phase mismatch; redundant calls from
// an expired discussion timer fail the same way and leave state
// untouched. An empty requester id is trusted as the timer
// collaborator; otherwise only the host or the active player may
// advance.
func (s *Session) AdvancePhase(requesterID string) (GameSnapshot, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.game.Status != StatusPlaying {
		return GameSnapshot{}, nil, ErrPhaseMismatch
	}

	if requesterID != "" {
		host := s.roster.host()
		isHost := host != nil && host.ID == requesterID
		if !isHost && s.game.ActivePlayerID != requesterID {
			return GameSnapshot{}, nil, ErrNotYourTurn
		}
	}

	switch s.game.Phase {
	case PhaseBunkerReveal:
		s.game.Phase = PhasePresentation
	case PhasePresentation:
		s.game.Phase = PhaseVoting
	case PhaseVoting, PhaseResults, PhaseNone:
		return GameSnapshot{}, nil, ErrPhaseMismatch
	default:
		return GameSnapshot{}, nil, ErrPhaseMismatch
	}

	s.persistLocked()

	events := []Event{{Type: EventPhaseChanged, Phase: s.game.Phase, Round: s.game.Round}}
	return s.snapshotLocked(), events, nil
}

// CastVote records one vote for the current round. Preconditions are
// checked in order and the first failure wins. When the last active
// player votes, resolution runs in the same critical section, so no
// late vote for that round can slip in after completion.
func (s *Session) CastVote(voterID, targetID string) (bool, []Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if s.game.Status != StatusPlaying || s.game.Phase != PhaseVoting {
		return false, nil, ErrPhaseMismatch
	}

	voter := s.roster.byID(voterID)
	if voter == nil || voter.Status != PlayerActive {
		return false, nil, ErrInvalidVoter
	}

	target := s.roster.byID(targetID)
	if target == nil || target.Status != PlayerActive {
		return false, nil, ErrInvalidTarget
	}

	if err := s.tally.cast(voterID, targetID); err != nil {
		return false, nil, err
	}
	voter.Votes = append(voter.Votes, targetID)

	if !s.tally.complete(s.roster.active()) {
		s.persistLocked()
		return false, nil, nil
	}

	events, err := s.resolveVotesLocked()
	if err != nil {
		return true, nil, err
	}

	s.persistLocked()

	return true, events, nil
}

// resolveVotesLocked runs once voting completes: eliminates the vote
// leader (random tie-break), bumps the round, and either opens the
// next round's bunker-reveal phase or finishes the game when the round
// limit is exceeded or the survivor target is reached.
func (s *Session) resolveVotesLocked() ([]Event, error) {
	eliminatedID, counts, err := s.tally.resolve(s.rng)
	if err != nil {
		return nil, err
	}

	if err := s.roster.markEliminated(eliminatedID); err != nil {
		return nil, fmt.Errorf("%w: eliminating %s: %v", ErrInternalInconsistency, eliminatedID, err)
	}

	// The results phase is never rested in: it rides the elimination
	// event, and the room lands on the next bunker-reveal or finished.
	round := s.game.Round
	events := []Event{{
		Type:       EventPlayerEliminated,
		PlayerID:   eliminatedID,
		Phase:      PhaseResults,
		Round:      round,
		VoteCounts: counts,
	}}

	logf(s.cfg, "GAMES: Player %s eliminated from %s in round %d", eliminatedID, s.game.ID, round)

	active := s.roster.active()
	s.game.Round = round + 1

	if s.game.Round > s.game.MaxRounds || len(active) <= s.game.SurvivorTarget {
		s.game.Status = StatusFinished
		s.game.Phase = PhaseNone
		s.game.ActivePlayerID = ""
		s.game.FinishedAt = time.Now()
		s.tally = nil

		logf(s.cfg, "GAMES: Game %s finished after round %d with %d survivors", s.game.ID, round, len(active))

		events = append(events, Event{Type: EventGameFinished, Round: round})
		return events, nil
	}

	s.game.Phase = PhaseBunkerReveal
	s.game.ActivePlayerID = active[0].ID
	s.tally = newTally(s.game.Round)

	events = append(events, Event{Type: EventPhaseChanged, Phase: PhaseBunkerReveal, Round: s.game.Round})
	return events, nil
}
