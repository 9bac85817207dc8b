/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomIDLength   = 6

	classicMaxRounds = 10
	quickMaxRounds   = 5

	maxLabelLength = 64
)

// Registry maps room ids to their Session, so each room is its own
// isolated state machine. The registry mutex only guards the map and
// the shared id source; room state is guarded by each session's own
// mutex.
type Registry struct {
	mu       sync.Mutex
	cfg      *Config
	store    Store
	rng      *rand.Rand
	sessions map[string]*Session

	// onReap, when set, is invoked with each reaped room id after the
	// session is dropped, so the transport layer can tear down the
	// room's hub. Set it before starting reaperLoop.
	onReap func(roomID string)
}

// cryptoSeed derives an rng seed from crypto/rand.
func cryptoSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// newRegistry builds the registry. A non-zero cfg.seed pins every
// room id and tie-break outcome, for reproducible runs.
func newRegistry(cfg *Config, store Store) (*Registry, error) {
	seed := cfg.seed
	if seed == 0 {
		var err error
		seed, err = cryptoSeed()
		if err != nil {
			return nil, err
		}
	}

	return &Registry{
		cfg:      cfg,
		store:    store,
		rng:      rand.New(rand.NewSource(seed)),
		sessions: make(map[string]*Session),
	}, nil
}

// newRoomIDLocked samples a room id uniformly from the fixed alphabet.
// Collisions are not checked here; the store's uniqueness constraint
// surfaces them as ErrRoomIDCollision for the caller to retry.
func (reg *Registry) newRoomIDLocked() string {
	out := make([]byte, roomIDLength)
	for i := range out {
		out[i] = roomIDAlphabet[reg.rng.Intn(len(roomIDAlphabet))]
	}
	return string(out)
}

// CreateRoom allocates a fresh room with the requesting player as
// host. Returns the room id and the host's player id.
func (reg *Registry) CreateRoom(hostID, hostName, label, mode string) (string, string, error) {
	if !validDisplayName(hostName) {
		return "", "", fmt.Errorf("%w: display name must be 1-%d characters", ErrValidation, maxNameLength)
	}
	if len(label) > maxLabelLength {
		return "", "", fmt.Errorf("%w: label must be at most %d characters", ErrValidation, maxLabelLength)
	}
	gameMode, ok := parseGameMode(mode)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown mode %q", ErrValidation, mode)
	}
	if hostID == "" {
		return "", "", fmt.Errorf("%w: missing player identity", ErrValidation)
	}

	reg.mu.Lock()
	id := reg.newRoomIDLocked()
	sessionSeed := reg.rng.Int63()

	if _, exists := reg.sessions[id]; exists {
		reg.mu.Unlock()
		return "", "", ErrRoomIDCollision
	}

	session := newSession(reg.cfg, reg.store, rand.New(rand.NewSource(sessionSeed)), id, label, gameMode)

	if err := reg.store.CreateRoom(session.Snapshot()); err != nil {
		reg.mu.Unlock()
		return "", "", err
	}

	reg.sessions[id] = session
	reg.mu.Unlock()

	host, _, err := session.Join(hostID, hostName)
	if err != nil {
		return "", "", err
	}

	logf(reg.cfg, "GAMES: Created room %s (%s)", id, gameMode)

	return id, host.ID, nil
}

// Lookup returns the session for a room id.
func (reg *Registry) Lookup(id string) (*Session, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	session, ok := reg.sessions[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return session, nil
}

// Snapshot returns the current state of a room. Rooms whose live
// session has been reaped fall back to the durable store, so a
// finished game's final standings stay readable after the state
// machine is released.
func (reg *Registry) Snapshot(id string) (GameSnapshot, error) {
	session, err := reg.Lookup(id)
	if err == nil {
		return session.Snapshot(), nil
	}
	return reg.store.LoadRoom(id)
}

// reaperLoop periodically drops sessions that have sat idle longer
// than the configured timeout. Finished rooms stop being touched, so
// they age out on their own; the store keeps their final snapshot and
// only the live state machine is released.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.cfg.sessionTimeout / 2)
	for range ticker.C {
		reg.reapIdle(time.Now().Add(-reg.cfg.sessionTimeout))
	}
}

func (reg *Registry) reapIdle(cutoff time.Time) {
	reg.mu.Lock()
	var reaped []string
	for id, session := range reg.sessions {
		if session.lastActiveAt().Before(cutoff) {
			delete(reg.sessions, id)
			reaped = append(reaped, id)
			logf(reg.cfg, "GAMES: Reaped session %s", id)
		}
	}
	reg.mu.Unlock()

	if reg.onReap == nil {
		return
	}
	for _, id := range reaped {
		reg.onReap(id)
	}
}
