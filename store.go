/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"
)

// Store is the durable persistence surface the engine writes room
// snapshots through. The engine never retries store failures; callers
// do. CreateRoom must enforce id uniqueness and surface a collision as
// ErrRoomIDCollision so the creating caller can retry with a fresh id.
type Store interface {
	CreateRoom(snap GameSnapshot) error
	SaveRoom(snap GameSnapshot) error
	LoadRoom(id string) (GameSnapshot, error)
}

// memStore keeps snapshots in a map. Good enough for a single-binary
// deployment; anything longer-lived plugs in behind Store.
type memStore struct {
	mu    sync.Mutex
	rooms map[string]GameSnapshot
}

func newMemStore() *memStore {
	return &memStore{
		rooms: make(map[string]GameSnapshot),
	}
}

func (s *memStore) CreateRoom(snap GameSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[snap.ID]; exists {
		return ErrRoomIDCollision
	}
	s.rooms[snap.ID] = snap

	return nil
}

func (s *memStore) SaveRoom(snap GameSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[snap.ID] = snap

	return nil
}

func (s *memStore) LoadRoom(id string) (GameSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.rooms[id]
	if !ok {
		return GameSnapshot{}, ErrRoomNotFound
	}

	return snap, nil
}
