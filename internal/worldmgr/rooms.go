package worldmgr

import (
	"context"
	"fmt"
	"sync"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// GetRoom returns the in-memory room by id.
func (m *Manager) GetRoom(roomID string) (model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.roomsByID[roomID]
	if !ok {
		return model.Room{}, apperrors.New(apperrors.KindNotFound, "Manager.GetRoom", apperrors.ErrNoSuchRoom)
	}
	return r, nil
}

// CreateRoom validates, persists, and indexes a new room. A room id
// that already exists is a no-op success rather than a conflict, per
// spec.md §4.4's idempotent-create rule for seed data: re-running
// world seeding must not error or duplicate anything.
func (m *Manager) CreateRoom(ctx context.Context, room model.Room) error {
	if err := room.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	_, exists := m.roomsByID[room.ID]
	m.mu.RUnlock()
	if exists {
		return nil
	}

	if err := m.rooms.Create(ctx, room); err != nil {
		return err
	}

	m.mu.Lock()
	m.roomsByID[room.ID] = room
	m.roomLocks[room.ID] = &sync.Mutex{}
	m.objectsByRoom[room.ID] = make(map[string]bool)
	m.monstersByRoom[room.ID] = make(map[string]bool)
	m.playersByRoom[room.ID] = make(map[string]bool)
	m.mu.Unlock()

	return nil
}

// UpdateRoom validates exit targets against the live room index (every
// exit must point at a room that exists), persists, and re-indexes.
func (m *Manager) UpdateRoom(ctx context.Context, room model.Room) error {
	if err := room.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	for dir, target := range room.Exits {
		if _, ok := m.roomsByID[target]; !ok {
			m.mu.RUnlock()
			return apperrors.New(apperrors.KindInput, "Manager.UpdateRoom",
				fmt.Errorf("%w: exit %s points at missing room %s", apperrors.ErrNoSuchExit, dir, target))
		}
	}
	m.mu.RUnlock()

	if err := m.rooms.Update(ctx, room); err != nil {
		return err
	}

	m.mu.Lock()
	m.roomsByID[room.ID] = room
	m.mu.Unlock()

	return nil
}

// DeleteRoom removes a room from storage and the index. Rooms with
// live occupants (players, monsters, objects) are refused.
func (m *Manager) DeleteRoom(ctx context.Context, roomID string) error {
	m.mu.RLock()
	occupied := len(m.playersByRoom[roomID]) > 0 || len(m.monstersByRoom[roomID]) > 0 || len(m.objectsByRoom[roomID]) > 0
	m.mu.RUnlock()

	if occupied {
		return apperrors.New(apperrors.KindState, "Manager.DeleteRoom", apperrors.ErrConflict)
	}

	if err := m.rooms.Delete(ctx, roomID); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.roomsByID, roomID)
	delete(m.roomLocks, roomID)
	delete(m.objectsByRoom, roomID)
	delete(m.monstersByRoom, roomID)
	delete(m.playersByRoom, roomID)
	delete(m.spawnPoints, roomID)
	m.mu.Unlock()

	return nil
}

// PlayersInRoom returns the ids of players currently indexed in room.
func (m *Manager) PlayersInRoom(roomID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.playersByRoom[roomID]))
	for id := range m.playersByRoom[roomID] {
		out = append(out, id)
	}
	return out
}

// IndexPlayerInRoom records that playerID is now physically present
// in roomID; used by movement when a player joins or leaves a room's
// occupant set.
func (m *Manager) IndexPlayerInRoom(roomID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playersByRoom[roomID] == nil {
		m.playersByRoom[roomID] = make(map[string]bool)
	}
	m.playersByRoom[roomID][playerID] = true
}

// UnindexPlayerFromRoom removes playerID from roomID's occupant set.
func (m *Manager) UnindexPlayerFromRoom(roomID, playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.playersByRoom[roomID], playerID)
}

// RoomsWithPlayers returns the ids of every room that currently has at
// least one player present, used by the scheduler's roam-step sweep to
// avoid running an aggro check against empty rooms.
func (m *Manager) RoomsWithPlayers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0)
	for roomID, occupants := range m.playersByRoom {
		if len(occupants) > 0 {
			out = append(out, roomID)
		}
	}
	return out
}
