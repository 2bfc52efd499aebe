package worldmgr

import (
	"context"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// GetObject returns the in-memory object by id.
func (m *Manager) GetObject(objectID string) (model.GameObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objectsByID[objectID]
	if !ok {
		return model.GameObject{}, apperrors.New(apperrors.KindNotFound, "Manager.GetObject", apperrors.ErrNotFound)
	}
	return o, nil
}

// GetRoomObjects returns every object currently lying in roomID.
func (m *Manager) GetRoomObjects(roomID string) []model.GameObject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.GameObject, 0, len(m.objectsByRoom[roomID]))
	for id := range m.objectsByRoom[roomID] {
		out = append(out, m.objectsByID[id])
	}
	return out
}

// GetInventoryObjects returns every object currently held by playerID.
func (m *Manager) GetInventoryObjects(playerID string) []model.GameObject {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.GameObject, 0, len(m.objectsByPlayer[playerID]))
	for id := range m.objectsByPlayer[playerID] {
		out = append(out, m.objectsByID[id])
	}
	return out
}

// location is either {room: roomID} or {player: playerID}, never both.
type location struct {
	roomID   string
	playerID string
}

func roomLoc(id string) location   { return location{roomID: id} }
func playerLoc(id string) location { return location{playerID: id} }

// RoomLocation builds the destination value for CreateObject/MoveObject
// placing an object on the floor of roomID.
func RoomLocation(roomID string) location { return roomLoc(roomID) }

// PlayerLocation builds the destination value for CreateObject/MoveObject
// placing an object in playerID's inventory.
func PlayerLocation(playerID string) location { return playerLoc(playerID) }

// MoveObject relocates objectID from its current location to dst
// (either a room or a player inventory). Room-to-room and
// room-involving moves take the affected rooms' locks in the fixed
// ascending order via lockRooms so a simultaneous move in the
// opposite direction can never deadlock.
func (m *Manager) MoveObject(ctx context.Context, objectID string, dst location) error {
	m.mu.RLock()
	_, ok := m.objectsByID[objectID]
	m.mu.RUnlock()
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "Manager.MoveObject", apperrors.ErrNotFound)
	}

	srcRoom, srcPlayer := m.currentObjectLocation(objectID)

	unlock := m.lockRooms(srcRoom, dst.roomID)
	defer unlock()

	var dbRoomID, dbOwnerID string
	m.mu.Lock()
	if srcRoom != "" {
		delete(m.objectsByRoom[srcRoom], objectID)
	}
	if srcPlayer != "" {
		delete(m.objectsByPlayer[srcPlayer], objectID)
	}

	switch {
	case dst.roomID != "":
		m.indexObjectInRoom(dst.roomID, objectID)
		dbRoomID = dst.roomID
	case dst.playerID != "":
		m.indexObjectInInventory(dst.playerID, objectID)
		dbOwnerID = dst.playerID
	}
	m.mu.Unlock()

	return m.objects.UpdateLocation(ctx, objectID, dbRoomID, dbOwnerID)
}

func (m *Manager) currentObjectLocation(objectID string) (roomID, playerID string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for rid, set := range m.objectsByRoom {
		if set[objectID] {
			return rid, ""
		}
	}
	for pid, set := range m.objectsByPlayer {
		if set[objectID] {
			return "", pid
		}
	}
	return "", ""
}

// CreateObject persists a new object and places it at dst. An object
// id that already exists is a no-op success, matching CreateRoom's
// idempotent-create rule (spec.md §4.4) for re-run world seeding.
func (m *Manager) CreateObject(ctx context.Context, obj model.GameObject, dst location) error {
	if err := obj.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	_, exists := m.objectsByID[obj.ID]
	m.mu.RUnlock()
	if exists {
		return nil
	}

	if err := m.objects.Create(ctx, obj, dst.roomID, dst.playerID); err != nil {
		return err
	}

	m.mu.Lock()
	m.objectsByID[obj.ID] = obj
	switch {
	case dst.roomID != "":
		m.indexObjectInRoom(dst.roomID, obj.ID)
	case dst.playerID != "":
		m.indexObjectInInventory(dst.playerID, obj.ID)
	}
	m.mu.Unlock()
	return nil
}

// DeleteObject removes an object from storage and every index.
func (m *Manager) DeleteObject(ctx context.Context, objectID string) error {
	if err := m.objects.Delete(ctx, objectID); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objectsByID, objectID)
	for _, set := range m.objectsByRoom {
		delete(set, objectID)
	}
	for _, set := range m.objectsByPlayer {
		delete(set, objectID)
	}
	m.mu.Unlock()
	return nil
}
