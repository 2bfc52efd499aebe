package worldmgr

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// GetMonster returns the live monster instance by runtime id.
func (m *Manager) GetMonster(monsterID string) (model.Monster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mo, ok := m.monstersByID[monsterID]
	if !ok {
		return model.Monster{}, apperrors.New(apperrors.KindNotFound, "Manager.GetMonster", apperrors.ErrNotFound)
	}
	return mo, nil
}

// GetRoomMonsters returns every monster currently alive in roomID.
func (m *Manager) GetRoomMonsters(roomID string) []model.Monster {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Monster, 0, len(m.monstersByRoom[roomID]))
	for id := range m.monstersByRoom[roomID] {
		out = append(out, m.monstersByID[id])
	}
	return out
}

// SpawnMonster instantiates a live Monster from templateID into
// roomID, enforcing the room's spawn point cap for that template. It
// returns the new monster's runtime id.
func (m *Manager) SpawnMonster(roomID, templateID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tpl, ok := m.templatesByID[templateID]
	if !ok {
		return "", apperrors.New(apperrors.KindNotFound, "Manager.SpawnMonster", apperrors.ErrNotFound)
	}

	points := m.spawnPoints[roomID]
	idx := -1
	for i, sp := range points {
		if sp.TemplateID == templateID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", apperrors.New(apperrors.KindState, "Manager.SpawnMonster",
			fmt.Errorf("room %s has no spawn point for template %s", roomID, templateID))
	}
	if !points[idx].HasCapacity() {
		return "", apperrors.New(apperrors.KindState, "Manager.SpawnMonster", apperrors.ErrConflict)
	}

	runtimeID := uuid.NewString()
	monster := model.NewMonsterFromTemplate(runtimeID, tpl, roomID)

	m.monstersByID[runtimeID] = monster
	if m.monstersByRoom[roomID] == nil {
		m.monstersByRoom[roomID] = make(map[string]bool)
	}
	m.monstersByRoom[roomID][runtimeID] = true
	m.spawnPoints[roomID][idx] = points[idx].WithSpawned(runtimeID)

	return runtimeID, nil
}

// DespawnMonster removes a live monster from the world and frees its
// spawn point slot. deathRespawn, if non-zero, arms that spawn point's
// NextRespawn timer so a later scheduler sweep can refill it; pass 0
// for an admin despawn that shouldn't trigger a respawn.
func (m *Manager) DespawnMonster(roomID, monsterID string, deathRespawn time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	monster, ok := m.monstersByID[monsterID]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "Manager.DespawnMonster", apperrors.ErrNotFound)
	}

	delete(m.monstersByID, monsterID)
	delete(m.monstersByRoom[roomID], monsterID)

	points := m.spawnPoints[roomID]
	for i, sp := range points {
		if sp.TemplateID == monster.TemplateID {
			sp = sp.WithDespawned(monsterID)
			if deathRespawn > 0 {
				sp.NextRespawn = time.Now().Add(deathRespawn).Unix()
			}
			m.spawnPoints[roomID][i] = sp
			break
		}
	}
	return nil
}

// UpdateMonster writes back a live monster's mutated fields (HP after
// combat damage, in particular) to the in-memory index. Monsters are
// not persisted individually per spec.md §4.1, so there is no
// repository call here.
func (m *Manager) UpdateMonster(mo model.Monster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.monstersByID[mo.ID]; ok {
		m.monstersByID[mo.ID] = mo
	}
}

// RunRespawnSweep spawns a fresh monster for every spawn point whose
// NextRespawn has elapsed, clearing the timer whether or not the spawn
// succeeds (a full room tries again next time a slot frees up via
// normal capacity checks). It returns the number of monsters spawned.
func (m *Manager) RunRespawnSweep(now time.Time) int {
	m.mu.Lock()
	type job struct{ roomID, templateID string }
	var jobs []job
	for roomID, points := range m.spawnPoints {
		for i, sp := range points {
			if sp.NextRespawn != 0 && now.Unix() >= sp.NextRespawn {
				jobs = append(jobs, job{roomID, sp.TemplateID})
				m.spawnPoints[roomID][i].NextRespawn = 0
			}
		}
	}
	m.mu.Unlock()

	spawned := 0
	for _, j := range jobs {
		if _, err := m.SpawnMonster(j.roomID, j.templateID); err == nil {
			spawned++
		}
	}
	return spawned
}

// RoamStep relocates a subset of roaming-behavior monsters to a exit
// of their current room chosen by pick, the scheduler's
// monster-roam-step event. pick receives both the room and the
// specific monster considering a move, so a caller wiring in
// per-template AI scripting can key its decision on the monster
// rather than only the room. Monsters currently in combat are left
// alone by the caller, which should skip ids the combat engine
// reports as active.
func (m *Manager) RoamStep(pick func(room model.Room, mo model.Monster) (string, bool)) int {
	m.mu.Lock()
	type move struct {
		monsterID          string
		fromRoom, toRoom   string
	}
	var moves []move
	for roomID, ids := range m.monstersByRoom {
		room, ok := m.roomsByID[roomID]
		if !ok {
			continue
		}
		for id := range ids {
			mo := m.monstersByID[id]
			if mo.Behavior != model.BehaviorRoaming {
				continue
			}
			if target, ok := pick(room, mo); ok {
				moves = append(moves, move{id, roomID, target})
			}
		}
	}
	m.mu.Unlock()

	moved := 0
	for _, mv := range moves {
		m.mu.Lock()
		if _, ok := m.roomsByID[mv.toRoom]; ok {
			delete(m.monstersByRoom[mv.fromRoom], mv.monsterID)
			if m.monstersByRoom[mv.toRoom] == nil {
				m.monstersByRoom[mv.toRoom] = make(map[string]bool)
			}
			m.monstersByRoom[mv.toRoom][mv.monsterID] = true
			mo := m.monstersByID[mv.monsterID]
			mo.CurrentRoomID = mv.toRoom
			m.monstersByID[mv.monsterID] = mo
			moved++
		}
		m.mu.Unlock()
	}
	return moved
}

// SpawnMonstersInAllRooms fills every room's spawn points up to cap.
// Rooms already at capacity for a template are skipped. It returns
// the number of monsters actually spawned.
func (m *Manager) SpawnMonstersInAllRooms() int {
	m.mu.RLock()
	type job struct{ roomID, templateID string }
	var jobs []job
	for roomID, points := range m.spawnPoints {
		for _, sp := range points {
			for n := len(sp.AliveIDs); n < sp.Cap; n++ {
				jobs = append(jobs, job{roomID, sp.TemplateID})
			}
		}
	}
	m.mu.RUnlock()

	spawned := 0
	for _, j := range jobs {
		if _, err := m.SpawnMonster(j.roomID, j.templateID); err == nil {
			spawned++
		}
	}
	return spawned
}
