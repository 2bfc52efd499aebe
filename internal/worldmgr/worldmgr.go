// Package worldmgr holds the authoritative in-memory world state: the
// indices by id and by room that every other package queries, backed
// by the repository layer in internal/store. Unlike the teacher,
// which keeps World as a single struct behind one coarse mutex,
// Manager gives each room its own mutex and enforces a fixed lock
// ordering (ascending room id) whenever an operation must hold more
// than one room's lock at a time, so moving an object or player
// between two rooms can never deadlock against the reverse move
// happening concurrently on another goroutine.
package worldmgr

import (
	"context"
	"sort"
	"sync"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/store"
)

// Manager owns every room, object, and monster in the world, and the
// indices that relate them.
type Manager struct {
	rooms    *store.RoomRepository
	objects  *store.ObjectRepository
	monsters *store.MonsterTemplateRepository

	mu sync.RWMutex

	roomsByID     map[string]model.Room
	objectsByID   map[string]model.GameObject
	templatesByID map[string]model.MonsterTemplate
	monstersByID  map[string]model.Monster

	objectsByRoom   map[string]map[string]bool
	objectsByPlayer map[string]map[string]bool
	monstersByRoom  map[string]map[string]bool
	playersByRoom   map[string]map[string]bool

	spawnPoints map[string][]model.SpawnPoint // room id -> its spawn points

	roomLocks map[string]*sync.Mutex
}

// New creates an empty Manager over the given repositories. Call
// Hydrate before serving traffic.
func New(rooms *store.RoomRepository, objects *store.ObjectRepository, monsters *store.MonsterTemplateRepository) *Manager {
	return &Manager{
		rooms:           rooms,
		objects:         objects,
		monsters:        monsters,
		roomsByID:       make(map[string]model.Room),
		objectsByID:     make(map[string]model.GameObject),
		templatesByID:   make(map[string]model.MonsterTemplate),
		monstersByID:    make(map[string]model.Monster),
		objectsByRoom:   make(map[string]map[string]bool),
		objectsByPlayer: make(map[string]map[string]bool),
		monstersByRoom:  make(map[string]map[string]bool),
		playersByRoom:   make(map[string]map[string]bool),
		spawnPoints:     make(map[string][]model.SpawnPoint),
		roomLocks:       make(map[string]*sync.Mutex),
	}
}

// Hydrate loads every room, object, and monster template from storage
// into memory and rebuilds the room/inventory indices. It must run
// once, before the manager is exposed to any session.
func (m *Manager) Hydrate(ctx context.Context) error {
	rooms, err := m.rooms.ListAll(ctx)
	if err != nil {
		return apperrors.New(apperrors.KindInternal, "Manager.Hydrate", err)
	}

	objs, objRooms, objOwners, err := m.objects.ListAll(ctx)
	if err != nil {
		return apperrors.New(apperrors.KindInternal, "Manager.Hydrate", err)
	}

	templates, err := m.monsters.ListAll(ctx)
	if err != nil {
		return apperrors.New(apperrors.KindInternal, "Manager.Hydrate", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rooms {
		m.roomsByID[r.ID] = r
		m.roomLocks[r.ID] = &sync.Mutex{}
		m.objectsByRoom[r.ID] = make(map[string]bool)
		m.monstersByRoom[r.ID] = make(map[string]bool)
		m.playersByRoom[r.ID] = make(map[string]bool)
		m.spawnPoints[r.ID] = make([]model.SpawnPoint, 0, len(r.SpawnPoints))
		for _, rule := range r.SpawnPoints {
			m.spawnPoints[r.ID] = append(m.spawnPoints[r.ID], model.NewSpawnPoint(r.ID, rule))
		}
	}

	for i, o := range objs {
		m.objectsByID[o.ID] = o
		switch {
		case objRooms[i] != "":
			m.indexObjectInRoom(objRooms[i], o.ID)
		case objOwners[i] != "":
			m.indexObjectInInventory(objOwners[i], o.ID)
		}
	}

	for _, t := range templates {
		m.templatesByID[t.ID] = t
	}

	return nil
}

func (m *Manager) indexObjectInRoom(roomID, objectID string) {
	if m.objectsByRoom[roomID] == nil {
		m.objectsByRoom[roomID] = make(map[string]bool)
	}
	m.objectsByRoom[roomID][objectID] = true
}

func (m *Manager) indexObjectInInventory(playerID, objectID string) {
	if m.objectsByPlayer[playerID] == nil {
		m.objectsByPlayer[playerID] = make(map[string]bool)
	}
	m.objectsByPlayer[playerID][objectID] = true
}

// lockRooms locks the mutexes for the given room ids in ascending
// order and returns a function that unlocks them in reverse. Callers
// that need to touch two rooms (a move from A to B) must always go
// through this helper rather than locking ad hoc, so the ordering
// invariant holds globally.
func (m *Manager) lockRooms(roomIDs ...string) func() {
	unique := make(map[string]bool, len(roomIDs))
	var ids []string
	for _, id := range roomIDs {
		if id == "" || unique[id] {
			continue
		}
		unique[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)

	m.mu.RLock()
	locks := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		if l, ok := m.roomLocks[id]; ok {
			locks = append(locks, l)
		}
	}
	m.mu.RUnlock()

	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}
