package combat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holdfast-mud/holdfast/internal/events"
	"github.com/holdfast-mud/holdfast/internal/locale"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/store"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

// fakePlayers is an in-memory PlayerStore double, avoiding the need to
// round-trip through the sqlite-backed repository for combat math
// tests.
type fakePlayers struct {
	byID map[string]model.Player
}

func newFakePlayers() *fakePlayers { return &fakePlayers{byID: make(map[string]model.Player)} }

func (f *fakePlayers) GetPlayer(playerID string) (model.Player, error) {
	p, ok := f.byID[playerID]
	if !ok {
		return model.Player{}, errNotFound{}
	}
	return p, nil
}

func (f *fakePlayers) SavePlayer(p model.Player) error {
	f.byID[p.ID] = p
	return nil
}

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

// fakeChat records every broadcast so tests can assert on combat
// narration without a real session registry.
type fakeChat struct {
	lines []string
}

func (f *fakeChat) BroadcastRoom(roomID, message, exclude string) { f.lines = append(f.lines, message) }
func (f *fakeChat) BroadcastGlobal(message string)                { f.lines = append(f.lines, message) }

// newTestWorld hydrates a worldmgr.Manager against an in-memory sqlite
// database with one room and one monster template, mirroring the
// shape of a real boot sequence (internal/store.Open + Migrate).
func newTestWorld(t *testing.T) (*worldmgr.Manager, string, string) {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rooms := store.NewRoomRepository(db)
	objects := store.NewObjectRepository(db)
	monsters := store.NewMonsterTemplateRepository(db)

	room := model.NewRoom("room-1", locale.New("Test Chamber"), locale.New("A bare stone chamber."))
	room.SpawnPoints = []model.SpawnRule{{TemplateID: "rat", Count: 1, RespawnTime: 30}}
	if err := rooms.Create(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}

	tpl := model.MonsterTemplate{
		ID:               "rat",
		Name:             locale.New("Sewer Rat"),
		Description:      locale.New("A mangy rat."),
		Stats:            model.NewStatBlock(8, 8, 8, 4, 4, 4, 1),
		MonsterType:      model.MonsterTypeAggressive,
		Behavior:         model.BehaviorStationary,
		GoldReward:       5,
		ExperienceReward: 10,
		RespawnTime:      30,
	}
	if err := monsters.Create(ctx, tpl); err != nil {
		t.Fatalf("create template: %v", err)
	}

	world := worldmgr.New(rooms, objects, monsters)
	if err := world.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	monsterID, err := world.SpawnMonster("room-1", "rat")
	if err != nil {
		t.Fatalf("spawn monster: %v", err)
	}

	return world, "room-1", monsterID
}

func newTestPlayer(id string) model.Player {
	p := model.NewPlayer(id, "hero-"+id, "hash", "room-1")
	p.Stats = model.NewStatBlock(16, 12, 12, 8, 8, 8, 3)
	return p
}

func TestStartCombatRequiresPlayerAndMonster(t *testing.T) {
	world, roomID, _ := newTestWorld(t)
	players := newFakePlayers()
	mgr := NewManager(world, players, &fakeChat{}, events.NewBus(), time.Minute)

	if _, err := mgr.StartCombat(roomID, []string{"ghost-player"}); err == nil {
		t.Fatal("expected error starting combat with no monster present")
	}
}

func TestCombatResolvesToVictory(t *testing.T) {
	world, roomID, monsterID := newTestWorld(t)
	players := newFakePlayers()
	chat := &fakeChat{}
	mgr := NewManager(world, players, chat, events.NewBus(), time.Minute)

	hero := newTestPlayer(uuid.NewString())
	players.byID[hero.ID] = hero

	instID, err := mgr.StartCombat(roomID, []string{hero.ID, monsterID})
	if err != nil {
		t.Fatalf("StartCombat: %v", err)
	}
	if !mgr.InCombat(hero.ID) {
		t.Fatal("expected hero to be marked in combat")
	}

	ended := false
	for i := 0; i < 50 && !ended; i++ {
		if !mgr.InCombat(hero.ID) {
			ended = true
			break
		}
		result := mgr.Act(hero.ID, "attack", "")
		if !result.Success {
			t.Fatalf("attack failed unexpectedly: %s", result.Message)
		}
	}

	if !ended {
		t.Fatal("combat did not resolve within 50 player turns")
	}
	if mgr.ActiveInstanceCount() != 0 {
		t.Fatalf("expected instance %s to be torn down, got %d still active", instID, mgr.ActiveInstanceCount())
	}

	final, err := players.GetPlayer(hero.ID)
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if final.Experience == 0 && final.Gold == 0 {
		t.Error("expected the killer to receive experience or gold on victory")
	}
}

func TestDefendHalvesIncomingDamage(t *testing.T) {
	world, roomID, monsterID := newTestWorld(t)
	players := newFakePlayers()
	chat := &fakeChat{}
	mgr := NewManager(world, players, chat, events.NewBus(), time.Minute)

	hero := newTestPlayer(uuid.NewString())
	hero.Stats.Speed = 1000 // force hero to always act first
	players.byID[hero.ID] = hero

	if _, err := mgr.StartCombat(roomID, []string{hero.ID, monsterID}); err != nil {
		t.Fatalf("StartCombat: %v", err)
	}

	result := mgr.Act(hero.ID, "defend", "")
	if !result.Success {
		t.Fatalf("defend failed: %s", result.Message)
	}

	// The rat's auto-turn follows the defend. Rat attack 17 against hero
	// defense 18 deals at most int((17*1.2-9)*1.5) = 17 on a critical;
	// halved by the stance that is at most 8.
	inst := mgr.instances[mgr.byPlayer[hero.ID]]
	if c := inst.Combatants[hero.ID]; c.MaxHP-c.HP > 8 {
		t.Fatalf("defending hero lost %d hp, want at most 8 (halved damage)", c.MaxHP-c.HP)
	}
}

func TestFleeRemovesCombatantOnSuccess(t *testing.T) {
	// resolveFlee is probabilistic; exercise it enough times that a
	// success is overwhelmingly likely, and assert the invariant holds
	// whenever it does succeed: the fleeing player is no longer tracked
	// as in combat.
	for attempt := 0; attempt < 20; attempt++ {
		world, roomID, monsterID := newTestWorld(t)
		players := newFakePlayers()
		mgr := NewManager(world, players, &fakeChat{}, events.NewBus(), time.Minute)

		hero := newTestPlayer(uuid.NewString())
		hero.Stats.Speed = 1000
		players.byID[hero.ID] = hero

		if _, err := mgr.StartCombat(roomID, []string{hero.ID, monsterID}); err != nil {
			t.Fatalf("StartCombat: %v", err)
		}

		result := mgr.Act(hero.ID, "flee", "")
		if result.Message == "You flee from combat." && mgr.InCombat(hero.ID) {
			t.Fatal("fled player should no longer be tracked as in combat")
		}
	}
}

func TestStatusDoesNotConsumeATurn(t *testing.T) {
	world, roomID, monsterID := newTestWorld(t)
	players := newFakePlayers()
	mgr := NewManager(world, players, &fakeChat{}, events.NewBus(), time.Minute)

	hero := newTestPlayer(uuid.NewString())
	hero.Stats.Speed = 1000
	players.byID[hero.ID] = hero

	if _, err := mgr.StartCombat(roomID, []string{hero.ID, monsterID}); err != nil {
		t.Fatalf("StartCombat: %v", err)
	}

	first := mgr.Act(hero.ID, "status", "")
	second := mgr.Act(hero.ID, "status", "")
	if !first.Success || !second.Success {
		t.Fatal("status should always succeed while in combat")
	}
	// Still the hero's turn after two status checks, proven by attack
	// succeeding immediately afterward.
	if res := mgr.Act(hero.ID, "attack", ""); !res.Success {
		t.Fatalf("expected attack to still be the hero's turn: %s", res.Message)
	}
}

func TestSweepTimeoutsForcesWaitOnStalledPlayer(t *testing.T) {
	world, roomID, monsterID := newTestWorld(t)
	players := newFakePlayers()
	mgr := NewManager(world, players, &fakeChat{}, events.NewBus(), time.Millisecond)

	hero := newTestPlayer(uuid.NewString())
	hero.Stats.Speed = 1000
	players.byID[hero.ID] = hero

	if _, err := mgr.StartCombat(roomID, []string{hero.ID, monsterID}); err != nil {
		t.Fatalf("StartCombat: %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	n := mgr.SweepTimeouts(time.Now())
	if n == 0 {
		t.Error("expected the stalled hero's turn to be nudged")
	}
}
