package command

import (
	"context"
	"testing"

	"github.com/holdfast-mud/holdfast/internal/locale"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/store"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

// fakePlayers is an in-memory PlayerStore double, the command
// package's counterpart to combat's test double of the same shape.
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

func (f *fakePlayers) FindPlayerByUsername(username string) (model.Player, error) {
	for _, p := range f.byID {
		if p.Username == username {
			return p, nil
		}
	}
	return model.Player{}, errNotFound{}
}

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

// fakeMover records every move request so handleGo's combat guard can
// be tested without a real movement.Manager.
type fakeMover struct {
	called bool
}

func (f *fakeMover) MovePlayerToRoom(playerID, fromRoom, direction string) Result {
	f.called = true
	return OkData("You move to somewhere.", map[string]interface{}{"room_id": "elsewhere"})
}

// fakeCombatant reports a fixed in-combat status and records Act
// calls, standing in for internal/combat's Manager.
type fakeCombatant struct {
	inCombat bool
	acted    []string
}

func (f *fakeCombatant) StartCombat(roomID string, participantIDs []string) (string, error) {
	return "inst-1", nil
}
func (f *fakeCombatant) Act(playerID, action, targetID string) Result {
	f.acted = append(f.acted, action)
	return Ok("acted")
}
func (f *fakeCombatant) InCombat(playerID string) bool { return f.inCombat }

type fakeBroadcaster struct {
	lines []string
}

func (f *fakeBroadcaster) BroadcastRoom(roomID, message, exclude string) { f.lines = append(f.lines, message) }
func (f *fakeBroadcaster) BroadcastGlobal(message string)                { f.lines = append(f.lines, message) }
func (f *fakeBroadcaster) Tell(fromPlayerID, toUsername, message string) error { return nil }
func (f *fakeBroadcaster) Gossip(fromUsername, message string)          {}

// newTestWorld hydrates a worldmgr.Manager against an in-memory
// sqlite database with one seeded room, the command package's
// counterpart to combat's manager_test.go helper of the same name.
func newTestWorld(t *testing.T) *worldmgr.Manager {
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
	room.Exits[model.North] = "room-2"
	if err := rooms.Create(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := rooms.Create(ctx, model.NewRoom("room-2", locale.New("North Room"), locale.New("Another room."))); err != nil {
		t.Fatalf("create room-2: %v", err)
	}

	world := worldmgr.New(rooms, objects, monsters)
	if err := world.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return world
}

func newTestContext(t *testing.T) (*Context, *fakePlayers, *fakeCombatant, *fakeMover) {
	world := newTestWorld(t)
	players := newFakePlayers()
	players.byID["hero-1"] = model.NewPlayer("hero-1", "hero", "hash", "room-1")
	world.IndexPlayerInRoom("room-1", "hero-1")

	combat := &fakeCombatant{}
	mover := &fakeMover{}
	ctx := &Context{
		PlayerID: "hero-1",
		Username: "hero",
		Locale:   "en",
		World:    world,
		Players:  players,
		Movement: mover,
		Combat:   combat,
		Chat:     &fakeBroadcaster{},
	}
	return ctx, players, combat, mover
}

func TestHandleLookRendersRoomDescription(t *testing.T) {
	ctx, _, _, _ := newTestContext(t)

	result := handleLook(ctx, "")
	if !result.Success {
		t.Fatalf("handleLook failed: %s", result.Message)
	}
	if got := result.Message; got == "" {
		t.Fatal("expected a non-empty room description")
	}
}

func TestHandleGoDelegatesToMovementWhenNotInCombat(t *testing.T) {
	ctx, _, combat, mover := newTestContext(t)
	combat.inCombat = false

	result := handleGo(ctx, "north")
	if !result.Success {
		t.Fatalf("handleGo failed: %s", result.Message)
	}
	if !mover.called {
		t.Fatal("expected handleGo to delegate to the movement manager")
	}
}

func TestHandleGoRefusesToLeaveCombat(t *testing.T) {
	ctx, _, combat, mover := newTestContext(t)
	combat.inCombat = true

	result := handleGo(ctx, "north")
	if result.Success {
		t.Fatal("expected handleGo to refuse movement while in combat")
	}
	if mover.called {
		t.Fatal("handleGo must not reach the movement manager while in combat")
	}
}

func TestHandleAttackDelegatesToCombatActWhenAlreadyFighting(t *testing.T) {
	ctx, _, combat, _ := newTestContext(t)
	combat.inCombat = true

	result := handleAttack(ctx, "")
	if !result.Success {
		t.Fatalf("handleAttack failed: %s", result.Message)
	}
	if len(combat.acted) != 1 || combat.acted[0] != "attack" {
		t.Fatalf("expected a single attack action, got %v", combat.acted)
	}
}

func TestHandleDefendRequiresCombat(t *testing.T) {
	ctx, _, combat, _ := newTestContext(t)
	combat.inCombat = false

	result := handleDefend(ctx, "")
	if result.Success {
		t.Fatal("expected handleDefend to fail outside combat")
	}
}

func TestHandleGetAndDrop(t *testing.T) {
	ctx, players, _, _ := newTestContext(t)

	obj := model.GameObject{ID: "sword-1", Name: locale.New("Iron Sword"), Kind: model.ObjectKindWeapon}
	if err := ctx.World.CreateObject(context.Background(), obj, worldmgr.RoomLocation("room-1")); err != nil {
		t.Fatalf("CreateObject: %v", err)
	}

	get := handleGet(ctx, "sword")
	if !get.Success {
		t.Fatalf("handleGet failed: %s", get.Message)
	}
	hero := players.byID["hero-1"]
	if len(hero.Inventory) != 1 || hero.Inventory[0] != "sword-1" {
		t.Fatalf("expected sword-1 in inventory, got %v", hero.Inventory)
	}

	drop := handleDrop(ctx, "sword")
	if !drop.Success {
		t.Fatalf("handleDrop failed: %s", drop.Message)
	}
	hero = players.byID["hero-1"]
	if len(hero.Inventory) != 0 {
		t.Fatalf("expected empty inventory after drop, got %v", hero.Inventory)
	}
}

func TestHandleCreateRoomIsIdempotent(t *testing.T) {
	ctx, _, _, _ := newTestContext(t)
	ctx.IsAdmin = true

	first := handleCreateRoom(ctx, "vault A Locked Vault")
	if !first.Success {
		t.Fatalf("first createroom failed: %s", first.Message)
	}
	second := handleCreateRoom(ctx, "vault A Locked Vault")
	if !second.Success {
		t.Fatalf("re-running createroom with the same id should succeed as a no-op, got: %s", second.Message)
	}
}
