package movement

import (
	"context"
	"testing"

	"github.com/holdfast-mud/holdfast/internal/locale"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/store"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

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

type fakeChat struct {
	lines []string
}

func (f *fakeChat) BroadcastRoom(roomID, message, exclude string) { f.lines = append(f.lines, message) }

type fakeAggro struct {
	checked []string
}

func (f *fakeAggro) CheckAggro(playerID, roomID string) { f.checked = append(f.checked, roomID) }

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

	south := model.NewRoom("room-1", locale.New("South Room"), locale.New("A plain room."))
	south.Exits[model.North] = "room-2"
	if err := rooms.Create(ctx, south); err != nil {
		t.Fatalf("create room-1: %v", err)
	}
	north := model.NewRoom("room-2", locale.New("North Room"), locale.New("Another plain room."))
	north.Exits[model.South] = "room-1"
	if err := rooms.Create(ctx, north); err != nil {
		t.Fatalf("create room-2: %v", err)
	}

	world := worldmgr.New(rooms, objects, monsters)
	if err := world.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return world
}

func TestMovePlayerToRoomFollowsExit(t *testing.T) {
	world := newTestWorld(t)
	players := newFakePlayers()
	players.byID["hero-1"] = model.NewPlayer("hero-1", "hero", "hash", "room-1")
	world.IndexPlayerInRoom("room-1", "hero-1")

	chat := &fakeChat{}
	mgr := New(world, players, chat, &fakeAggro{})

	result := mgr.MovePlayerToRoom("hero-1", "room-1", "north")
	if !result.Success {
		t.Fatalf("move failed: %s", result.Message)
	}
	if players.byID["hero-1"].RoomID != "room-2" {
		t.Fatalf("expected hero-1 relocated to room-2, got %s", players.byID["hero-1"].RoomID)
	}
	if got := world.PlayersInRoom("room-1"); len(got) != 0 {
		t.Fatalf("expected room-1 empty after move, got %v", got)
	}
	if got := world.PlayersInRoom("room-2"); len(got) != 1 || got[0] != "hero-1" {
		t.Fatalf("expected hero-1 indexed in room-2, got %v", got)
	}
}

func TestMovePlayerToRoomDescribesDestinationLikeLook(t *testing.T) {
	world := newTestWorld(t)
	players := newFakePlayers()
	players.byID["hero-1"] = model.NewPlayer("hero-1", "hero", "hash", "room-1")
	world.IndexPlayerInRoom("room-1", "hero-1")

	mgr := New(world, players, &fakeChat{}, &fakeAggro{})

	result := mgr.MovePlayerToRoom("hero-1", "room-1", "north")
	if !result.Success {
		t.Fatalf("move failed: %s", result.Message)
	}
	if result.Message == "You move to North Room." || result.Message == "" {
		t.Fatalf("expected a full look-equivalent description, got %q", result.Message)
	}
	if got, ok := result.Data.(map[string]interface{}); !ok || got["room_id"] != "room-2" {
		t.Fatalf("expected room_id data of room-2, got %#v", result.Data)
	}
}

func TestMovePlayerToOwnCurrentRoomIsNoOp(t *testing.T) {
	world := newTestWorld(t)
	players := newFakePlayers()
	players.byID["hero-1"] = model.NewPlayer("hero-1", "hero", "hash", "room-1")
	world.IndexPlayerInRoom("room-1", "hero-1")

	chat := &fakeChat{}
	aggro := &fakeAggro{}
	mgr := New(world, players, chat, aggro)

	result := mgr.MovePlayerToRoom("hero-1", "room-1", "goto:room-1")
	if !result.Success {
		t.Fatalf("self-move failed: %s", result.Message)
	}
	if len(chat.lines) != 0 {
		t.Fatalf("expected no leave/arrive broadcasts for a no-op move, got %v", chat.lines)
	}
	if len(aggro.checked) != 0 {
		t.Fatal("expected no aggro check for a no-op move to the player's own room")
	}
	if players.byID["hero-1"].RoomID != "room-1" {
		t.Fatalf("player's room should be unchanged, got %s", players.byID["hero-1"].RoomID)
	}
}

func TestMovePlayerToRoomRejectsMissingExit(t *testing.T) {
	world := newTestWorld(t)
	players := newFakePlayers()
	players.byID["hero-1"] = model.NewPlayer("hero-1", "hero", "hash", "room-1")
	world.IndexPlayerInRoom("room-1", "hero-1")

	mgr := New(world, players, &fakeChat{}, &fakeAggro{})

	result := mgr.MovePlayerToRoom("hero-1", "room-1", "south")
	if result.Success {
		t.Fatal("expected move to fail when no exit exists in that direction")
	}
}

func TestFollowerPropagatesThroughLeadersMove(t *testing.T) {
	world := newTestWorld(t)
	players := newFakePlayers()
	players.byID["hero-1"] = model.NewPlayer("hero-1", "hero", "hash", "room-1")
	follower := model.NewPlayer("follower-1", "sidekick", "hash", "room-1")
	follower.Following = "hero-1"
	players.byID["follower-1"] = follower
	world.IndexPlayerInRoom("room-1", "hero-1")
	world.IndexPlayerInRoom("room-1", "follower-1")

	mgr := New(world, players, &fakeChat{}, &fakeAggro{})

	if result := mgr.MovePlayerToRoom("hero-1", "room-1", "north"); !result.Success {
		t.Fatalf("leader move failed: %s", result.Message)
	}

	if players.byID["follower-1"].RoomID != "room-2" {
		t.Fatalf("expected follower-1 to follow into room-2, got %s", players.byID["follower-1"].RoomID)
	}
}
