package model

import "testing"

func TestSpawnPointHasCapacityRespectsCap(t *testing.T) {
	sp := NewSpawnPoint("room-1", SpawnRule{TemplateID: "rat", Count: 1})
	if !sp.HasCapacity() {
		t.Fatal("freshly created spawn point should have capacity")
	}

	sp = sp.WithSpawned("runtime-1")
	if sp.HasCapacity() {
		t.Fatal("spawn point at cap should report no capacity")
	}
}

func TestSpawnPointWithDespawnedFreesCapacity(t *testing.T) {
	sp := NewSpawnPoint("room-1", SpawnRule{TemplateID: "rat", Count: 1})
	sp = sp.WithSpawned("runtime-1")

	sp = sp.WithDespawned("runtime-1")
	if !sp.HasCapacity() {
		t.Fatal("despawning should free capacity")
	}
	if len(sp.AliveIDs) != 0 {
		t.Fatalf("expected no alive ids after despawn, got %v", sp.AliveIDs)
	}
}

func TestSpawnPointWithDespawnedUnknownIDIsNoOp(t *testing.T) {
	sp := NewSpawnPoint("room-1", SpawnRule{TemplateID: "rat", Count: 2})
	sp = sp.WithSpawned("runtime-1")

	sp = sp.WithDespawned("runtime-does-not-exist")
	if len(sp.AliveIDs) != 1 {
		t.Fatalf("expected despawn of unknown id to be a no-op, got %v", sp.AliveIDs)
	}
}

func TestSpawnPointValidateRejectsOverCapacity(t *testing.T) {
	sp := SpawnPoint{RoomID: "r1", TemplateID: "rat", Cap: 1, AliveIDs: []string{"a", "b"}}
	if err := sp.Validate(); err == nil {
		t.Fatal("expected error when alive count exceeds cap")
	}
}
