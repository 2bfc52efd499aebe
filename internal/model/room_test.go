package model

import (
	"reflect"
	"testing"

	"github.com/holdfast-mud/holdfast/internal/locale"
)

func TestRoomRecordRoundTrip(t *testing.T) {
	room := Room{
		ID:          "town_square",
		Name:        locale.New("Town Square").With("ko", "마을 광장"),
		Description: locale.New("A bustling square.").With("ko", "번화한 광장."),
		Exits: map[Direction]string{
			North: "market",
			South: "gate",
		},
		SpawnPoints: []SpawnRule{
			{TemplateID: "rat", Count: 3, RespawnTime: 30, RoamingEnabled: true},
		},
	}

	got := RoomFromRecord(room.ToRecord())
	if !reflect.DeepEqual(got, room) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, room)
	}
}

func TestRoomRecordRoundTripEmptyExits(t *testing.T) {
	room := NewRoom("empty", locale.New("Empty Room"), locale.New("Nothing here."))
	got := RoomFromRecord(room.ToRecord())
	if !reflect.DeepEqual(got, room) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, room)
	}
}

func TestRoomValidateRequiresID(t *testing.T) {
	room := NewRoom("", locale.New("Nameless"), locale.New("desc"))
	if err := room.Validate(); err == nil {
		t.Fatal("expected error for empty room id")
	}
}

func TestRoomValidateRejectsInvalidExit(t *testing.T) {
	room := NewRoom("r1", locale.New("Room"), locale.New("desc"))
	room.Exits["sideways"] = "r2"
	if err := room.Validate(); err == nil {
		t.Fatal("expected error for invalid exit direction")
	}
}

func TestRoomLocalizedNameFallsBackToEnglish(t *testing.T) {
	room := NewRoom("r1", locale.New("Room"), locale.New("A room."))
	if got := room.LocalizedName("fr"); got != "Room" {
		t.Fatalf("expected fallback to en, got %q", got)
	}
}
