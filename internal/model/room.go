package model

import (
	"fmt"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/locale"
)

// SpawnRule binds a room to a monster template with a population cap
// and respawn cadence. The world manager maintains the live counters;
// this struct is the static rule.
type SpawnRule struct {
	TemplateID     string
	Count          int
	RespawnTime    int // seconds
	RoamingEnabled bool
}

// Room is a location in the world. Exits are one-way by default —
// reciprocal links are not required, only exit-target validity is.
type Room struct {
	ID          string
	Name        locale.Map
	Description locale.Map
	Exits       map[Direction]string // direction -> target room id
	SpawnPoints []SpawnRule
}

// NewRoom constructs a Room with empty exits/spawn points ready to
// populate.
func NewRoom(id string, name, description locale.Map) Room {
	return Room{
		ID:          id,
		Name:        name,
		Description: description,
		Exits:       make(map[Direction]string),
	}
}

// Validate checks the structural invariants spec.md §3 assigns to Room.
// Exit target existence is a cross-entity invariant enforced by the
// world manager, not here.
func (r Room) Validate() error {
	if r.ID == "" {
		return apperrors.New(apperrors.KindInput, "Room.Validate", fmt.Errorf("room id is required"))
	}
	if !r.Name.Valid() {
		return apperrors.New(apperrors.KindInput, "Room.Validate", fmt.Errorf("room %s: name missing en locale", r.ID))
	}
	if !r.Description.Valid() {
		return apperrors.New(apperrors.KindInput, "Room.Validate", fmt.Errorf("room %s: description missing en locale", r.ID))
	}
	for dir := range r.Exits {
		if !dir.Valid() {
			return apperrors.New(apperrors.KindInput, "Room.Validate", fmt.Errorf("room %s: invalid exit direction %q", r.ID, dir))
		}
	}
	return nil
}

// LocalizedName resolves the room's name for locale, falling back to en.
func (r Room) LocalizedName(locale string) string { return r.Name.Get(locale) }

// LocalizedDescription resolves the room's description for locale.
func (r Room) LocalizedDescription(locale string) string { return r.Description.Get(locale) }

// RoomRecord is the flat shape Room (de)serializes to/from for storage:
// exits and spawn points are normalized to plain maps/slices and
// locale maps to parallel name_en/name_ko style columns, matching the
// teacher's composite-column convention in pkg/db.
type RoomRecord struct {
	ID            string
	NameEn        string
	NameKo        string
	DescriptionEn string
	DescriptionKo string
	Exits         map[string]string
	SpawnPoints   []SpawnRule
}

// ToRecord normalizes r to its storage representation.
func (r Room) ToRecord() RoomRecord {
	exits := make(map[string]string, len(r.Exits))
	for dir, target := range r.Exits {
		exits[string(dir)] = target
	}
	return RoomRecord{
		ID:            r.ID,
		NameEn:        r.Name["en"],
		NameKo:        r.Name["ko"],
		DescriptionEn: r.Description["en"],
		DescriptionKo: r.Description["ko"],
		Exits:         exits,
		SpawnPoints:   append([]SpawnRule(nil), r.SpawnPoints...),
	}
}

// RoomFromRecord restores a Room from its storage representation. It is
// the left inverse of ToRecord: RoomFromRecord(r.ToRecord()) == r for
// any valid r (the round-trip law from spec.md §8).
func RoomFromRecord(rec RoomRecord) Room {
	name := locale.New(rec.NameEn)
	if rec.NameKo != "" {
		name = name.With("ko", rec.NameKo)
	}
	desc := locale.New(rec.DescriptionEn)
	if rec.DescriptionKo != "" {
		desc = desc.With("ko", rec.DescriptionKo)
	}

	exits := make(map[Direction]string, len(rec.Exits))
	for dir, target := range rec.Exits {
		exits[Direction(dir)] = target
	}

	return Room{
		ID:          rec.ID,
		Name:        name,
		Description: desc,
		Exits:       exits,
		SpawnPoints: append([]SpawnRule(nil), rec.SpawnPoints...),
	}
}
