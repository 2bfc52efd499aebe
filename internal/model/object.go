package model

import (
	"fmt"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/locale"
)

// ObjectKind classifies a GameObject for command-dispatch purposes
// (e.g. whether "wear" applies).
type ObjectKind string

const (
	ObjectKindItem      ObjectKind = "item"
	ObjectKindWeapon    ObjectKind = "weapon"
	ObjectKindArmor     ObjectKind = "armor"
	ObjectKindContainer ObjectKind = "container"
	ObjectKindCurrency  ObjectKind = "currency"
)

// GameObject is any item in the world: lying in a room, held by a
// player, or stocked by a shop. Location is tracked by the world
// manager's indices, not on the object itself, so an object moving
// between room and inventory never needs a self-referential update.
type GameObject struct {
	ID          string
	Name        locale.Map
	Description locale.Map
	Kind        ObjectKind
	Weight      int
	Value       int
	Stackable   bool
	Attributes  map[string]int // e.g. "attack_bonus", "defense_bonus"
}

// Validate checks GameObject's structural invariants.
func (o GameObject) Validate() error {
	if o.ID == "" {
		return apperrors.New(apperrors.KindInput, "GameObject.Validate", fmt.Errorf("object id is required"))
	}
	if !o.Name.Valid() {
		return apperrors.New(apperrors.KindInput, "GameObject.Validate", fmt.Errorf("object %s: name missing en locale", o.ID))
	}
	if o.Weight < 0 {
		return apperrors.New(apperrors.KindInput, "GameObject.Validate", fmt.Errorf("object %s: negative weight", o.ID))
	}
	if o.Value < 0 {
		return apperrors.New(apperrors.KindInput, "GameObject.Validate", fmt.Errorf("object %s: negative value", o.ID))
	}
	return nil
}

// LocalizedName resolves the object's name for locale.
func (o GameObject) LocalizedName(locale string) string { return o.Name.Get(locale) }

// LocalizedDescription resolves the object's description for locale.
func (o GameObject) LocalizedDescription(locale string) string { return o.Description.Get(locale) }

// ObjectRecord is GameObject's flat storage shape.
type ObjectRecord struct {
	ID            string
	NameEn        string
	NameKo        string
	DescriptionEn string
	DescriptionKo string
	Kind          string
	Weight        int
	Value         int
	Stackable     bool
	Attributes    map[string]int
}

// ToRecord normalizes o to its storage representation.
func (o GameObject) ToRecord() ObjectRecord {
	attrs := make(map[string]int, len(o.Attributes))
	for k, v := range o.Attributes {
		attrs[k] = v
	}
	return ObjectRecord{
		ID:            o.ID,
		NameEn:        o.Name["en"],
		NameKo:        o.Name["ko"],
		DescriptionEn: o.Description["en"],
		DescriptionKo: o.Description["ko"],
		Kind:          string(o.Kind),
		Weight:        o.Weight,
		Value:         o.Value,
		Stackable:     o.Stackable,
		Attributes:    attrs,
	}
}

// ObjectFromRecord is the left inverse of ToRecord.
func ObjectFromRecord(rec ObjectRecord) GameObject {
	name := locale.New(rec.NameEn)
	if rec.NameKo != "" {
		name = name.With("ko", rec.NameKo)
	}
	desc := locale.New(rec.DescriptionEn)
	if rec.DescriptionKo != "" {
		desc = desc.With("ko", rec.DescriptionKo)
	}
	attrs := make(map[string]int, len(rec.Attributes))
	for k, v := range rec.Attributes {
		attrs[k] = v
	}
	return GameObject{
		ID:          rec.ID,
		Name:        name,
		Description: desc,
		Kind:        ObjectKind(rec.Kind),
		Weight:      rec.Weight,
		Value:       rec.Value,
		Stackable:   rec.Stackable,
		Attributes:  attrs,
	}
}
