package model

import (
	"reflect"
	"testing"

	"github.com/holdfast-mud/holdfast/internal/locale"
)

func TestObjectRecordRoundTrip(t *testing.T) {
	obj := GameObject{
		ID:          "sword-1",
		Name:        locale.New("Iron Sword").With("ko", "철검"),
		Description: locale.New("A plain iron sword."),
		Kind:        ObjectKindWeapon,
		Weight:      5,
		Value:       20,
		Stackable:   false,
		Attributes:  map[string]int{"attack_bonus": 3},
	}

	got := ObjectFromRecord(obj.ToRecord())
	if !reflect.DeepEqual(got, obj) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, obj)
	}
}

func TestObjectValidateRejectsNegativeWeight(t *testing.T) {
	obj := GameObject{ID: "x", Name: locale.New("Thing"), Weight: -1}
	if err := obj.Validate(); err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestObjectValidateRejectsNegativeValue(t *testing.T) {
	obj := GameObject{ID: "x", Name: locale.New("Thing"), Value: -1}
	if err := obj.Validate(); err == nil {
		t.Fatal("expected error for negative value")
	}
}
