package model

import (
	"reflect"
	"testing"

	"github.com/holdfast-mud/holdfast/internal/locale"
)

func TestMonsterTemplateRecordRoundTrip(t *testing.T) {
	tpl := MonsterTemplate{
		ID:          "rat",
		Name:        locale.New("Sewer Rat").With("ko", "하수구 쥐"),
		Description: locale.New("A mangy rat."),
		Stats:       NewStatBlock(8, 8, 8, 4, 4, 4, 1),
		Aggressive:  true,
		MonsterType: MonsterTypeAggressive,
		Behavior:    BehaviorRoaming,
		AggroRange:  2,
		RoamingRange: 3,
		DropTable: []DropRule{
			{ObjectID: "cheese", Probability: 0.5},
		},
		GoldReward:       5,
		ExperienceReward: 10,
		RespawnTime:      30,
		AIPolicy:         "aggressive_default",
	}

	got := MonsterTemplateFromRecord(tpl.ToRecord())
	if !reflect.DeepEqual(got, tpl) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, tpl)
	}
}

func TestNewMonsterFromTemplateFullHealth(t *testing.T) {
	tpl := MonsterTemplate{
		ID:    "rat",
		Name:  locale.New("Sewer Rat"),
		Stats: NewStatBlock(8, 8, 8, 4, 4, 4, 1),
	}

	mo := NewMonsterFromTemplate("runtime-1", tpl, "sewer")
	if mo.ID != "runtime-1" || mo.TemplateID != "rat" || mo.CurrentRoomID != "sewer" {
		t.Fatalf("unexpected instantiation: %#v", mo)
	}
	if mo.Stats.HP != mo.Stats.MaxHP {
		t.Fatalf("expected a freshly spawned monster at full hp, got %d/%d", mo.Stats.HP, mo.Stats.MaxHP)
	}
	if !mo.IsAlive() {
		t.Fatal("freshly spawned monster should be alive")
	}
}

func TestMonsterIsAliveTracksHP(t *testing.T) {
	mo := Monster{Stats: StatBlock{HP: 0}}
	if mo.IsAlive() {
		t.Fatal("monster with 0 hp should not be alive")
	}
	mo.Stats.HP = 1
	if !mo.IsAlive() {
		t.Fatal("monster with positive hp should be alive")
	}
}

func TestMonsterValidateRejectsOutOfRangeDropProbability(t *testing.T) {
	mo := Monster{
		ID:    "m1",
		Name:  locale.New("Goblin"),
		Stats: NewStatBlock(8, 8, 8, 8, 8, 8, 1),
		DropTable: []DropRule{
			{ObjectID: "axe", Probability: 1.5},
		},
	}
	if err := mo.Validate(); err == nil {
		t.Fatal("expected error for out-of-range drop probability")
	}
}
