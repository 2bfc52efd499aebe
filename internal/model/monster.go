package model

import (
	"fmt"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/locale"
)

// MonsterType classifies a monster's stance toward an entering player,
// per spec.md §3: aggressive monsters attack on sight, passive ones
// never initiate, neutral ones only retaliate once struck.
type MonsterType string

const (
	MonsterTypeAggressive MonsterType = "aggressive"
	MonsterTypePassive    MonsterType = "passive"
	MonsterTypeNeutral    MonsterType = "neutral"
)

// MonsterBehavior classifies how a monster moves between ticks when
// not in combat.
type MonsterBehavior string

const (
	BehaviorStationary MonsterBehavior = "stationary"
	BehaviorRoaming    MonsterBehavior = "roaming"
	BehaviorPatrolling MonsterBehavior = "patrolling"
)

// MonsterTemplate is the static definition a spawn rule refers to.
// Runtime monster instances are created from a template and get their
// own uuid, not the template's id.
type MonsterTemplate struct {
	ID               string
	Name             locale.Map
	Description      locale.Map
	Stats            StatBlock
	Aggressive       bool
	MonsterType      MonsterType
	Behavior         MonsterBehavior
	AggroRange       int
	RoamingRange     int
	DropTable        []DropRule
	GoldReward       int
	ExperienceReward int
	RespawnTime      int // seconds
	AIPolicy         string // "" selects the built-in policy
}

// DropRule is one entry in a monster's loot table: object id dropped
// with the given probability (0.0-1.0) on death.
type DropRule struct {
	ObjectID    string
	Probability float64
}

// Monster is a live instance of a template, spawned into a specific
// room. Runtime-created monsters get uuid ids; seed monsters may keep
// a human-readable id assigned by the world seed data.
type Monster struct {
	ID               string
	TemplateID       string
	Name             locale.Map
	Stats            StatBlock
	Aggressive       bool
	MonsterType      MonsterType
	Behavior         MonsterBehavior
	CurrentRoomID    string
	AggroRange       int
	RoamingRange     int
	DropTable        []DropRule
	GoldReward       int
	ExperienceReward int
	RespawnTime      int
	AIPolicy         string
}

// NewMonsterFromTemplate instantiates a live Monster from a template,
// identified by the caller-supplied runtime id (typically a uuid) and
// placed in roomID.
func NewMonsterFromTemplate(runtimeID string, tpl MonsterTemplate, roomID string) Monster {
	stats := tpl.Stats
	stats.Recompute()
	stats.HP = stats.MaxHP
	stats.MP = stats.MaxMP
	return Monster{
		ID:               runtimeID,
		TemplateID:       tpl.ID,
		Name:             tpl.Name,
		Stats:            stats,
		Aggressive:       tpl.Aggressive,
		MonsterType:      tpl.MonsterType,
		Behavior:         tpl.Behavior,
		CurrentRoomID:    roomID,
		AggroRange:       tpl.AggroRange,
		RoamingRange:     tpl.RoamingRange,
		DropTable:        append([]DropRule(nil), tpl.DropTable...),
		GoldReward:       tpl.GoldReward,
		ExperienceReward: tpl.ExperienceReward,
		RespawnTime:      tpl.RespawnTime,
		AIPolicy:         tpl.AIPolicy,
	}
}

// Validate checks Monster's structural invariants.
func (m Monster) Validate() error {
	if m.ID == "" {
		return apperrors.New(apperrors.KindInput, "Monster.Validate", fmt.Errorf("monster id is required"))
	}
	if !m.Name.Valid() {
		return apperrors.New(apperrors.KindInput, "Monster.Validate", fmt.Errorf("monster %s: name missing en locale", m.ID))
	}
	if err := m.Stats.Validate(); err != nil {
		return apperrors.New(apperrors.KindInput, "Monster.Validate", fmt.Errorf("monster %s: %w", m.ID, err))
	}
	for _, d := range m.DropTable {
		if d.Probability < 0 || d.Probability > 1 {
			return apperrors.New(apperrors.KindInput, "Monster.Validate",
				fmt.Errorf("monster %s: drop %s probability %f out of range", m.ID, d.ObjectID, d.Probability))
		}
	}
	return nil
}

// IsAlive reports whether the monster has hit points remaining.
func (m Monster) IsAlive() bool { return m.Stats.HP > 0 }

// LocalizedName resolves the monster's name for locale.
func (m Monster) LocalizedName(locale string) string { return m.Name.Get(locale) }

// MonsterTemplateRecord is MonsterTemplate's flat storage shape,
// following the same name_en/name_ko convention as RoomRecord and
// ObjectRecord.
type MonsterTemplateRecord struct {
	ID               string
	NameEn           string
	NameKo           string
	DescriptionEn    string
	DescriptionKo    string
	Stats            StatBlock
	Aggressive       bool
	MonsterType      string
	Behavior         string
	AggroRange       int
	RoamingRange     int
	DropTable        []DropRule
	GoldReward       int
	ExperienceReward int
	RespawnTime      int
	AIPolicy         string
}

// ToRecord normalizes tpl to its storage representation.
func (tpl MonsterTemplate) ToRecord() MonsterTemplateRecord {
	return MonsterTemplateRecord{
		ID:               tpl.ID,
		NameEn:           tpl.Name["en"],
		NameKo:           tpl.Name["ko"],
		DescriptionEn:    tpl.Description["en"],
		DescriptionKo:    tpl.Description["ko"],
		Stats:            tpl.Stats,
		Aggressive:       tpl.Aggressive,
		MonsterType:      string(tpl.MonsterType),
		Behavior:         string(tpl.Behavior),
		AggroRange:       tpl.AggroRange,
		RoamingRange:     tpl.RoamingRange,
		DropTable:        append([]DropRule(nil), tpl.DropTable...),
		GoldReward:       tpl.GoldReward,
		ExperienceReward: tpl.ExperienceReward,
		RespawnTime:      tpl.RespawnTime,
		AIPolicy:         tpl.AIPolicy,
	}
}

// MonsterTemplateFromRecord is the left inverse of ToRecord.
func MonsterTemplateFromRecord(rec MonsterTemplateRecord) MonsterTemplate {
	name := locale.New(rec.NameEn)
	if rec.NameKo != "" {
		name = name.With("ko", rec.NameKo)
	}
	desc := locale.New(rec.DescriptionEn)
	if rec.DescriptionKo != "" {
		desc = desc.With("ko", rec.DescriptionKo)
	}
	return MonsterTemplate{
		ID:               rec.ID,
		Name:             name,
		Description:      desc,
		Stats:            rec.Stats,
		Aggressive:       rec.Aggressive,
		MonsterType:      MonsterType(rec.MonsterType),
		Behavior:         MonsterBehavior(rec.Behavior),
		AggroRange:       rec.AggroRange,
		RoamingRange:     rec.RoamingRange,
		DropTable:        append([]DropRule(nil), rec.DropTable...),
		GoldReward:       rec.GoldReward,
		ExperienceReward: rec.ExperienceReward,
		RespawnTime:      rec.RespawnTime,
		AIPolicy:         rec.AIPolicy,
	}
}
