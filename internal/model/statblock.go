package model

import (
	"fmt"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
)

// StatBlock holds the six primary stats plus the values derived from
// them. Derived values are never set directly by callers — Recompute
// is the only path that may change them — so current_hp <= max_hp
// holds by construction everywhere except mid-combat damage application
// (which clamps separately).
type StatBlock struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intellect    int
	Wisdom       int
	Charisma     int
	Level        int

	HP         int
	MaxHP      int
	MP         int
	MaxMP      int
	Attack     int
	Defense    int
	Speed      int
	CarryWeight int
}

const (
	minPrimary = 1
	maxPrimary = 30
	minLevel   = 1
	maxLevel   = 100
)

// NewStatBlock builds a StatBlock from primaries and computes derived
// values, clamping current HP/MP to the freshly computed max.
func NewStatBlock(str, dex, con, intel, wis, cha, level int) StatBlock {
	sb := StatBlock{
		Strength: str, Dexterity: dex, Constitution: con,
		Intellect: intel, Wisdom: wis, Charisma: cha, Level: level,
	}
	sb.Recompute()
	sb.HP = sb.MaxHP
	sb.MP = sb.MaxMP
	return sb
}

// Recompute derives hp/max_hp/mp/max_mp/attack/defense/speed/carry_weight
// from the primary stats and level, then clamps current HP/MP to the
// new ceilings. Call after any change to a primary stat or level.
func (sb *StatBlock) Recompute() {
	sb.MaxHP = 10 + sb.Constitution*4 + sb.Level*3
	sb.MaxMP = 5 + sb.Intellect*3 + sb.Wisdom*2 + sb.Level*2
	sb.Attack = sb.Strength*2 + sb.Level
	sb.Defense = sb.Constitution + sb.Dexterity/2
	sb.Speed = sb.Dexterity*2 + sb.Level/2
	sb.CarryWeight = MaxCarryWeight(sb.Strength)

	if sb.HP > sb.MaxHP {
		sb.HP = sb.MaxHP
	}
	if sb.MP > sb.MaxMP {
		sb.MP = sb.MaxMP
	}
}

// MaxCarryWeight is the pure function deriving carry capacity from
// strength. Consumers must call this (or read StatBlock.CarryWeight)
// rather than reading Strength directly.
func MaxCarryWeight(strength int) int {
	return strength * 10
}

// Validate checks the bounded-range invariants from spec.md §3.
func (sb StatBlock) Validate() error {
	for name, v := range map[string]int{
		"strength": sb.Strength, "dexterity": sb.Dexterity,
		"constitution": sb.Constitution, "intellect": sb.Intellect,
		"wisdom": sb.Wisdom, "charisma": sb.Charisma,
	} {
		if v < minPrimary || v > maxPrimary {
			return apperrors.New(apperrors.KindInput, "StatBlock.Validate",
				fmt.Errorf("%s %d out of range [%d,%d]", name, v, minPrimary, maxPrimary))
		}
	}
	if sb.Level < minLevel || sb.Level > maxLevel {
		return apperrors.New(apperrors.KindInput, "StatBlock.Validate",
			fmt.Errorf("level %d out of range [%d,%d]", sb.Level, minLevel, maxLevel))
	}
	if sb.HP > sb.MaxHP {
		return apperrors.New(apperrors.KindInternal, "StatBlock.Validate",
			fmt.Errorf("current_hp %d exceeds max_hp %d", sb.HP, sb.MaxHP))
	}
	return nil
}
