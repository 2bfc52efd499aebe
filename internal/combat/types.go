// Package combat implements the turn-based combat instance manager:
// starting an encounter when a player meets hostile monsters, turn
// order and action resolution, and ending an instance with HP
// write-back, loot, and experience. It generalizes the teacher's
// pkg/game/combat.go (stateless hit/damage math against a single
// NPC) into multi-participant instances with an explicit turn order,
// the way spec.md §4.8 requires, while keeping the teacher's damage
// formula shape (base damage, strength/attack modifier, variance,
// critical multiplier).
package combat

import "time"

// CombatantKind distinguishes a player combatant from a monster one.
type CombatantKind string

const (
	KindPlayer  CombatantKind = "player"
	KindMonster CombatantKind = "monster"
)

// Combatant is a combat-capable participant snapshot, copied in from
// the underlying Player or Monster at join time and written back to
// it when the instance ends (spec.md GLOSSARY).
type Combatant struct {
	ID          string // combatant id; set equal to RefID when the snapshot is taken
	Kind        CombatantKind
	RefID       string // player id or monster id
	DisplayName string
	HP          int
	MaxHP       int
	Attack      int
	Defense     int
	Speed       int
	IsDefending bool
	Alive       bool
}

// State is the lifecycle stage of a CombatInstance.
type State string

const (
	StateActive State = "active"
	StateEnding State = "ending"
	StateEnded  State = "ended"
)

// Instance is a self-contained, room-bound, turn-ordered encounter.
// Turn order is a stable sort by descending speed, ties broken by
// insertion order (spec.md §3).
type Instance struct {
	ID               string
	RoomID           string
	Combatants       map[string]*Combatant
	TurnOrder        []string // combatant ids
	CurrentTurnIndex int
	TurnNumber       int
	State            State
	StartedAt        time.Time
	LastActionAt     time.Time
	lastDamagerOf    map[string]string // monster combatant id -> combatant id of the last attacker to hit it
}

// Current returns the combatant whose turn it currently is, or nil if
// the instance has no combatants left.
func (inst *Instance) Current() *Combatant {
	if len(inst.TurnOrder) == 0 || inst.CurrentTurnIndex >= len(inst.TurnOrder) {
		return nil
	}
	return inst.Combatants[inst.TurnOrder[inst.CurrentTurnIndex]]
}

// AliveMonsters reports whether any monster combatant is still alive.
func (inst *Instance) AliveMonsters() bool {
	for _, c := range inst.Combatants {
		if c.Kind == KindMonster && c.Alive {
			return true
		}
	}
	return false
}

// AlivePlayers reports whether any player combatant is still alive.
func (inst *Instance) AlivePlayers() bool {
	for _, c := range inst.Combatants {
		if c.Kind == KindPlayer && c.Alive {
			return true
		}
	}
	return false
}

// advanceTurn moves to the next combatant in turn order, incrementing
// TurnNumber whenever the index wraps around to the start.
func (inst *Instance) advanceTurn() {
	if len(inst.TurnOrder) == 0 {
		return
	}
	inst.CurrentTurnIndex++
	if inst.CurrentTurnIndex >= len(inst.TurnOrder) {
		inst.CurrentTurnIndex = 0
		inst.TurnNumber++
	}
}

// removeFromTurnOrder drops id from the turn order only, shifting the
// current index so "whose turn is it" still refers to the next
// combatant that hasn't acted yet (spec.md §4.8 invariant). The
// combatant's data stays in inst.Combatants — used when a combatant
// dies but must still be visible to end-of-combat reward/loot/despawn
// handling.
func (inst *Instance) removeFromTurnOrder(id string) {
	idx := -1
	for i, cid := range inst.TurnOrder {
		if cid == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	wasCurrent := idx == inst.CurrentTurnIndex
	inst.TurnOrder = append(inst.TurnOrder[:idx], inst.TurnOrder[idx+1:]...)

	switch {
	case len(inst.TurnOrder) == 0:
		inst.CurrentTurnIndex = 0
	case idx < inst.CurrentTurnIndex:
		inst.CurrentTurnIndex--
	case wasCurrent:
		if inst.CurrentTurnIndex >= len(inst.TurnOrder) {
			inst.CurrentTurnIndex = 0
			inst.TurnNumber++
		}
	}
}

// removeCombatant fully removes id from the instance (turn order and
// data), used when a combatant leaves permanently via a successful
// flee rather than dying.
func (inst *Instance) removeCombatant(id string) {
	inst.removeFromTurnOrder(id)
	delete(inst.Combatants, id)
}
