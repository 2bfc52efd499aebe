package combat

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holdfast-mud/holdfast/internal/command"
	"github.com/holdfast-mud/holdfast/internal/events"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

// PlayerStore is the player read/write surface combat needs, declared
// locally rather than imported from command or movement so combat
// doesn't take on either package's full surface.
type PlayerStore interface {
	GetPlayer(playerID string) (model.Player, error)
	SavePlayer(p model.Player) error
}

// Broadcaster sends room-scoped and global text, used for combat
// announcements (hits, deaths, flee attempts).
type Broadcaster interface {
	BroadcastRoom(roomID, message string, exclude string)
	BroadcastGlobal(message string)
}

const (
	critChance     = 0.10
	critMultiplier = 1.5
	fleeChance     = 0.5
	varianceLow    = 0.8
	varianceHigh   = 1.2
	maxAutoTurns   = 200 // guards against a pathological all-monster turn order
)

// Manager tracks every active combat instance and resolves actions
// against them. It generalizes the teacher's stateless
// AttackNPC/NPCAttackPlayer functions (pkg/game/combat.go) into a
// stateful, multi-participant, turn-ordered encounter, the shape
// spec.md §4.8 requires, while keeping the teacher's damage-formula
// idiom: a base amount, a percentage variance roll, and a flat
// percentage chance of a critical multiplier.
type Manager struct {
	world   *worldmgr.Manager
	players PlayerStore
	chat    Broadcaster
	bus     *events.Bus
	timeout time.Duration

	mu        sync.Mutex
	instances map[string]*Instance
	byPlayer  map[string]string // player id -> instance id
	byMonster map[string]string // monster combatant id (== monster runtime id) -> instance id
}

// NewManager creates a combat Manager. timeout is the inactivity
// window after which the scheduler's combat-timeout sweep forces the
// stalled combatant to wait.
func NewManager(world *worldmgr.Manager, players PlayerStore, chat Broadcaster, bus *events.Bus, timeout time.Duration) *Manager {
	return &Manager{
		world:     world,
		players:   players,
		chat:      chat,
		bus:       bus,
		timeout:   timeout,
		instances: make(map[string]*Instance),
		byPlayer:  make(map[string]string),
		byMonster: make(map[string]string),
	}
}

// InCombat reports whether playerID is a participant in any active
// instance.
func (m *Manager) InCombat(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byPlayer[playerID]
	return ok
}

// StartCombat opens (or joins) an instance in roomID for
// participantIDs, a mix of player ids and live monster ids. A
// participant already fighting is left in its existing instance; if
// that instance differs from the one this call would otherwise
// create, the new participants are merged into it instead, so a
// second player attacking an already-engaged monster joins the fight
// rather than starting a duplicate.
func (m *Manager) StartCombat(roomID string, participantIDs []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var existing *Instance
	for _, id := range participantIDs {
		if instID, ok := m.byPlayer[id]; ok {
			existing = m.instances[instID]
			break
		}
		if instID, ok := m.byMonster[id]; ok {
			existing = m.instances[instID]
			break
		}
	}

	if existing != nil {
		m.mergeParticipants(existing, participantIDs)
		return existing.ID, nil
	}

	inst := &Instance{
		ID:            uuid.NewString(),
		RoomID:        roomID,
		Combatants:    make(map[string]*Combatant),
		State:         StateActive,
		StartedAt:     time.Now(),
		LastActionAt:  time.Now(),
		lastDamagerOf: make(map[string]string),
	}

	for _, id := range participantIDs {
		if c := m.snapshotCombatant(id); c != nil {
			inst.Combatants[c.ID] = c
			inst.TurnOrder = append(inst.TurnOrder, c.ID)
		}
	}
	if len(inst.Combatants) < 2 || !inst.AlivePlayers() || !inst.AliveMonsters() {
		return "", fmt.Errorf("combat: need at least one player and one monster to start")
	}

	sortTurnOrder(inst)

	m.instances[inst.ID] = inst
	for _, c := range inst.Combatants {
		if c.Kind == KindPlayer {
			m.byPlayer[c.RefID] = inst.ID
		} else {
			m.byMonster[c.RefID] = inst.ID
		}
	}

	m.bus.Publish(events.New(events.TypeCombatStart).WithRoom(roomID).WithData("instance_id", inst.ID))
	m.chat.BroadcastRoom(roomID, "Combat begins!", "")

	return inst.ID, nil
}

// mergeParticipants adds any participantIDs not already in inst,
// re-sorting the turn order to include them. Must be called with m.mu
// held.
func (m *Manager) mergeParticipants(inst *Instance, participantIDs []string) {
	added := false
	for _, id := range participantIDs {
		if _, ok := m.byPlayer[id]; ok {
			continue
		}
		if _, ok := m.byMonster[id]; ok {
			continue
		}
		if _, ok := inst.Combatants[id]; ok {
			continue
		}
		c := m.snapshotCombatant(id)
		if c == nil {
			continue
		}
		inst.Combatants[c.ID] = c
		inst.TurnOrder = append(inst.TurnOrder, c.ID)
		if c.Kind == KindPlayer {
			m.byPlayer[c.RefID] = inst.ID
		} else {
			m.byMonster[c.RefID] = inst.ID
		}
		added = true
	}
	if added {
		sortTurnOrder(inst)
	}
}

// sortTurnOrder orders combatant ids by descending speed, a stable
// sort so equal-speed combatants keep their join order (spec.md §3).
func sortTurnOrder(inst *Instance) {
	sort.SliceStable(inst.TurnOrder, func(i, j int) bool {
		return inst.Combatants[inst.TurnOrder[i]].Speed > inst.Combatants[inst.TurnOrder[j]].Speed
	})
}

// snapshotCombatant copies the live Player or Monster identified by id
// into a Combatant. Returns nil if id refers to neither.
func (m *Manager) snapshotCombatant(id string) *Combatant {
	if mo, err := m.world.GetMonster(id); err == nil {
		return &Combatant{
			ID: mo.ID, Kind: KindMonster, RefID: mo.ID, DisplayName: mo.LocalizedName("en"),
			HP: mo.Stats.HP, MaxHP: mo.Stats.MaxHP, Attack: mo.Stats.Attack,
			Defense: mo.Stats.Defense, Speed: mo.Stats.Speed, Alive: mo.IsAlive(),
		}
	}
	if p, err := m.players.GetPlayer(id); err == nil {
		return &Combatant{
			ID: p.ID, Kind: KindPlayer, RefID: p.ID, DisplayName: p.Username,
			HP: p.Stats.HP, MaxHP: p.Stats.MaxHP, Attack: p.Stats.Attack,
			Defense: p.Stats.Defense, Speed: p.Stats.Speed, Alive: p.IsAlive(),
		}
	}
	return nil
}

// Act resolves one player action against their active instance:
// attack, defend, flee, wait, or the read-only status query.
func (m *Manager) Act(playerID, action, targetID string) command.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	instID, ok := m.byPlayer[playerID]
	if !ok {
		return command.Fail("You aren't in combat.")
	}
	inst := m.instances[instID]

	if action == "status" {
		return m.renderStatus(inst)
	}

	cur := inst.Current()
	if cur == nil || cur.RefID != playerID || cur.Kind != KindPlayer {
		return command.Fail("It isn't your turn.")
	}
	cur.IsDefending = false // acting ends any stance taken on a prior turn

	var result command.Result
	switch strings.ToLower(action) {
	case "attack":
		result = m.resolveAttack(inst, cur, targetID)
	case "defend":
		cur.IsDefending = true
		m.chat.BroadcastRoom(inst.RoomID, cur.DisplayName+" takes a defensive stance.", "")
		result = command.Ok("You brace for the next attack.")
	case "flee":
		result = m.resolveFlee(inst, cur)
	case "wait":
		result = command.Ok("You hold your action.")
	default:
		return command.Fail("You can attack, defend, flee, or wait.")
	}

	inst.LastActionAt = time.Now()

	var endSummary string
	if end := m.finalizeIfEnded(inst); end != "" {
		endSummary = end
	} else if inst.State == StateActive {
		inst.advanceTurn()
		endSummary = m.runAutoTurns(inst)
	}

	if endSummary != "" {
		result.Message += " " + endSummary
	}
	return result
}

// resolveAttack applies the spec.md §4.8 damage formula: a uniform
// 0.8x-1.2x variance on the attacker's Attack stat, minus half the
// defender's Defense, floored at 1, with a 10% chance of a 1.5x
// critical and defending halving the final amount.
func (m *Manager) resolveAttack(inst *Instance, attacker *Combatant, targetID string) command.Result {
	target := m.pickEnemy(inst, attacker, targetID)
	if target == nil {
		return command.Fail("There's nothing here to attack.")
	}

	damage, critical := rollDamage(attacker.Attack, target.Defense)
	if target.IsDefending {
		damage = damage / 2
		if damage < 1 {
			damage = 1
		}
		target.IsDefending = false
	}
	target.HP -= damage
	if target.HP < 0 {
		target.HP = 0
	}
	if target.Kind == KindMonster {
		inst.lastDamagerOf[target.ID] = attacker.ID
	}

	msg := fmt.Sprintf("%s hits %s for %d damage.", attacker.DisplayName, target.DisplayName, damage)
	if critical {
		msg = fmt.Sprintf("Critical hit! %s hits %s for %d damage.", attacker.DisplayName, target.DisplayName, damage)
	}
	m.chat.BroadcastRoom(inst.RoomID, msg, "")
	m.bus.Publish(events.New(events.TypeCombatHit).WithRoom(inst.RoomID).
		WithData("attacker", attacker.RefID).WithData("target", target.RefID).WithData("damage", damage))

	if target.HP == 0 {
		target.Alive = false
		inst.removeFromTurnOrder(target.ID)
		m.chat.BroadcastRoom(inst.RoomID, target.DisplayName+" falls.", "")
	}

	return command.Ok(msg)
}

func rollDamage(attack, defense int) (damage int, critical bool) {
	variance := varianceLow + rand.Float64()*(varianceHigh-varianceLow)
	raw := float64(attack)*variance - float64(defense)/2
	if raw < 1 {
		raw = 1
	}
	critical = rand.Float64() < critChance
	if critical {
		raw *= critMultiplier
	}
	return int(raw), critical
}

// pickEnemy resolves targetID (a name fragment, case-insensitive) to
// an alive combatant on the opposite side of attacker, falling back to
// a random alive enemy when targetID is empty or matches nothing.
// Spec.md §4.8: monster auto-turns always call this with an empty
// targetID, so they must land on a random alive player rather than
// always the same one.
func (m *Manager) pickEnemy(inst *Instance, attacker *Combatant, targetID string) *Combatant {
	opposite := KindMonster
	if attacker.Kind == KindMonster {
		opposite = KindPlayer
	}

	var candidates []*Combatant
	for _, id := range inst.TurnOrder {
		c := inst.Combatants[id]
		if c.Kind != opposite || !c.Alive {
			continue
		}
		if targetID != "" && strings.Contains(strings.ToLower(c.DisplayName), strings.ToLower(targetID)) {
			return c
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}

// resolveFlee gives attacker a flat chance to escape the instance
// entirely, the teacher's TryFlee idiom (pkg/game/combat.go).
func (m *Manager) resolveFlee(inst *Instance, attacker *Combatant) command.Result {
	if rand.Float64() >= fleeChance {
		m.chat.BroadcastRoom(inst.RoomID, attacker.DisplayName+" tries to flee but fails!", "")
		return command.Ok("You fail to get away!")
	}

	m.chat.BroadcastRoom(inst.RoomID, attacker.DisplayName+" flees from combat.", "")
	m.removeFromInstance(inst, attacker)
	return command.Ok("You flee from combat.")
}

// runAutoTurns resolves every consecutive monster turn automatically
// (monsters always attack), stopping when it's a player's turn again
// or the instance has ended. It returns the end-of-combat summary, if
// any monster turn ended the instance.
func (m *Manager) runAutoTurns(inst *Instance) string {
	for i := 0; i < maxAutoTurns && inst.State == StateActive; i++ {
		cur := inst.Current()
		if cur == nil || cur.Kind != KindMonster {
			return ""
		}
		cur.IsDefending = false
		m.resolveAttack(inst, cur, "")
		inst.LastActionAt = time.Now()
		if end := m.finalizeIfEnded(inst); end != "" {
			return end
		}
		inst.advanceTurn()
	}
	return ""
}

// finalizeIfEnded checks victory/defeat conditions and, if met, ends
// the instance and returns a human-readable summary appended to the
// triggering action's result. Must be called with m.mu held.
func (m *Manager) finalizeIfEnded(inst *Instance) string {
	if inst.State != StateActive {
		return ""
	}
	if !inst.AliveMonsters() {
		return m.endVictory(inst)
	}
	if !inst.AlivePlayers() {
		return m.endDefeat(inst)
	}
	return ""
}

// endVictory awards gold/experience, drops loot, despawns each dead
// monster with its respawn timer armed, and tears down the instance.
func (m *Manager) endVictory(inst *Instance) string {
	inst.State = StateEnded
	var summary strings.Builder
	ctx := context.Background()

	for _, c := range inst.Combatants {
		if c.Kind != KindMonster {
			continue
		}
		mo, err := m.world.GetMonster(c.RefID)
		if err != nil {
			continue
		}
		killerID := inst.lastDamagerOf[c.ID]
		m.rewardKiller(killerID, mo, &summary)
		m.dropLoot(ctx, mo)
		respawn := time.Duration(mo.RespawnTime) * time.Second
		if respawn <= 0 {
			respawn = 60 * time.Second
		}
		m.world.DespawnMonster(inst.RoomID, mo.ID, respawn)
		m.bus.Publish(events.New(events.TypeMonsterDeath).WithRoom(inst.RoomID).WithData("monster_id", mo.ID))
	}

	m.chat.BroadcastRoom(inst.RoomID, "Victory!", "")
	m.bus.Publish(events.New(events.TypeCombatEnd).WithRoom(inst.RoomID).WithData("instance_id", inst.ID).WithData("result", "victory"))
	m.teardown(inst)
	return summary.String()
}

func (m *Manager) rewardKiller(killerID string, mo model.Monster, summary *strings.Builder) {
	if killerID == "" {
		return
	}
	p, err := m.players.GetPlayer(killerID)
	if err != nil {
		return
	}
	p.Gold += mo.GoldReward
	p.Experience += mo.ExperienceReward
	if err := m.players.SavePlayer(p); err != nil {
		return
	}
	fmt.Fprintf(summary, " You gain %d experience and %d gold.", mo.ExperienceReward, mo.GoldReward)
}

// dropLoot rolls mo's drop table and places any hits on the floor of
// the death room, cloning the catalog object referenced by each
// DropRule.ObjectID with a fresh runtime id.
func (m *Manager) dropLoot(ctx context.Context, mo model.Monster) {
	for _, drop := range mo.DropTable {
		if rand.Float64() >= drop.Probability {
			continue
		}
		catalog, err := m.world.GetObject(drop.ObjectID)
		if err != nil {
			continue
		}
		clone := catalog
		clone.ID = uuid.NewString()
		m.world.CreateObject(ctx, clone, worldmgr.RoomLocation(mo.CurrentRoomID))
	}
}

// endDefeat resets every fallen player to half their max HP in place
// (Holdfast has no death penalty harsher than a combat loss) and
// tears down the instance.
func (m *Manager) endDefeat(inst *Instance) string {
	inst.State = StateEnded
	for _, c := range inst.Combatants {
		if c.Kind != KindPlayer {
			continue
		}
		p, err := m.players.GetPlayer(c.RefID)
		if err != nil {
			continue
		}
		p.Stats.HP = p.Stats.MaxHP / 2
		if p.Stats.HP < 1 {
			p.Stats.HP = 1
		}
		c.HP = p.Stats.HP // teardown writes c.HP back to the player
		m.players.SavePlayer(p)
	}

	m.chat.BroadcastRoom(inst.RoomID, "Defeat... the survivors stagger away.", "")
	m.bus.Publish(events.New(events.TypeCombatEnd).WithRoom(inst.RoomID).WithData("instance_id", inst.ID).WithData("result", "defeat"))
	m.teardown(inst)
	return "You have been defeated and stumble away, bruised."
}

// removeFromInstance drops c out of inst (a successful flee), first
// persisting whatever HP it lost during the fight, then ending the
// instance outright if that was the last combatant on either side.
func (m *Manager) removeFromInstance(inst *Instance, c *Combatant) {
	if c.Kind == KindPlayer {
		if p, err := m.players.GetPlayer(c.RefID); err == nil {
			p.Stats.HP = c.HP
			m.players.SavePlayer(p)
		}
	} else if mo, err := m.world.GetMonster(c.RefID); err == nil {
		mo.Stats.HP = c.HP
		m.world.UpdateMonster(mo)
	}
	inst.removeCombatant(c.ID)
	if c.Kind == KindPlayer {
		delete(m.byPlayer, c.RefID)
	} else {
		delete(m.byMonster, c.RefID)
	}
	if !inst.AlivePlayers() || !inst.AliveMonsters() {
		inst.State = StateEnded
		m.bus.Publish(events.New(events.TypeCombatEnd).WithRoom(inst.RoomID).WithData("instance_id", inst.ID).WithData("result", "abort"))
		m.teardown(inst)
	}
}

// teardown writes every surviving combatant's HP back to world state
// and removes the instance's bookkeeping entries. Must be called with
// m.mu held.
func (m *Manager) teardown(inst *Instance) {
	for _, c := range inst.Combatants {
		switch c.Kind {
		case KindPlayer:
			if p, err := m.players.GetPlayer(c.RefID); err == nil {
				p.Stats.HP = c.HP
				m.players.SavePlayer(p)
			}
			delete(m.byPlayer, c.RefID)
		case KindMonster:
			if mo, err := m.world.GetMonster(c.RefID); err == nil {
				mo.Stats.HP = c.HP
				m.world.UpdateMonster(mo)
			}
			delete(m.byMonster, c.RefID)
		}
	}
	delete(m.instances, inst.ID)
}

// renderStatus builds a read-only combat summary, consuming no turn.
func (m *Manager) renderStatus(inst *Instance) command.Result {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn %d.", inst.TurnNumber+1)
	for _, id := range inst.TurnOrder {
		c := inst.Combatants[id]
		fmt.Fprintf(&b, " %s: %d/%d HP.", c.DisplayName, c.HP, c.MaxHP)
	}
	if cur := inst.Current(); cur != nil {
		fmt.Fprintf(&b, " It's %s's turn.", cur.DisplayName)
	}
	return command.Ok(b.String())
}

// CheckAggro implements movement.AggroChecker: when a player steps
// into roomID, any aggressive monster there not already fighting
// draws them into a fresh instance.
func (m *Manager) CheckAggro(playerID, roomID string) {
	if m.InCombat(playerID) {
		return
	}
	for _, mo := range m.world.GetRoomMonsters(roomID) {
		if mo.MonsterType != model.MonsterTypeAggressive || !mo.IsAlive() {
			continue
		}
		m.mu.Lock()
		_, busy := m.byMonster[mo.ID]
		m.mu.Unlock()
		if busy {
			continue
		}
		if _, err := m.StartCombat(roomID, []string{playerID, mo.ID}); err == nil {
			m.chat.BroadcastRoom(roomID, mo.LocalizedName("en")+" attacks!", "")
			return
		}
	}
}

// SweepTimeouts forces a "wait" on every instance whose current
// combatant has been idle past the configured timeout, the scheduler's
// combat-timeout event (spec.md §4.9). It returns the number of
// instances nudged.
func (m *Manager) SweepTimeouts(now time.Time) int {
	m.mu.Lock()
	var stalled []*Instance
	for _, inst := range m.instances {
		if inst.State == StateActive && now.Sub(inst.LastActionAt) >= m.timeout {
			stalled = append(stalled, inst)
		}
	}
	m.mu.Unlock()

	n := 0
	for _, inst := range stalled {
		cur := inst.Current()
		if cur == nil {
			continue
		}
		if cur.Kind == KindPlayer {
			m.Act(cur.RefID, "wait", "")
		} else {
			m.mu.Lock()
			inst.LastActionAt = now
			cur.IsDefending = false // a forced wait only clears the stance
			if inst.State == StateActive {
				inst.advanceTurn()
				m.runAutoTurns(inst)
			}
			m.mu.Unlock()
		}
		n++
	}
	return n
}

// ForfeitPlayer removes playerID from its active instance outright,
// bypassing the flee chance. Used when a session disconnects mid-fight
// (spec.md §7's Transport unwind rule) rather than when the player
// chooses to run.
func (m *Manager) ForfeitPlayer(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	instID, ok := m.byPlayer[playerID]
	if !ok {
		return
	}
	inst, ok := m.instances[instID]
	if !ok {
		delete(m.byPlayer, playerID)
		return
	}
	for _, c := range inst.Combatants {
		if c.Kind == KindPlayer && c.RefID == playerID {
			m.chat.BroadcastRoom(inst.RoomID, c.DisplayName+" vanishes from the fight.", "")
			m.removeFromInstance(inst, c)
			return
		}
	}
}

// ActiveInstanceCount reports how many instances are currently active,
// used by admin introspection and tests.
func (m *Manager) ActiveInstanceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}
