// Package movement implements player room-to-room transitions: exit
// resolution, index updates, departure/arrival broadcasts, a look
// rendered at the destination, follow-chain propagation, and an
// aggro check against hostile monsters in the destination room. It
// generalizes the teacher's single-line World.MovePlayer (a map
// lookup plus a state reset) into the multi-step procedure spec.md
// §4.7 requires.
package movement

import (
	"strings"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/command"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

// describeRoom renders roomID the same way the "look" command does:
// name, description, exits, and whatever objects/monsters/other
// players are present. movement can't call the command package's
// handleLook (it is unexported), so this duplicates that rendering
// rather than sharing it — spec.md §4.7 step 5 requires the arriving
// session get "the new room description (equivalent to look)", not a
// one-line confirmation.
func describeRoom(world *worldmgr.Manager, players PlayerStore, room model.Room, locale, viewerID string) string {
	var b strings.Builder
	b.WriteString(room.LocalizedName(locale))
	b.WriteString("\n")
	b.WriteString(room.LocalizedDescription(locale))

	exits := make([]string, 0, len(room.Exits))
	for dir := range room.Exits {
		exits = append(exits, string(dir))
	}
	if len(exits) > 0 {
		b.WriteString("\nExits: " + strings.Join(exits, ", "))
	}

	for _, obj := range world.GetRoomObjects(room.ID) {
		b.WriteString("\n" + obj.LocalizedName(locale) + " is here.")
	}
	for _, mo := range world.GetRoomMonsters(room.ID) {
		b.WriteString("\n" + mo.LocalizedName(locale) + " is here.")
	}
	for _, pid := range world.PlayersInRoom(room.ID) {
		if pid == viewerID {
			continue
		}
		if p, err := players.GetPlayer(pid); err == nil {
			b.WriteString("\n" + p.Username + " is here.")
		}
	}

	return b.String()
}

// PlayerStore is the player read/write surface movement needs.
type PlayerStore interface {
	GetPlayer(playerID string) (model.Player, error)
	SavePlayer(p model.Player) error
}

// Broadcaster sends room-scoped text, used for departure/arrival
// messages.
type Broadcaster interface {
	BroadcastRoom(roomID, message string, exclude string)
}

// AggroChecker starts combat when a player walks into a room holding
// an aggressive monster. Declared as an interface so movement doesn't
// depend on the concrete combat package.
type AggroChecker interface {
	CheckAggro(playerID, roomID string)
}

// Manager resolves and executes player movement.
type Manager struct {
	world   *worldmgr.Manager
	players PlayerStore
	chat    Broadcaster
	aggro   AggroChecker

	followDepth int // max follow-chain hops before breaking the loop
}

// New creates a movement Manager.
func New(world *worldmgr.Manager, players PlayerStore, chat Broadcaster, aggro AggroChecker) *Manager {
	return &Manager{world: world, players: players, chat: chat, aggro: aggro, followDepth: 8}
}

// MovePlayerToRoom resolves direction from fromRoom (or, for admin
// teleports, a "goto:<room id>" pseudo-direction) and relocates
// playerID there. A fresh visited set guards against cyclic follow chains
// re-entering this call for a player already moved this turn.
func (m *Manager) MovePlayerToRoom(playerID, fromRoom, direction string) command.Result {
	return m.movePlayer(playerID, fromRoom, direction, make(map[string]bool))
}

func (m *Manager) movePlayer(playerID, fromRoom, direction string, visited map[string]bool) command.Result {
	if visited[playerID] {
		return command.Fail("You're caught in a loop following someone; staying put.")
	}
	visited[playerID] = true

	player, err := m.players.GetPlayer(playerID)
	if err != nil {
		return command.Fail("You seem to not exist.")
	}

	destRoomID, err := m.resolveDestination(fromRoom, direction)
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindNotFound:
			return command.Fail("You can't go that way.")
		default:
			return command.Fail("Something blocks the way.")
		}
	}

	destRoom, err := m.world.GetRoom(destRoomID)
	if err != nil {
		return command.Fail("That place doesn't exist.")
	}

	if destRoomID == fromRoom {
		return command.OkData(describeRoom(m.world, m.players, destRoom, player.Locale, playerID),
			map[string]interface{}{"room_id": destRoomID})
	}

	m.world.UnindexPlayerFromRoom(fromRoom, playerID)
	m.chat.BroadcastRoom(fromRoom, player.Username+" leaves.", playerID)

	player.RoomID = destRoomID
	if err := m.players.SavePlayer(player); err != nil {
		// Roll back the index change so state stays consistent with
		// the persisted room even though the move failed.
		m.world.IndexPlayerInRoom(fromRoom, playerID)
		return command.Fail("Couldn't complete the move.")
	}

	m.world.IndexPlayerInRoom(destRoomID, playerID)
	m.chat.BroadcastRoom(destRoomID, player.Username+" arrives.", playerID)

	m.propagateFollowers(playerID, fromRoom, destRoomID, visited)

	if m.aggro != nil {
		m.aggro.CheckAggro(playerID, destRoomID)
	}

	return command.OkData(describeRoom(m.world, m.players, destRoom, player.Locale, playerID),
		map[string]interface{}{"room_id": destRoomID})
}

// resolveDestination maps (fromRoom, direction) to a target room id.
// A "goto:<room id>" direction is the admin teleport escape hatch and
// bypasses exit validation entirely.
func (m *Manager) resolveDestination(fromRoom, direction string) (string, error) {
	if strings.HasPrefix(direction, "goto:") {
		return strings.TrimPrefix(direction, "goto:"), nil
	}

	room, err := m.world.GetRoom(fromRoom)
	if err != nil {
		return "", err
	}

	dir := model.Direction(direction)
	target, ok := room.Exits[dir]
	if !ok {
		return "", apperrors.New(apperrors.KindNotFound, "Manager.resolveDestination", apperrors.ErrNoSuchExit)
	}
	return target, nil
}

// propagateFollowers moves every player following playerID along the
// same transition, one hop at a time, guarded by visited against
// cycles (A follows B, B follows A).
func (m *Manager) propagateFollowers(leaderID, fromRoom, toRoom string, visited map[string]bool) {
	for _, followerID := range m.world.PlayersInRoom(fromRoom) {
		if followerID == leaderID {
			continue
		}
		follower, err := m.players.GetPlayer(followerID)
		if err != nil || follower.Following != leaderID {
			continue
		}
		if len(visited) > m.followDepth {
			return
		}
		m.movePlayer(followerID, fromRoom, "goto:"+toRoom, visited)
	}
}
