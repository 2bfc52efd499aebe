package command

import (
	"time"

	"github.com/holdfast-mud/holdfast/internal/events"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

// Mover is the subset of internal/movement's Manager that command
// handlers need. Declaring it here (rather than importing the
// movement package) keeps command free of a dependency on the
// packages that in turn depend on command's Context.
type Mover interface {
	MovePlayerToRoom(playerID, fromRoom, direction string) Result
}

// Combatant is the subset of internal/combat's Manager that command
// handlers need.
type Combatant interface {
	StartCombat(roomID string, participantIDs []string) (string, error)
	Act(playerID, action, targetID string) Result
	InCombat(playerID string) bool
}

// Broadcaster sends text to sessions, used for say/tell/emote and
// admin broadcast commands.
type Broadcaster interface {
	BroadcastRoom(roomID, message string, exclude string)
	BroadcastGlobal(message string)
	Tell(fromPlayerID, toUsername, message string) error
	Gossip(fromUsername, message string)
}

// PlayerStore is the player persistence surface command handlers need
// beyond what's already indexed in worldmgr (inventory weight lookups
// and stat mutation require the full record).
type PlayerStore interface {
	GetPlayer(playerID string) (model.Player, error)
	SavePlayer(p model.Player) error
	FindPlayerByUsername(username string) (model.Player, error)
}

// OnlineDirectory is the subset of the engine's session registry
// handleWho needs: usernames and the room they're standing in, without
// giving command a dependency on the session/engine packages.
type OnlineDirectory interface {
	OnlinePlayers() []OnlinePlayer
}

// OnlinePlayer is one row of a who listing.
type OnlinePlayer struct {
	Username string
	RoomID   string
}

// Talker is the dialogue surface handleTalk needs: starting and
// advancing a conversation against a monster template, keyed by the
// initiating player's username.
type Talker interface {
	StartDialogue(playerName, templateID string) (DialogueLine, error)
	AdvanceDialogue(playerName string, choiceIndex int) (DialogueLine, error)
}

// DialogueLine is a rendering-ready snapshot of one dialogue node:
// what the speaker says and, if the node offers a choice, the options
// available. An empty Choices slice means the line is advanced with
// "talk" followed by any number (or ends the conversation outright); a
// bare "talk" with no argument does not advance it.
type DialogueLine struct {
	SpeakerName string
	Text        string
	Choices     []string
	Ended       bool
}

// SchedulerControl is the admin-facing slice of internal/scheduler's
// Scheduler, declared locally (with its own SchedulerEventInfo
// mirroring scheduler.EventInfo) so command does not import scheduler.
type SchedulerControl interface {
	List() []SchedulerEventInfo
	Info(name string) (SchedulerEventInfo, bool)
	Enable(name string) bool
	Disable(name string) bool
}

// SchedulerEventInfo mirrors scheduler.EventInfo's fields.
type SchedulerEventInfo struct {
	Name       string
	Intervals  []int
	Enabled    bool
	RunCount   int64
	ErrorCount int64
	LastRun    time.Time
	LastError  string
}

// Context is the per-invocation handle a command handler operates
// against: who is issuing the command and the manager surfaces it may
// call into.
type Context struct {
	PlayerID string
	Username string
	Locale   string
	IsAdmin  bool

	World     *worldmgr.Manager
	Players   PlayerStore
	Movement  Mover
	Combat    Combatant
	Chat      Broadcaster
	Events    *events.Bus
	Online    OnlineDirectory
	Dialogue  Talker
	Scheduler SchedulerControl
}
