// Broadcast fan-out: the engine is the sole component that holds both
// the session registry and the world's room index, so it is the
// natural implementation of command.Broadcaster, movement.Broadcaster,
// and combat.Broadcaster (the latter two are subsets of
// command.Broadcaster's method set, so one implementation satisfies
// all three) plus command.OnlineDirectory. Callers do not hold a
// worldmgr room lock while broadcasting, and nothing here takes one:
// BroadcastRoom reads the room's occupant list once through worldmgr's
// index lock and looks each recipient up in the session registry.
package engine

import (
	"fmt"
	"strings"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/command"
	"github.com/holdfast-mud/holdfast/internal/session"
)

// BroadcastRoom sends message to every session whose player is in
// roomID, skipping the player id named in exclude (if any).
func (e *Engine) BroadcastRoom(roomID, message, exclude string) {
	for _, playerID := range e.world.PlayersInRoom(roomID) {
		if playerID == exclude {
			continue
		}
		if s, ok := e.sessionForPlayer(playerID); ok {
			s.SendLine(message)
		}
	}
}

// BroadcastGlobal sends message to every currently playing session.
func (e *Engine) BroadcastGlobal(message string) {
	for _, s := range e.allPlayingSessions() {
		s.SendLine(message)
	}
}

// Tell delivers a private message from fromPlayerID to toUsername.
// Returns apperrors.ErrTargetNotFound if no matching session is
// online.
func (e *Engine) Tell(fromPlayerID, toUsername, message string) error {
	target, ok := e.sessionForUsername(toUsername)
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "Engine.Tell", apperrors.ErrTargetNotFound)
	}
	sender, err := e.playerStore.GetPlayer(fromPlayerID)
	if err != nil {
		return apperrors.New(apperrors.KindNotFound, "Engine.Tell", apperrors.ErrTargetNotFound)
	}
	target.SendLine(fmt.Sprintf("%s tells you: %s", sender.Username, message))
	return nil
}

// Gossip broadcasts message on the server-wide gossip channel,
// attributed to fromUsername, to everyone but the sender.
func (e *Engine) Gossip(fromUsername, message string) {
	line := fmt.Sprintf("[gossip] %s: %s", fromUsername, message)
	for _, s := range e.allPlayingSessions() {
		_, username, _ := s.Identity()
		if strings.EqualFold(username, fromUsername) {
			continue
		}
		s.SendLine(line)
	}
}

// OnlinePlayers implements command.OnlineDirectory for the "who"
// command.
func (e *Engine) OnlinePlayers() []command.OnlinePlayer {
	out := make([]command.OnlinePlayer, 0)
	for _, s := range e.allPlayingSessions() {
		playerID, username, _ := s.Identity()
		p, err := e.playerStore.GetPlayer(playerID)
		if err != nil {
			continue
		}
		out = append(out, command.OnlinePlayer{Username: username, RoomID: p.RoomID})
	}
	return out
}

func (e *Engine) sessionForPlayer(playerID string) (*session.Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.byPlayerID[playerID]
	return s, ok
}

func (e *Engine) sessionForUsername(username string) (*session.Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.byUsername[strings.ToLower(username)]
	return s, ok
}

func (e *Engine) allPlayingSessions() []*session.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*session.Session, 0, len(e.byPlayerID))
	for _, s := range e.byPlayerID {
		out = append(out, s)
	}
	return out
}
