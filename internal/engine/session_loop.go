// This file implements the per-connection state machine spec.md §4.5
// describes: the greeting/menu/auth/register/playing phase walk, the
// command-dispatch loop once playing, and the cleanup a disconnect (or
// "quit") triggers. Grounded on the teacher's connection handler loop
// in main.go, generalized from its single username/password prompt
// into the full phase table.
package engine

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/applog"
	"github.com/holdfast-mud/holdfast/internal/command"
	"github.com/holdfast-mud/holdfast/internal/events"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/session"
	"github.com/holdfast-mud/holdfast/internal/validation"
)

const menuText = "Welcome to Holdfast.\n1) Login\n2) Register\n3) Quit\n> "

// handleConnection owns one accepted connection end to end: it wraps
// it in a Session, walks the greeting/auth/register phases, then (once
// playing) loops reading and dispatching commands until the session
// disconnects or quits.
func (e *Engine) handleConnection(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()
	s := session.New(id, conn)

	e.mu.Lock()
	e.sessionsByID[id] = s
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.ConnectionOpened()
	}

	applog.Debug().Str("session", id).Str("remote", s.RemoteAddr()).Msg("engine: connection accepted")
	s.SendLine(menuText)

	for s.CurrentPhase() != session.PhaseQuitting {
		var (
			line string
			err  error
		)
		switch s.CurrentPhase() {
		case session.PhaseAuthPass, session.PhaseRegisterPass:
			line, err = s.ReadPassword()
		default:
			line, err = s.ReadLine()
		}
		if err != nil {
			break
		}
		line = validation.SanitizeInput(line)
		if !e.stepPhase(s, line) {
			break
		}
	}

	e.disconnect(s, "connection closed")
}

// stepPhase advances s's state machine by one line of input. It
// returns false when the session loop should stop reading immediately
// (the "3" / quit path); the caller still runs disconnect cleanup
// either way.
func (e *Engine) stepPhase(s *session.Session, line string) bool {
	switch s.CurrentPhase() {
	case session.PhaseGreeting, session.PhaseMenu:
		return e.stepMenu(s, line)
	case session.PhaseAuthUser:
		e.stepAuthUser(s, line)
	case session.PhaseAuthPass:
		e.stepAuthPass(s, line)
	case session.PhaseRegisterUser:
		e.stepRegisterUser(s, line)
	case session.PhaseRegisterPass:
		e.stepRegisterPass(s, line)
	case session.PhasePlaying:
		return e.stepPlaying(s, line)
	}
	return true
}

func (e *Engine) stepMenu(s *session.Session, line string) bool {
	switch strings.TrimSpace(line) {
	case "1":
		s.SetPhase(session.PhaseAuthUser)
		s.SendLine("Username: ")
	case "2":
		s.SetPhase(session.PhaseRegisterUser)
		s.SendLine("Choose a username (3-20 chars, letters/digits/underscore): ")
	case "3":
		s.SetPhase(session.PhaseQuitting)
		s.SendLine("Goodbye.")
		return false
	default:
		s.SendLine(menuText)
	}
	return true
}

func (e *Engine) stepAuthUser(s *session.Session, line string) {
	username := strings.TrimSpace(line)
	if username == "" {
		s.SendLine("Username: ")
		return
	}
	s.SetPendingUsername(username)
	s.SetPhase(session.PhaseAuthPass)
	s.SendLine("Password: ")
}

func (e *Engine) stepAuthPass(s *session.Session, line string) {
	pending := s.PendingUsername

	if !e.loginLimiter.Allow(s.RemoteAddr()) {
		applog.Warn().Str("remote", s.RemoteAddr()).Msg("engine: login rate limit exceeded")
		s.SendLine("Too many login attempts. Please wait a moment and try again.")
		s.SetPhase(session.PhaseMenu)
		s.SendLine(menuText)
		return
	}

	player, err := e.playerStore.FindPlayerByUsername(pending)
	valid := err == nil && checkPassword(player.PasswordHash, line)
	if !valid {
		failures := s.BumpAuthFailure()
		applog.Warn().Str("username", pending).Int("failures", failures).Msg("engine: failed login attempt")
		s.SendLine("Invalid username or password.")
		if failures < 3 {
			s.SetPhase(session.PhaseAuthUser)
			s.SendLine("Username: ")
			return
		}
		s.ResetAuthFailures()
		s.SetPhase(session.PhaseMenu)
		s.SendLine(menuText)
		return
	}

	s.ResetAuthFailures()
	e.loginLimiter.Reset(s.RemoteAddr())
	e.attachPlayer(s, player)
}

func (e *Engine) stepRegisterUser(s *session.Session, line string) {
	username := strings.TrimSpace(line)
	if !validation.ValidateUsername(username) {
		s.SendLine("Usernames are 3-20 characters: letters, digits, underscore only. Try again: ")
		return
	}
	if _, err := e.playerStore.FindPlayerByUsername(username); err == nil {
		s.SendLine("That username is taken. Try again: ")
		return
	}
	s.SetPendingUsername(username)
	s.SetPhase(session.PhaseRegisterPass)
	s.SendLine("Choose a password (at least 6 characters): ")
}

func (e *Engine) stepRegisterPass(s *session.Session, line string) {
	if !validation.ValidatePassword(line) {
		s.SendLine("Passwords must be at least 6 characters. Try again: ")
		return
	}

	hash, err := hashPassword(line)
	if err != nil {
		s.SendLine("Registration failed. Please try again later.")
		s.SetPhase(session.PhaseMenu)
		s.SendLine(menuText)
		return
	}

	player := model.NewPlayer(uuid.NewString(), s.PendingUsername, hash, defaultStartRoom)
	if err := e.players.Create(context.Background(), player); err != nil {
		if apperrors.IsConflict(err) {
			s.SendLine("That username was just taken. Please log in or pick another.")
		} else {
			s.SendLine("Registration failed. Please try again later.")
		}
		s.SetPhase(session.PhaseMenu)
		s.SendLine(menuText)
		return
	}

	applog.Info().Str("player", player.Username).Msg("engine: new player registered")
	e.attachPlayer(s, player)
}

// attachPlayer binds player to s, transitions it to playing, registers
// it in every session index, resumes it into its last room if a
// reconnect window was open, and auto-runs "look".
func (e *Engine) attachPlayer(s *session.Session, player model.Player) {
	if roomID, ok := e.reconnect.TryResume(player.ID); ok {
		player.RoomID = roomID
	}

	s.SetIdentity(player.ID, player.Username, player.Locale)
	s.SetPhase(session.PhasePlaying)

	e.mu.Lock()
	e.byPlayerID[player.ID] = s
	e.byUsername[strings.ToLower(player.Username)] = s
	e.mu.Unlock()

	e.world.IndexPlayerInRoom(player.RoomID, player.ID)
	e.chat.AutoJoinDefaults(player.Username)
	if e.metrics != nil {
		e.metrics.SetPlayersOnline(e.onlineCount())
	}

	applog.Info().Str("player", player.Username).Str("session", s.ID).Msg("engine: player logged in")
	s.SendLine("Welcome back, " + player.Username + ".")

	ctx := e.newContext(s)
	result := e.commands.Dispatch(ctx, "look", "")
	e.render(s, result)

	e.bus.Publish(events.New(events.TypePlayerJoin).WithPlayer(player.ID).WithRoom(player.RoomID))
	e.BroadcastRoom(player.RoomID, player.Username+" has entered the world.", player.ID)
}

// stepPlaying parses and dispatches one command line while s is in the
// playing phase. It returns false (ending the read loop) only when the
// handler's result signals a UI "quit".
func (e *Engine) stepPlaying(s *session.Session, line string) bool {
	line = s.ExpandHistory(line)
	verb, arg := command.Parse(line)
	if verb == "" {
		return true
	}
	s.RecordHistory(line)

	ctx := e.newContext(s)
	start := time.Now()
	result := e.commands.Dispatch(ctx, verb, arg)
	if e.metrics != nil {
		e.metrics.ObserveCommand(verb, result.Success, time.Since(start).Seconds())
	}

	e.render(s, result)

	if result.UIUpdate == "quit" {
		s.SetPhase(session.PhaseQuitting)
		return false
	}
	return true
}

// render writes a command.Result to s as the single response line
// spec.md's open-question resolution mandates: no duplicate
// echo-then-response, just the handler's own message.
func (e *Engine) render(s *session.Session, result command.Result) {
	if result.Message == "" {
		return
	}
	s.SendLine(result.Message)
}

// newContext builds a fresh command.Context for one dispatch against
// s's currently bound identity.
func (e *Engine) newContext(s *session.Session) *command.Context {
	playerID, username, locale := s.Identity()
	return &command.Context{
		PlayerID:  playerID,
		Username:  username,
		Locale:    locale,
		IsAdmin:   e.isAdmin(playerID),
		World:     e.world,
		Players:   e.playerStore,
		Movement:  e.movement,
		Combat:    e.combat,
		Chat:      e,
		Events:    e.bus,
		Online:    e,
		Dialogue:  &talkerAdapter{dialogue: e.dialogue},
		Scheduler: &schedulerAdapter{sched: e.scheduler},
	}
}

func (e *Engine) isAdmin(playerID string) bool {
	if playerID == "" {
		return false
	}
	p, err := e.playerStore.GetPlayer(playerID)
	if err != nil {
		return false
	}
	return p.IsAdmin
}

// persistAndDetach unwinds whatever game state a bound player still
// holds: its combat instance, its room index entry, and its follow
// targets, then suspends it into the reconnect window. It is safe to
// call on a session with no bound player (the pre-auth paths).
func (e *Engine) persistAndDetach(s *session.Session) {
	playerID, username, _ := s.Identity()
	if playerID == "" {
		return
	}

	e.combat.ForfeitPlayer(playerID)

	if player, err := e.playerStore.GetPlayer(playerID); err == nil {
		e.world.UnindexPlayerFromRoom(player.RoomID, playerID)
		e.BroadcastRoom(player.RoomID, username+" has left the world.", playerID)
		e.bus.Publish(events.New(events.TypePlayerLeave).WithPlayer(playerID).WithRoom(player.RoomID))
		e.reconnect.Suspend(playerID, player.RoomID)
	}

	e.mu.Lock()
	delete(e.byPlayerID, playerID)
	delete(e.byUsername, strings.ToLower(username))
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.SetPlayersOnline(e.onlineCount())
	}
}

// disconnect tears down s fully: detach any bound player, close the
// socket, and drop it from the session registry.
func (e *Engine) disconnect(s *session.Session, reason string) {
	e.persistAndDetach(s)
	s.Close()

	e.mu.Lock()
	delete(e.sessionsByID, s.ID)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.ConnectionClosed()
	}

	applog.Debug().Str("session", s.ID).Str("reason", reason).Msg("engine: session closed")
}

// onlineCount reports how many sessions currently have an attached
// player.
func (e *Engine) onlineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.byPlayerID)
}
