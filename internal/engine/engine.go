// Package engine is Holdfast's composition root. It hydrates the
// world, wires every manager package together behind the narrow
// interfaces each one declares locally, and owns the two long-running
// loops a running server needs: the TCP session acceptor and the
// phase-aligned scheduler. Grounded on the teacher's main.go, which
// does the same job inline in func main (listener, accept loop with a
// connection-count semaphore, a 500ms world ticker, signal-driven
// graceful shutdown) — generalized here into a type so cmd/server's
// main can stay a thin bootstrap.
package engine

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/applog"
	"github.com/holdfast-mud/holdfast/internal/chat"
	"github.com/holdfast-mud/holdfast/internal/combat"
	"github.com/holdfast-mud/holdfast/internal/command"
	"github.com/holdfast-mud/holdfast/internal/config"
	"github.com/holdfast-mud/holdfast/internal/dialogue"
	"github.com/holdfast-mud/holdfast/internal/events"
	"github.com/holdfast-mud/holdfast/internal/locale"
	"github.com/holdfast-mud/holdfast/internal/model"
	"github.com/holdfast-mud/holdfast/internal/movement"
	"github.com/holdfast-mud/holdfast/internal/ratelimit"
	"github.com/holdfast-mud/holdfast/internal/scheduler"
	"github.com/holdfast-mud/holdfast/internal/scripting"
	"github.com/holdfast-mud/holdfast/internal/session"
	"github.com/holdfast-mud/holdfast/internal/store"
	"github.com/holdfast-mud/holdfast/internal/worldmgr"
)

// defaultStartRoom is the room new characters spawn into. It is
// created automatically on first boot if it doesn't already exist, the
// way spec.md's idempotent room creation treats a pre-existing seed id
// as a no-op success.
const defaultStartRoom = "town_square"

// acceptRatePerSecond and acceptBurst bound how fast the accept loop
// hands out new connections, independent of connSem's total-concurrent
// cap — this throttles a burst of new connection attempts (a
// connection flood) rather than the steady-state count already
// playing.
const (
	acceptRatePerSecond = 20
	acceptBurst         = 40
)

// MetricsSink is the narrow slice of internal/telemetry the engine
// itself calls directly (everything scheduler-shaped goes through
// scheduler.MetricsRecorder instead). Declared locally so engine
// doesn't require telemetry to be wired to compile or test.
type MetricsSink interface {
	scheduler.MetricsRecorder
	ObserveCommand(verb string, success bool, seconds float64)
	ConnectionOpened()
	ConnectionClosed()
	SetPlayersOnline(n int)
}

// Engine owns every long-lived manager and the session registry.
type Engine struct {
	cfg *config.Config

	db           *store.DB
	players      *store.PlayerRepository
	sessionsRepo *store.SessionHistoryRepository
	world        *worldmgr.Manager

	bus       *events.Bus
	movement  *movement.Manager
	combat    *combat.Manager
	scheduler *scheduler.Scheduler
	chat      *chat.Manager
	dialogue  *dialogue.Manager
	scripting *scripting.Engine // nil when no script directory is configured
	metrics   MetricsSink
	commands  *command.Registry
	reconnect *session.Registry

	playerStore *playerStoreAdapter

	mu             sync.RWMutex
	sessionsByID   map[string]*session.Session
	byPlayerID     map[string]*session.Session
	byUsername     map[string]*session.Session
	listener       net.Listener
	connSem        chan struct{}
	shuttingDown   bool
	loginLimiter   *ratelimit.Limiter
	acceptLimiter  *rate.Limiter
}

// New wires every manager together over an already-migrated database.
// Callers must call Hydrate (via the returned Engine's world) before
// Run; New itself does not touch the database beyond what the repos
// passed in were built from.
func New(cfg *config.Config, db *store.DB, world *worldmgr.Manager, metrics MetricsSink) *Engine {
	players := store.NewPlayerRepository(db)
	sessionsRepo := store.NewSessionHistoryRepository(db)

	bus := events.NewBus()
	psa := &playerStoreAdapter{repo: players}
	chatMgr := chat.NewManager()

	e := &Engine{
		cfg:          cfg,
		db:           db,
		players:      players,
		sessionsRepo: sessionsRepo,
		world:        world,
		bus:          bus,
		chat:         chatMgr,
		dialogue:     dialogue.NewManager(),
		metrics:      metrics,
		reconnect:    session.NewRegistry(),
		playerStore:  psa,
		sessionsByID: make(map[string]*session.Session),
		byPlayerID:   make(map[string]*session.Session),
		byUsername:   make(map[string]*session.Session),
		connSem:       make(chan struct{}, cfg.MaxConnections),
		loginLimiter:  ratelimit.New(5, time.Minute),
		acceptLimiter: rate.NewLimiter(rate.Limit(acceptRatePerSecond), acceptBurst),
	}

	e.combat = combat.NewManager(world, psa, e, bus, cfg.CombatTimeout)
	e.movement = movement.New(world, psa, e, e.combat)
	e.commands = command.NewRegistry()
	command.Register(e.commands)

	e.scheduler = scheduler.New(metrics)
	e.registerScheduledEvents()

	return e
}

// UseScripting attaches a Lua scripting engine for monster AI. Optional:
// an Engine with none configured falls back to each manager's built-in
// default behavior everywhere a script would otherwise be consulted.
func (e *Engine) UseScripting(s *scripting.Engine) { e.scripting = s }

// registerScheduledEvents wires the standing background jobs spec.md
// §4.9 names: monster respawn/roam sweeps, a combat timeout sweep, and
// session idle/reconnect cleanup. Autosave has nothing to do here since
// every write already round-trips through the store synchronously, but
// the reconnect window still needs periodic pruning the way the
// teacher's hourly rate-limiter-cleanup goroutine prunes its own maps.
func (e *Engine) registerScheduledEvents() {
	e.scheduler.Register("monster_respawn_sweep", []int{0, 15, 30, 45}, func(ctx context.Context) error {
		n := e.world.RunRespawnSweep(time.Now())
		if n > 0 {
			applog.Debug().Int("respawned", n).Msg("scheduler: respawn sweep")
		}
		return nil
	})

	e.scheduler.Register("monster_roam_step", []int{0, 15, 30, 45}, func(ctx context.Context) error {
		e.runRoamStep()
		return nil
	})

	e.scheduler.Register("combat_timeout_sweep", []int{0, 15, 30, 45}, func(ctx context.Context) error {
		n := e.combat.SweepTimeouts(time.Now())
		if n > 0 {
			applog.Debug().Int("forced", n).Msg("scheduler: combat timeout sweep")
		}
		return nil
	})

	e.scheduler.Register("session_idle_cleanup", []int{0, 30}, func(ctx context.Context) error {
		e.sweepIdleSessions()
		removed := e.reconnect.Sweep()
		if removed > 0 {
			applog.Debug().Int("expired", removed).Msg("scheduler: reconnect window sweep")
		}
		e.loginLimiter.CleanupOldEntries()
		e.chat.CleanupRateLimiter()
		return nil
	})
}

// runRoamStep advances every roaming monster one exit, consulting the
// scripting engine (if any) per monster template for the direction
// choice before falling back to a uniform pick across its room's
// exits. It then re-runs combat.Manager's fixed aggressive-monster
// policy against every occupied room, since CheckAggro otherwise only
// fires on a player's own step and would never notice a monster
// roaming into an occupied room. Finally, any monster template with a
// should_aggro script gets a chance to engage a player sharing its
// room under its own scripted policy.
func (e *Engine) runRoamStep() {
	moved := e.world.RoamStep(func(room model.Room, mo model.Monster) (string, bool) {
		exits := make([]string, 0, len(room.Exits))
		destByExit := make(map[string]string, len(room.Exits))
		for dir, target := range room.Exits {
			exits = append(exits, string(dir))
			destByExit[string(dir)] = target
		}
		if len(exits) == 0 {
			return "", false
		}
		sort.Strings(exits)

		if e.scripting != nil {
			if dir, ok := e.scripting.PickRoamDirection(mo.TemplateID, exits); ok {
				return destByExit[dir], true
			}
		}
		dir := exits[pseudoRandomIndex(len(exits))]
		return destByExit[dir], true
	})
	if moved > 0 {
		applog.Debug().Int("moved", moved).Msg("scheduler: roam step")
	}

	// Fixed-policy aggressive monsters get no trigger from CheckAggro
	// when they are the one doing the moving: CheckAggro only ever
	// runs from movement.Manager on a player's own step. Sweep every
	// occupied room here so a roamed-in aggressive monster still
	// engages, regardless of whether scripting is configured.
	for _, room := range e.world.RoomsWithPlayers() {
		for _, playerID := range e.world.PlayersInRoom(room) {
			e.combat.CheckAggro(playerID, room)
		}
	}

	if e.scripting == nil {
		return
	}
	for _, room := range e.world.RoomsWithPlayers() {
		players := e.world.PlayersInRoom(room)
		if len(players) == 0 {
			continue
		}
		for _, mo := range e.world.GetRoomMonsters(room) {
			if mo.MonsterType == model.MonsterTypeAggressive || !mo.IsAlive() {
				continue
			}
			playerID := players[pseudoRandomIndex(len(players))]
			player, err := e.playerStore.GetPlayer(playerID)
			if err != nil {
				continue
			}
			aggro, ok := e.scripting.ShouldAggro(mo.TemplateID, scripting.AggroContext{
				MonsterLevel: mo.Stats.Level,
				PlayerLevel:  player.Stats.Level,
			})
			if ok && aggro {
				if _, err := e.combat.StartCombat(room, []string{playerID, mo.ID}); err == nil {
					e.BroadcastRoom(room, mo.LocalizedName(player.Locale)+" turns to attack "+player.Username+"!", "")
				}
			}
		}
	}
}

// pseudoRandomIndex is a tiny non-cryptographic chooser kept separate
// from math/rand's global source so scheduler ticks (already
// serialized by the scheduler's own loop) don't contend on the
// package-level lock math/rand uses internally.
var pseudoRandomCounter uint64

func pseudoRandomIndex(n int) int {
	if n <= 0 {
		return 0
	}
	pseudoRandomCounter++
	return int(pseudoRandomCounter % uint64(n))
}

// sweepIdleSessions disconnects sessions that exceeded the configured
// idle timeout, suspending their player into the reconnect window
// rather than dropping them outright.
func (e *Engine) sweepIdleSessions() {
	e.mu.RLock()
	idle := make([]*session.Session, 0)
	for _, s := range e.sessionsByID {
		if s.CurrentPhase() == session.PhasePlaying && s.IdleFor() > e.cfg.IdleTimeout {
			idle = append(idle, s)
		}
	}
	e.mu.RUnlock()

	for _, s := range idle {
		s.SendLine("You have been idle too long and are being disconnected.")
		e.disconnect(s, "idle timeout")
	}
}

// ensureStartRoom creates the default spawn room if this is a brand
// new world. A conflict (the room already exists) is treated as
// success per spec.md's idempotent-create rule for seed entities.
func (e *Engine) ensureStartRoom(ctx context.Context) error {
	if _, err := e.world.GetRoom(defaultStartRoom); err == nil {
		return nil
	}
	room := model.NewRoom(defaultStartRoom, locale.New("Town Square"), locale.New("A well-worn square at the heart of town."))
	if err := e.world.CreateRoom(ctx, room); err != nil && !apperrors.IsConflict(err) {
		return fmt.Errorf("engine: create default start room: %w", err)
	}
	return nil
}

// Run hydrates defaults, starts the scheduler loop, and serves
// connections on addr until ctx is canceled. It blocks until the
// listener is closed by Shutdown.
func (e *Engine) Run(ctx context.Context, addr string) error {
	if err := e.ensureStartRoom(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("engine: listen %s: %w", addr, err)
	}
	e.mu.Lock()
	e.listener = ln
	e.mu.Unlock()

	go e.scheduler.Run(ctx)

	e.bus.Publish(events.New(events.TypeServerStart).WithData("addr", addr))
	applog.Info().Str("addr", addr).Msg("engine: accepting connections")

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				applog.Error().Err(err).Msg("engine: accept error")
				continue
			}
		}

		if !e.acceptLimiter.Allow() {
			conn.Write([]byte("Too many connection attempts. Please try again shortly.\r\n"))
			conn.Close()
			applog.Warn().Msg("engine: connection rejected, accept rate exceeded")
			continue
		}

		select {
		case e.connSem <- struct{}{}:
			go func(c net.Conn) {
				defer func() { <-e.connSem }()
				e.handleConnection(ctx, c)
			}(conn)
		default:
			conn.Write([]byte("Server full. Please try again later.\r\n"))
			conn.Close()
			applog.Warn().Msg("engine: connection rejected, server at capacity")
		}
	}
}

// Shutdown stops accepting new connections, warns every connected
// session, waits up to drain for them to notice and disconnect
// cleanly, then force-closes whatever remains. Per spec.md §5's 5
// second shutdown drain window.
func (e *Engine) Shutdown(drain time.Duration) {
	e.mu.Lock()
	e.shuttingDown = true
	ln := e.listener
	e.mu.Unlock()

	if ln != nil {
		ln.Close()
	}

	e.BroadcastGlobal("Server shutting down. Your progress has been saved.")

	deadline := time.Now().Add(drain)
	for time.Now().Before(deadline) {
		e.mu.RLock()
		remaining := len(e.sessionsByID)
		e.mu.RUnlock()
		if remaining == 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	e.mu.RLock()
	stragglers := make([]*session.Session, 0, len(e.sessionsByID))
	for _, s := range e.sessionsByID {
		stragglers = append(stragglers, s)
	}
	e.mu.RUnlock()
	for _, s := range stragglers {
		e.disconnect(s, "server shutdown")
	}

	e.bus.Publish(events.New(events.TypeServerStop))
	applog.Info().Msg("engine: shutdown complete")
}

// hashPassword and checkPassword wrap bcrypt the way the teacher's
// authenticate function does, generalized from its inline json-file
// user store into the PlayerRepository.
func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// playerStoreAdapter satisfies command.PlayerStore, movement.PlayerStore,
// and combat.PlayerStore over the store.PlayerRepository, which takes a
// context every repo call needs but none of those three interfaces
// thread through. Every request here is a short local-database round
// trip, so context.Background() is an acceptable simplification; a
// slower backing store would need these to take a context argument
// instead.
type playerStoreAdapter struct {
	repo *store.PlayerRepository
}

func (a *playerStoreAdapter) GetPlayer(playerID string) (model.Player, error) {
	return a.repo.GetByID(context.Background(), playerID)
}

func (a *playerStoreAdapter) SavePlayer(p model.Player) error {
	return a.repo.Update(context.Background(), p)
}

func (a *playerStoreAdapter) FindPlayerByUsername(username string) (model.Player, error) {
	return a.repo.GetByUsername(context.Background(), strings.ToLower(username))
}
