// Package session implements the per-connection state machine, line
// protocol, and reconnect window for Holdfast. Each accepted TCP
// connection gets a Session, driven by one goroutine that reads a line
// and handles it before reading the next (so a given session's
// commands are always handled one at a time, in order), while an
// outbound queue drained by its own writer goroutine serializes
// writes back to the socket.
package session

import (
	"bufio"
	"net"
	"sync"
	"time"

	"github.com/holdfast-mud/holdfast/internal/readline"
)

// historySize is how many prior playing-phase commands a session
// retains for "!!"/"!n" bang-history expansion.
const historySize = 20

// Phase is a state in the per-session connection state machine.
type Phase string

const (
	PhaseGreeting      Phase = "greeting"
	PhaseMenu          Phase = "menu"
	PhaseAuthUser      Phase = "auth_user"
	PhaseAuthPass      Phase = "auth_pass"
	PhaseRegisterUser  Phase = "register_user"
	PhaseRegisterPass  Phase = "register_pass"
	PhasePlaying       Phase = "playing"
	PhaseQuitting      Phase = "quitting"
)

// ReconnectWindow is how long a disconnected session may be resumed
// by the same player before it is discarded for good.
const ReconnectWindow = 30 * time.Minute

// Session is one connected (or recently disconnected) client.
type Session struct {
	ID         string
	conn       net.Conn
	reader     *bufio.Reader
	outbound   chan []byte
	closeOnce  sync.Once
	closed     chan struct{}

	mu sync.Mutex

	Phase        Phase
	PlayerID     string
	Username     string
	Locale       string
	PlainText    bool
	PendingUsername string // username captured in auth_user/register_user, read back in the next phase step

	authFailures int
	history      *readline.History

	LastActivity time.Time
	ConnectedAt  time.Time
}

// New wraps an accepted connection in a Session in the greeting
// phase, with the outbound writer queue and reader ready to start.
func New(id string, conn net.Conn) *Session {
	now := time.Now()
	s := &Session{
		ID:           id,
		conn:         conn,
		reader:       bufio.NewReader(conn),
		outbound:     make(chan []byte, 64),
		closed:       make(chan struct{}),
		Phase:        PhaseGreeting,
		Locale:       "en",
		PlainText:    true,
		history:      readline.NewHistory(historySize),
		LastActivity: now,
		ConnectedAt:  now,
	}
	go s.writeLoop()
	return s
}

// writeLoop drains the outbound queue onto the socket, serializing
// every write so two goroutines can never interleave partial frames.
func (s *Session) writeLoop() {
	for {
		select {
		case data, ok := <-s.outbound:
			if !ok {
				return
			}
			if _, err := s.conn.Write(data); err != nil {
				s.Close()
				return
			}
		case <-s.closed:
			return
		}
	}
}

// Enqueue schedules data for writing without blocking the caller on
// socket I/O.
func (s *Session) Enqueue(data []byte) {
	select {
	case s.outbound <- data:
	case <-s.closed:
	default:
		// Outbound queue full: the client isn't draining. Drop rather
		// than block the game loop that called us.
	}
}

// Close shuts down the session's connection and writer loop exactly
// once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// Touch records activity for idle-timeout tracking.
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

// IdleFor reports how long the session has gone without activity.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.LastActivity)
}

// SetPhase transitions the session to a new state.
func (s *Session) SetPhase(p Phase) {
	s.mu.Lock()
	s.Phase = p
	s.mu.Unlock()
}

// CurrentPhase returns the session's current state.
func (s *Session) CurrentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Phase
}

// RemoteAddr returns the underlying connection's remote address
// string, used for audit logging.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// SetIdentity binds a session to its authenticated player. Called
// exactly once, when auth_pass or register_pass succeeds.
func (s *Session) SetIdentity(playerID, username, locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PlayerID = playerID
	s.Username = username
	s.Locale = locale
}

// Identity returns the session's bound player id, username, and
// locale (all empty before authentication completes).
func (s *Session) Identity() (playerID, username, locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PlayerID, s.Username, s.Locale
}

// SetPendingUsername records the username entered at auth_user or
// register_user, read back at the following phase step.
func (s *Session) SetPendingUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PendingUsername = username
}

// BumpAuthFailure records one failed login attempt and returns the
// running count, so the auth state machine can return to the menu
// after three consecutive failures (spec.md §7).
func (s *Session) BumpAuthFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFailures++
	return s.authFailures
}

// ResetAuthFailures clears the consecutive-failure count, called after
// a successful login and when the state machine bounces back to the
// menu after the third failure.
func (s *Session) ResetAuthFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFailures = 0
}

// ExpandHistory applies "!!"/"!n" bang-history substitution to line
// against this session's recorded command history.
func (s *Session) ExpandHistory(line string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Expand(line)
}

// RecordHistory appends line to this session's command history.
func (s *Session) RecordHistory(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Add(line)
}
