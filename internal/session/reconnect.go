package session

import (
	"sync"
	"time"
)

// snapshot is the state preserved across a disconnect so a returning
// player can resume exactly where they left off.
type snapshot struct {
	playerID     string
	roomID       string
	disconnected time.Time
}

// Registry tracks disconnected players eligible for reconnection
// within ReconnectWindow, the way the teacher's session.Manager does,
// generalized to key on player id rather than name.
type Registry struct {
	mu    sync.Mutex
	byID  map[string]snapshot // player id -> snapshot
}

// NewRegistry creates an empty reconnect registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]snapshot)}
}

// Suspend records a disconnect for playerID so it can be resumed
// later, as long as the attempt falls inside ReconnectWindow.
func (r *Registry) Suspend(playerID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[playerID] = snapshot{playerID: playerID, roomID: roomID, disconnected: time.Now()}
}

// TryResume returns the last known room for playerID and true if a
// reconnect within the window is still available, consuming the
// suspended entry either way.
func (r *Registry) TryResume(playerID string) (roomID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, found := r.byID[playerID]
	if !found {
		return "", false
	}
	delete(r.byID, playerID)

	if time.Since(snap.disconnected) > ReconnectWindow {
		return "", false
	}
	return snap.roomID, true
}

// Sweep drops any suspended entries older than ReconnectWindow.
// Called periodically by the scheduler's idle-cleanup event.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, snap := range r.byID {
		if time.Since(snap.disconnected) > ReconnectWindow {
			delete(r.byID, id)
			removed++
		}
	}
	return removed
}
