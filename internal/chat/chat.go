// Package chat implements the global/trade/help broadcast channels
// and the gossip supplement that spec.md's room-scoped say/emote
// don't cover. Grounded on the teacher's pkg/chat/chat.go: per-channel
// membership and scrollback under a channel-local mutex, rate-limited
// per sender. There is no mute or ignore state. The profanity filter and faction/party
// channels are dropped: Holdfast has no faction system to key a
// faction channel on, and spec.md's Non-goals exclude the moderation
// surface a profanity filter would serve.
package chat

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/holdfast-mud/holdfast/internal/ratelimit"
)

// Channel names. Every authenticated player auto-joins Global and
// Help on login; Trade is opt-in.
const (
	Global = "global"
	Trade  = "trade"
	Help   = "help"
)

const (
	messageHistorySize = 100
	rateLimitMessages  = 5
	rateLimitWindow    = 10 * time.Second
)

// Message is one delivered chat line, retained for a channel's
// scrollback.
type Message struct {
	Channel   string
	Sender    string
	Content   string
	Timestamp time.Time
}

type channel struct {
	mu      sync.RWMutex
	members map[string]bool
	history []Message
}

// Manager tracks channel membership and recent history for every
// player connected to the server. A single Manager is shared by every
// session through the engine.
type Manager struct {
	mu       sync.RWMutex
	channels map[string]*channel
	limiter  *ratelimit.Limiter
}

// NewManager creates a Manager with the three standing channels
// already present (empty of members until players join).
func NewManager() *Manager {
	m := &Manager{
		channels: make(map[string]*channel),
		limiter:  ratelimit.New(rateLimitMessages, rateLimitWindow),
	}
	for _, id := range []string{Global, Trade, Help} {
		m.channels[id] = &channel{members: make(map[string]bool)}
	}
	return m
}

// Join adds playerName to channelID. Joining a channel the player is
// already in is a no-op, not an error, so auto-join-on-login can call
// it unconditionally.
func (m *Manager) Join(playerName, channelID string) error {
	ch, ok := m.channel(channelID)
	if !ok {
		return fmt.Errorf("chat: unknown channel %q", channelID)
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.members[strings.ToLower(playerName)] = true
	return nil
}

// Leave removes playerName from channelID.
func (m *Manager) Leave(playerName, channelID string) error {
	ch, ok := m.channel(channelID)
	if !ok {
		return fmt.Errorf("chat: unknown channel %q", channelID)
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.members, strings.ToLower(playerName))
	return nil
}

// AutoJoinDefaults joins a freshly authenticated player to Global and
// Help.
func (m *Manager) AutoJoinDefaults(playerName string) {
	m.Join(playerName, Global)
	m.Join(playerName, Help)
}

// IsMember reports whether playerName currently belongs to channelID.
func (m *Manager) IsMember(playerName, channelID string) bool {
	ch, ok := m.channel(channelID)
	if !ok {
		return false
	}
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.members[strings.ToLower(playerName)]
}

// Send posts content to channelID on behalf of playerName and returns
// every other member who should receive it, oldest-joined order not
// guaranteed. The sender must already be a member and under the rate
// limit; otherwise Send returns an error describing why and delivers
// nothing.
func (m *Manager) Send(playerName, channelID, content string) ([]string, error) {
	ch, ok := m.channel(channelID)
	if !ok {
		return nil, fmt.Errorf("chat: unknown channel %q", channelID)
	}
	name := strings.ToLower(playerName)

	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.members[name] {
		return nil, fmt.Errorf("chat: you are not in channel %q", channelID)
	}
	if !m.limiter.Allow(name) {
		return nil, fmt.Errorf("chat: slow down, you are sending messages too quickly")
	}

	msg := Message{Channel: channelID, Sender: playerName, Content: content, Timestamp: time.Now()}
	ch.history = append(ch.history, msg)
	if len(ch.history) > messageHistorySize {
		ch.history = ch.history[len(ch.history)-messageHistorySize:]
	}

	recipients := make([]string, 0, len(ch.members))
	for member := range ch.members {
		if member != name {
			recipients = append(recipients, member)
		}
	}
	return recipients, nil
}

// History returns the last n messages on channelID, oldest first.
func (m *Manager) History(channelID string, n int) []Message {
	ch, ok := m.channel(channelID)
	if !ok {
		return nil
	}
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	if n > len(ch.history) {
		n = len(ch.history)
	}
	out := make([]Message, n)
	copy(out, ch.history[len(ch.history)-n:])
	return out
}

// CleanupRateLimiter drops expired rate-limit entries so the
// limiter's per-sender map doesn't grow unbounded across a
// long-running server's lifetime. Called periodically by the
// scheduler's idle-cleanup event.
func (m *Manager) CleanupRateLimiter() int {
	return m.limiter.CleanupOldEntries()
}

func (m *Manager) channel(channelID string) (*channel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.channels[channelID]
	return ch, ok
}

// FormatMessage renders msg the way a session's outbound writer
// emits a chat_message payload's human-readable line.
func FormatMessage(msg Message) string {
	return fmt.Sprintf("[%s] %s: %s", msg.Channel, msg.Sender, msg.Content)
}
