// Package events provides a synchronous pub/sub bus for Holdfast.
// Unlike a worker-pool bus, Publish dispatches to every matching
// handler inline on the publisher's goroutine, in subscription order,
// and a handler's panic or error is isolated so it cannot corrupt the
// caller's state or stop later handlers from running. This ordering
// guarantee matters because game logic (e.g. broadcasting a room
// departure before the arrival message) depends on FIFO delivery
// within a topic.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/holdfast-mud/holdfast/internal/applog"
)

// Type identifies an event's topic.
type Type string

const (
	TypePlayerJoin    Type = "player.join"
	TypePlayerLeave   Type = "player.leave"
	TypePlayerDeath   Type = "player.death"
	TypePlayerMove    Type = "player.move"
	TypePlayerChat    Type = "player.chat"
	TypeCombatStart   Type = "combat.start"
	TypeCombatEnd     Type = "combat.end"
	TypeCombatHit     Type = "combat.hit"
	TypeMonsterSpawn  Type = "monster.spawn"
	TypeMonsterDeath  Type = "monster.death"
	TypeItemPickup    Type = "item.pickup"
	TypeItemDrop      Type = "item.drop"
	TypeServerStart   Type = "server.start"
	TypeServerStop    Type = "server.stop"
	TypeAdminAction   Type = "admin.action"
)

// Event is one occurrence published to the bus.
type Event struct {
	ID        string
	Type      Type
	Timestamp time.Time
	RoomID    string
	PlayerID  string
	Data      map[string]interface{}
}

// New creates an Event of the given type with a fresh id and
// timestamp.
func New(t Type) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      make(map[string]interface{}),
	}
}

func (e *Event) WithRoom(roomID string) *Event     { e.RoomID = roomID; return e }
func (e *Event) WithPlayer(playerID string) *Event { e.PlayerID = playerID; return e }
func (e *Event) WithData(key string, value interface{}) *Event {
	e.Data[key] = value
	return e
}

// Handler processes one event. An error returned by a handler is
// logged but never propagated to the publisher or to other handlers.
type Handler func(*Event) error

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous, per-topic FIFO pub/sub bus.
type Bus struct {
	subs    map[Type][]subscription
	nextSub int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]subscription)}
}

// Subscribe registers handler for topic t, returning a subscription
// id usable with Unsubscribe. Handlers for the same topic run in
// subscription order.
func (b *Bus) Subscribe(t Type, handler Handler) string {
	b.nextSub++
	id := t.subID(b.nextSub)
	b.subs[t] = append(b.subs[t], subscription{id: id, handler: handler})
	return id
}

func (t Type) subID(n int) string {
	return string(t) + "#" + uuid.NewString()[:8] + "-" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// Unsubscribe removes a handler previously returned by Subscribe.
func (b *Bus) Unsubscribe(t Type, id string) {
	subs := b.subs[t]
	for i, s := range subs {
		if s.id == id {
			b.subs[t] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish dispatches event to every handler subscribed to its type,
// in subscription order, on the calling goroutine. A handler that
// panics or returns an error is logged and skipped; it never prevents
// later handlers in the same Publish call from running.
func (b *Bus) Publish(event *Event) {
	for _, s := range b.subs[event.Type] {
		b.dispatchOne(s, event)
	}
}

func (b *Bus) dispatchOne(s subscription, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			applog.Error().
				Str("event_type", string(event.Type)).
				Str("subscription", s.id).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()

	if err := s.handler(event); err != nil {
		applog.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("subscription", s.id).
			Msg("event handler returned error")
	}
}

// SubscriberCount returns the number of handlers registered across
// all topics.
func (b *Bus) SubscriberCount() int {
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}
