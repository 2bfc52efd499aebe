package model

import (
	"fmt"
	"time"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
)

// Player is a persistent player character. PasswordHash is bcrypt
// output, never a plaintext password; callers authenticate through
// the engine's bcrypt checkPassword rather than comparing this field
// directly.
type Player struct {
	ID           string
	Username     string
	PasswordHash string
	RoomID       string
	Stats        StatBlock
	Inventory    []string // object ids
	Gold         int
	Experience   int
	Locale       string
	IsAdmin      bool
	Following    string // player id being followed, "" if none
	CreatedAt    time.Time
	LastSeenAt   time.Time
}

const (
	minUsernameLen = 3
	maxUsernameLen = 20
)

// NewPlayer constructs a fresh Player with default stats for a
// starting character, placed in startRoom.
func NewPlayer(id, username, passwordHash, startRoom string) Player {
	stats := NewStatBlock(10, 10, 10, 10, 10, 10, 1)
	now := time.Now()
	return Player{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		RoomID:       startRoom,
		Stats:        stats,
		Inventory:    []string{},
		Gold:         0,
		Locale:       "en",
		CreatedAt:    now,
		LastSeenAt:   now,
	}
}

// Validate checks Player's structural invariants.
func (p Player) Validate() error {
	if len(p.Username) < minUsernameLen || len(p.Username) > maxUsernameLen {
		return apperrors.New(apperrors.KindInput, "Player.Validate",
			fmt.Errorf("username length %d out of range [%d,%d]", len(p.Username), minUsernameLen, maxUsernameLen))
	}
	if p.PasswordHash == "" {
		return apperrors.New(apperrors.KindInput, "Player.Validate", fmt.Errorf("player %s: missing password hash", p.Username))
	}
	if p.RoomID == "" {
		return apperrors.New(apperrors.KindInput, "Player.Validate", fmt.Errorf("player %s: missing room", p.Username))
	}
	if err := p.Stats.Validate(); err != nil {
		return apperrors.New(apperrors.KindInput, "Player.Validate", fmt.Errorf("player %s: %w", p.Username, err))
	}
	if p.Gold < 0 {
		return apperrors.New(apperrors.KindInput, "Player.Validate", fmt.Errorf("player %s: negative gold", p.Username))
	}
	return nil
}

// CarryWeight returns the sum weight of the player's inventory given a
// lookup function from object id to weight. It's a pure computation
// over the typed inventory list, never a raw field read.
func (p Player) CarryWeight(weightOf func(objectID string) int) int {
	total := 0
	for _, id := range p.Inventory {
		total += weightOf(id)
	}
	return total
}

// IsAlive reports whether the player has hit points remaining.
func (p Player) IsAlive() bool { return p.Stats.HP > 0 }

// PlayerRecord is Player's flat storage shape. Inventory is stored as
// a JSON array column by the repository layer.
type PlayerRecord struct {
	ID           string
	Username     string
	PasswordHash string
	RoomID       string
	Stats        StatBlock
	Inventory    []string
	Gold         int
	Experience   int
	Locale       string
	IsAdmin      bool
	Following    string
	CreatedAt    time.Time
	LastSeenAt   time.Time
}

// ToRecord normalizes p to its storage representation.
func (p Player) ToRecord() PlayerRecord {
	return PlayerRecord{
		ID:           p.ID,
		Username:     p.Username,
		PasswordHash: p.PasswordHash,
		RoomID:       p.RoomID,
		Stats:        p.Stats,
		Inventory:    append([]string(nil), p.Inventory...),
		Gold:         p.Gold,
		Experience:   p.Experience,
		Locale:       p.Locale,
		IsAdmin:      p.IsAdmin,
		Following:    p.Following,
		CreatedAt:    p.CreatedAt,
		LastSeenAt:   p.LastSeenAt,
	}
}

// PlayerFromRecord is the left inverse of ToRecord.
func PlayerFromRecord(rec PlayerRecord) Player {
	return Player{
		ID:           rec.ID,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		RoomID:       rec.RoomID,
		Stats:        rec.Stats,
		Inventory:    append([]string(nil), rec.Inventory...),
		Gold:         rec.Gold,
		Experience:   rec.Experience,
		Locale:       rec.Locale,
		IsAdmin:      rec.IsAdmin,
		Following:    rec.Following,
		CreatedAt:    rec.CreatedAt,
		LastSeenAt:   rec.LastSeenAt,
	}
}
