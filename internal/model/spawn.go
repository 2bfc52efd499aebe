package model

import (
	"fmt"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
)

// SpawnPoint is the runtime counterpart to a room's SpawnRule: it
// tracks how many of a template are currently alive in a room against
// the rule's cap, and when the next respawn check is due. The world
// manager owns the only live SpawnPoint values; this type is their
// pure data shape.
type SpawnPoint struct {
	RoomID      string
	TemplateID  string
	Cap         int
	AliveIDs    []string // runtime monster ids currently alive from this point
	NextRespawn int64    // unix seconds; 0 means no respawn pending
}

// NewSpawnPoint builds a SpawnPoint from a room's static rule.
func NewSpawnPoint(roomID string, rule SpawnRule) SpawnPoint {
	return SpawnPoint{
		RoomID:     roomID,
		TemplateID: rule.TemplateID,
		Cap:        rule.Count,
		AliveIDs:   []string{},
	}
}

// Validate checks SpawnPoint's structural invariants.
func (sp SpawnPoint) Validate() error {
	if sp.RoomID == "" {
		return apperrors.New(apperrors.KindInput, "SpawnPoint.Validate", fmt.Errorf("spawn point missing room id"))
	}
	if sp.TemplateID == "" {
		return apperrors.New(apperrors.KindInput, "SpawnPoint.Validate", fmt.Errorf("spawn point %s: missing template id", sp.RoomID))
	}
	if sp.Cap < 0 {
		return apperrors.New(apperrors.KindInput, "SpawnPoint.Validate", fmt.Errorf("spawn point %s: negative cap", sp.RoomID))
	}
	if len(sp.AliveIDs) > sp.Cap {
		return apperrors.New(apperrors.KindInternal, "SpawnPoint.Validate",
			fmt.Errorf("spawn point %s: alive count %d exceeds cap %d", sp.RoomID, len(sp.AliveIDs), sp.Cap))
	}
	return nil
}

// HasCapacity reports whether the spawn point can support another
// monster instance without exceeding its cap.
func (sp SpawnPoint) HasCapacity() bool { return len(sp.AliveIDs) < sp.Cap }

// WithSpawned returns a copy of sp with runtimeID added to AliveIDs.
// The caller is responsible for checking HasCapacity first.
func (sp SpawnPoint) WithSpawned(runtimeID string) SpawnPoint {
	out := sp
	out.AliveIDs = append(append([]string(nil), sp.AliveIDs...), runtimeID)
	return out
}

// WithDespawned returns a copy of sp with runtimeID removed from
// AliveIDs, a no-op if runtimeID is not present.
func (sp SpawnPoint) WithDespawned(runtimeID string) SpawnPoint {
	out := sp
	ids := make([]string, 0, len(sp.AliveIDs))
	for _, id := range sp.AliveIDs {
		if id != runtimeID {
			ids = append(ids, id)
		}
	}
	out.AliveIDs = ids
	return out
}
