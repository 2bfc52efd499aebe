package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
)

// SessionHistoryRecord is one connect/disconnect span for a player,
// kept for auditing. The reconnect window itself is tracked in memory
// by session.Registry, not read from this table.
type SessionHistoryRecord struct {
	ID                string
	PlayerID          string
	RemoteAddr        string
	ConnectedAt       time.Time
	DisconnectedAt    sql.NullTime
	DisconnectReason  string
}

// SessionHistoryRepository records session connect/disconnect events.
type SessionHistoryRepository struct {
	db *DB
}

func NewSessionHistoryRepository(db *DB) *SessionHistoryRepository {
	return &SessionHistoryRepository{db: db}
}

func (r *SessionHistoryRepository) RecordConnect(ctx context.Context, rec SessionHistoryRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions_history (id, player_id, remote_addr, connected_at, disconnected_at, disconnect_reason)
		VALUES (?, ?, ?, ?, NULL, '')
	`, rec.ID, rec.PlayerID, rec.RemoteAddr, rec.ConnectedAt)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "SessionHistoryRepository.RecordConnect", err)
	}
	return nil
}

func (r *SessionHistoryRepository) RecordDisconnect(ctx context.Context, id string, at time.Time, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions_history SET disconnected_at = ?, disconnect_reason = ? WHERE id = ?
	`, at, reason, id)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "SessionHistoryRepository.RecordDisconnect", err)
	}
	return checkAffected(res, "SessionHistoryRepository.RecordDisconnect")
}

// LastForPlayer returns the most recent session record for playerID.
func (r *SessionHistoryRepository) LastForPlayer(ctx context.Context, playerID string) (SessionHistoryRecord, error) {
	var rec SessionHistoryRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT id, player_id, remote_addr, connected_at, disconnected_at, disconnect_reason
		FROM sessions_history WHERE player_id = ? ORDER BY connected_at DESC LIMIT 1
	`, playerID).Scan(&rec.ID, &rec.PlayerID, &rec.RemoteAddr, &rec.ConnectedAt, &rec.DisconnectedAt, &rec.DisconnectReason)
	if err == sql.ErrNoRows {
		return SessionHistoryRecord{}, apperrors.New(apperrors.KindNotFound, "SessionHistoryRepository.LastForPlayer", apperrors.ErrNotFound)
	}
	if err != nil {
		return SessionHistoryRecord{}, apperrors.New(apperrors.KindStorage, "SessionHistoryRepository.LastForPlayer", err)
	}
	return rec, nil
}
