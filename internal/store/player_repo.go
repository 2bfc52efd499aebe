package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// PlayerRepository handles player persistence.
type PlayerRepository struct {
	db *DB
}

func NewPlayerRepository(db *DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Create(ctx context.Context, p model.Player) error {
	rec := p.ToRecord()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (
			id, username, password_hash, room_id, stats, inventory, gold, experience,
			locale, is_admin, following, created_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.Username, rec.PasswordHash, rec.RoomID, encodeJSON(rec.Stats),
		encodeJSON(rec.Inventory), rec.Gold, rec.Experience, rec.Locale, boolToInt(rec.IsAdmin),
		rec.Following, rec.CreatedAt, rec.LastSeenAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			return apperrors.New(apperrors.KindConflict, "PlayerRepository.Create", apperrors.ErrConflict)
		}
		return apperrors.New(apperrors.KindStorage, "PlayerRepository.Create", err)
	}
	return nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id string) (model.Player, error) {
	return r.scanOne(ctx, "SELECT "+playerColumns+" FROM players WHERE id = ?", id)
}

func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (model.Player, error) {
	return r.scanOne(ctx, "SELECT "+playerColumns+" FROM players WHERE lower(username) = lower(?)", username)
}

const playerColumns = `id, username, password_hash, room_id, stats, inventory, gold, experience,
	locale, is_admin, following, created_at, last_seen_at`

func (r *PlayerRepository) scanOne(ctx context.Context, query string, arg interface{}) (model.Player, error) {
	var rec model.PlayerRecord
	var statsJSON, inventoryJSON string
	var isAdmin int

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&rec.ID, &rec.Username, &rec.PasswordHash, &rec.RoomID, &statsJSON,
		&inventoryJSON, &rec.Gold, &rec.Experience, &rec.Locale, &isAdmin, &rec.Following,
		&rec.CreatedAt, &rec.LastSeenAt,
	)
	if err == sql.ErrNoRows {
		return model.Player{}, apperrors.New(apperrors.KindNotFound, "PlayerRepository.Get", apperrors.ErrNotFound)
	}
	if err != nil {
		return model.Player{}, apperrors.New(apperrors.KindStorage, "PlayerRepository.Get", err)
	}

	if err := decodeJSON(statsJSON, &rec.Stats); err != nil {
		return model.Player{}, apperrors.New(apperrors.KindStorage, "PlayerRepository.Get", err)
	}
	if err := decodeJSON(inventoryJSON, &rec.Inventory); err != nil {
		return model.Player{}, apperrors.New(apperrors.KindStorage, "PlayerRepository.Get", err)
	}
	rec.IsAdmin = isAdmin != 0

	return model.PlayerFromRecord(rec), nil
}

// ListByRoom returns all players currently located in roomID.
func (r *PlayerRepository) ListByRoom(ctx context.Context, roomID string) ([]model.Player, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+playerColumns+" FROM players WHERE room_id = ?", roomID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, "PlayerRepository.ListByRoom", err)
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var rec model.PlayerRecord
		var statsJSON, inventoryJSON string
		var isAdmin int
		if err := rows.Scan(
			&rec.ID, &rec.Username, &rec.PasswordHash, &rec.RoomID, &statsJSON,
			&inventoryJSON, &rec.Gold, &rec.Experience, &rec.Locale, &isAdmin, &rec.Following,
			&rec.CreatedAt, &rec.LastSeenAt,
		); err != nil {
			return nil, apperrors.New(apperrors.KindStorage, "PlayerRepository.ListByRoom", err)
		}
		decodeJSON(statsJSON, &rec.Stats)
		decodeJSON(inventoryJSON, &rec.Inventory)
		rec.IsAdmin = isAdmin != 0
		out = append(out, model.PlayerFromRecord(rec))
	}
	return out, rows.Err()
}

func (r *PlayerRepository) Update(ctx context.Context, p model.Player) error {
	rec := p.ToRecord()
	res, err := r.db.ExecContext(ctx, `
		UPDATE players SET
			password_hash = ?, room_id = ?, stats = ?, inventory = ?, gold = ?, experience = ?,
			locale = ?, is_admin = ?, following = ?, last_seen_at = ?
		WHERE id = ?
	`,
		rec.PasswordHash, rec.RoomID, encodeJSON(rec.Stats), encodeJSON(rec.Inventory),
		rec.Gold, rec.Experience, rec.Locale, boolToInt(rec.IsAdmin), rec.Following, rec.LastSeenAt, rec.ID,
	)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "PlayerRepository.Update", err)
	}
	return checkAffected(res, "PlayerRepository.Update")
}

func (r *PlayerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM players WHERE id = ?", id)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "PlayerRepository.Delete", err)
	}
	return checkAffected(res, "PlayerRepository.Delete")
}

func (r *PlayerRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM players").Scan(&n)
	if err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "PlayerRepository.Count", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.New(apperrors.KindStorage, op, err)
	}
	if n == 0 {
		return apperrors.New(apperrors.KindNotFound, op, apperrors.ErrNotFound)
	}
	return nil
}
