package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// RoomRepository handles room persistence.
type RoomRepository struct {
	db *DB
}

func NewRoomRepository(db *DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room model.Room) error {
	rec := room.ToRecord()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rooms (id, name_en, name_ko, description_en, description_ko, exits, spawn_points)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.NameEn, rec.NameKo, rec.DescriptionEn, rec.DescriptionKo,
		encodeJSON(rec.Exits), encodeJSON(rec.SpawnPoints))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			return apperrors.New(apperrors.KindConflict, "RoomRepository.Create", apperrors.ErrConflict)
		}
		return apperrors.New(apperrors.KindStorage, "RoomRepository.Create", err)
	}
	return nil
}

const roomColumns = `id, name_en, name_ko, description_en, description_ko, exits, spawn_points`

func (r *RoomRepository) GetByID(ctx context.Context, id string) (model.Room, error) {
	var rec model.RoomRecord
	var exitsJSON, spawnJSON string

	err := r.db.QueryRowContext(ctx, "SELECT "+roomColumns+" FROM rooms WHERE id = ?", id).Scan(
		&rec.ID, &rec.NameEn, &rec.NameKo, &rec.DescriptionEn, &rec.DescriptionKo, &exitsJSON, &spawnJSON,
	)
	if err == sql.ErrNoRows {
		return model.Room{}, apperrors.New(apperrors.KindNotFound, "RoomRepository.Get", apperrors.ErrNoSuchRoom)
	}
	if err != nil {
		return model.Room{}, apperrors.New(apperrors.KindStorage, "RoomRepository.Get", err)
	}
	decodeJSON(exitsJSON, &rec.Exits)
	decodeJSON(spawnJSON, &rec.SpawnPoints)
	return model.RoomFromRecord(rec), nil
}

// ListAll returns every room, used to hydrate the world manager at
// startup.
func (r *RoomRepository) ListAll(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+roomColumns+" FROM rooms")
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, "RoomRepository.ListAll", err)
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		var rec model.RoomRecord
		var exitsJSON, spawnJSON string
		if err := rows.Scan(&rec.ID, &rec.NameEn, &rec.NameKo, &rec.DescriptionEn, &rec.DescriptionKo, &exitsJSON, &spawnJSON); err != nil {
			return nil, apperrors.New(apperrors.KindStorage, "RoomRepository.ListAll", err)
		}
		decodeJSON(exitsJSON, &rec.Exits)
		decodeJSON(spawnJSON, &rec.SpawnPoints)
		out = append(out, model.RoomFromRecord(rec))
	}
	return out, rows.Err()
}

func (r *RoomRepository) Update(ctx context.Context, room model.Room) error {
	rec := room.ToRecord()
	res, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET name_en = ?, name_ko = ?, description_en = ?, description_ko = ?,
			exits = ?, spawn_points = ?
		WHERE id = ?
	`, rec.NameEn, rec.NameKo, rec.DescriptionEn, rec.DescriptionKo,
		encodeJSON(rec.Exits), encodeJSON(rec.SpawnPoints), rec.ID)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "RoomRepository.Update", err)
	}
	return checkAffected(res, "RoomRepository.Update")
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "RoomRepository.Delete", err)
	}
	return checkAffected(res, "RoomRepository.Delete")
}

func (r *RoomRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms").Scan(&n)
	if err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "RoomRepository.Count", err)
	}
	return n, nil
}
