package store

import (
	"context"
	"database/sql"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// ObjectRepository handles game object persistence, including the
// denormalized room_id/owner_player_id location columns the world
// manager uses to hydrate its object-by-room and inventory indices.
type ObjectRepository struct {
	db *DB
}

func NewObjectRepository(db *DB) *ObjectRepository {
	return &ObjectRepository{db: db}
}

const objectColumns = `id, name_en, name_ko, description_en, description_ko, kind,
	weight, value, stackable, attributes, room_id, owner_player_id`

func (r *ObjectRepository) Create(ctx context.Context, obj model.GameObject, roomID, ownerID string) error {
	rec := obj.ToRecord()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO game_objects (
			id, name_en, name_ko, description_en, description_ko, kind,
			weight, value, stackable, attributes, room_id, owner_player_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.NameEn, rec.NameKo, rec.DescriptionEn, rec.DescriptionKo, rec.Kind,
		rec.Weight, rec.Value, boolToInt(rec.Stackable), encodeJSON(rec.Attributes), roomID, ownerID)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "ObjectRepository.Create", err)
	}
	return nil
}

func (r *ObjectRepository) scan(row *sql.Row) (model.GameObject, string, string, error) {
	var rec model.ObjectRecord
	var attrsJSON string
	var stackable int
	var roomID, ownerID string

	err := row.Scan(&rec.ID, &rec.NameEn, &rec.NameKo, &rec.DescriptionEn, &rec.DescriptionKo,
		&rec.Kind, &rec.Weight, &rec.Value, &stackable, &attrsJSON, &roomID, &ownerID)
	if err == sql.ErrNoRows {
		return model.GameObject{}, "", "", apperrors.New(apperrors.KindNotFound, "ObjectRepository.Get", apperrors.ErrNotFound)
	}
	if err != nil {
		return model.GameObject{}, "", "", apperrors.New(apperrors.KindStorage, "ObjectRepository.Get", err)
	}
	decodeJSON(attrsJSON, &rec.Attributes)
	rec.Stackable = stackable != 0
	return model.ObjectFromRecord(rec), roomID, ownerID, nil
}

// GetByID returns the object plus its current room id and owner
// player id (at most one of which is non-empty).
func (r *ObjectRepository) GetByID(ctx context.Context, id string) (model.GameObject, string, string, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+objectColumns+" FROM game_objects WHERE id = ?", id)
	return r.scan(row)
}

func (r *ObjectRepository) ListAll(ctx context.Context) ([]model.GameObject, []string, []string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+objectColumns+" FROM game_objects")
	if err != nil {
		return nil, nil, nil, apperrors.New(apperrors.KindStorage, "ObjectRepository.ListAll", err)
	}
	defer rows.Close()

	var objs []model.GameObject
	var rooms, owners []string
	for rows.Next() {
		var rec model.ObjectRecord
		var attrsJSON string
		var stackable int
		var roomID, ownerID string
		if err := rows.Scan(&rec.ID, &rec.NameEn, &rec.NameKo, &rec.DescriptionEn, &rec.DescriptionKo,
			&rec.Kind, &rec.Weight, &rec.Value, &stackable, &attrsJSON, &roomID, &ownerID); err != nil {
			return nil, nil, nil, apperrors.New(apperrors.KindStorage, "ObjectRepository.ListAll", err)
		}
		decodeJSON(attrsJSON, &rec.Attributes)
		rec.Stackable = stackable != 0
		objs = append(objs, model.ObjectFromRecord(rec))
		rooms = append(rooms, roomID)
		owners = append(owners, ownerID)
	}
	return objs, rooms, owners, rows.Err()
}

// UpdateLocation moves an object to roomID (ownerID empty) or to a
// player's inventory (roomID empty), matching the world manager's
// move_object operation.
func (r *ObjectRepository) UpdateLocation(ctx context.Context, id, roomID, ownerID string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE game_objects SET room_id = ?, owner_player_id = ? WHERE id = ?", roomID, ownerID, id)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "ObjectRepository.UpdateLocation", err)
	}
	return checkAffected(res, "ObjectRepository.UpdateLocation")
}

func (r *ObjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM game_objects WHERE id = ?", id)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "ObjectRepository.Delete", err)
	}
	return checkAffected(res, "ObjectRepository.Delete")
}

func (r *ObjectRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM game_objects").Scan(&n)
	if err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "ObjectRepository.Count", err)
	}
	return n, nil
}
