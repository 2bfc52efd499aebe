package store

import (
	"context"
	"database/sql"

	"github.com/holdfast-mud/holdfast/internal/apperrors"
	"github.com/holdfast-mud/holdfast/internal/model"
)

// MonsterTemplateRepository handles persistence of monster templates,
// the static definitions spawn rules instantiate. Live monster
// instances are runtime-only state owned by the world manager and are
// never persisted individually.
type MonsterTemplateRepository struct {
	db *DB
}

func NewMonsterTemplateRepository(db *DB) *MonsterTemplateRepository {
	return &MonsterTemplateRepository{db: db}
}

const monsterColumns = `id, name_en, name_ko, description_en, description_ko,
	stats, aggressive, monster_type, behavior, aggro_range, roaming_range,
	drop_table, gold_reward, experience_reward, respawn_time, ai_policy`

func (r *MonsterTemplateRepository) Create(ctx context.Context, tpl model.MonsterTemplate) error {
	rec := tpl.ToRecord()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monster_templates (
			id, name_en, name_ko, description_en, description_ko,
			stats, aggressive, monster_type, behavior, aggro_range, roaming_range,
			drop_table, gold_reward, experience_reward, respawn_time, ai_policy
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.NameEn, rec.NameKo, rec.DescriptionEn, rec.DescriptionKo,
		encodeJSON(rec.Stats), boolToInt(rec.Aggressive), rec.MonsterType, rec.Behavior,
		rec.AggroRange, rec.RoamingRange, encodeJSON(rec.DropTable), rec.GoldReward,
		rec.ExperienceReward, rec.RespawnTime, rec.AIPolicy)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "MonsterTemplateRepository.Create", err)
	}
	return nil
}

func (r *MonsterTemplateRepository) scan(row *sql.Row) (model.MonsterTemplate, error) {
	var rec model.MonsterTemplateRecord
	var statsJSON, dropJSON string
	var aggressive int

	err := row.Scan(&rec.ID, &rec.NameEn, &rec.NameKo, &rec.DescriptionEn, &rec.DescriptionKo, &statsJSON, &aggressive,
		&rec.MonsterType, &rec.Behavior, &rec.AggroRange, &rec.RoamingRange, &dropJSON,
		&rec.GoldReward, &rec.ExperienceReward, &rec.RespawnTime, &rec.AIPolicy)
	if err == sql.ErrNoRows {
		return model.MonsterTemplate{}, apperrors.New(apperrors.KindNotFound, "MonsterTemplateRepository.Get", apperrors.ErrNotFound)
	}
	if err != nil {
		return model.MonsterTemplate{}, apperrors.New(apperrors.KindStorage, "MonsterTemplateRepository.Get", err)
	}

	decodeJSON(statsJSON, &rec.Stats)
	decodeJSON(dropJSON, &rec.DropTable)
	rec.Aggressive = aggressive != 0
	return model.MonsterTemplateFromRecord(rec), nil
}

func (r *MonsterTemplateRepository) GetByID(ctx context.Context, id string) (model.MonsterTemplate, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+monsterColumns+" FROM monster_templates WHERE id = ?", id)
	return r.scan(row)
}

func (r *MonsterTemplateRepository) ListAll(ctx context.Context) ([]model.MonsterTemplate, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+monsterColumns+" FROM monster_templates")
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, "MonsterTemplateRepository.ListAll", err)
	}
	defer rows.Close()

	var out []model.MonsterTemplate
	for rows.Next() {
		var rec model.MonsterTemplateRecord
		var statsJSON, dropJSON string
		var aggressive int
		if err := rows.Scan(&rec.ID, &rec.NameEn, &rec.NameKo, &rec.DescriptionEn, &rec.DescriptionKo, &statsJSON, &aggressive,
			&rec.MonsterType, &rec.Behavior, &rec.AggroRange, &rec.RoamingRange, &dropJSON,
			&rec.GoldReward, &rec.ExperienceReward, &rec.RespawnTime, &rec.AIPolicy); err != nil {
			return nil, apperrors.New(apperrors.KindStorage, "MonsterTemplateRepository.ListAll", err)
		}
		decodeJSON(statsJSON, &rec.Stats)
		decodeJSON(dropJSON, &rec.DropTable)
		rec.Aggressive = aggressive != 0
		out = append(out, model.MonsterTemplateFromRecord(rec))
	}
	return out, rows.Err()
}

func (r *MonsterTemplateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM monster_templates WHERE id = ?", id)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "MonsterTemplateRepository.Delete", err)
	}
	return checkAffected(res, "MonsterTemplateRepository.Delete")
}
