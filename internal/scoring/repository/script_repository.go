package repository

import (
	"context"
	"errors"

	"prediction-scoreboard/internal/entity"

	"gorm.io/gorm"
)

// ScriptRepository reads script metadata written by the upload service.
type ScriptRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.UserScript, error)
	CountByUser(ctx context.Context, userID string) (total, active int64, err error)
}

// NewScriptRepository creates a new GORM-based script repository.
func NewScriptRepository(db *gorm.DB) ScriptRepository {
	return &scriptRepository{db: db}
}

type scriptRepository struct {
	db *gorm.DB
}

func (r *scriptRepository) FindByID(ctx context.Context, id int64) (*entity.UserScript, error) {
	var script entity.UserScript
	if err := r.db.WithContext(ctx).First(&script, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrUnknownScript
		}
		return nil, err
	}
	return &script, nil
}

func (r *scriptRepository) CountByUser(ctx context.Context, userID string) (total, active int64, err error) {
	if err = r.db.WithContext(ctx).Model(&entity.UserScript{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.WithContext(ctx).Model(&entity.UserScript{}).
		Where("user_id = ? AND active = ?", userID, true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
