package repository

import (
	"context"
	"errors"

	"prediction-scoreboard/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatsRepository reads and lazily creates the running aggregates. All
// counter mutations go through the prediction ledger's transactions;
// this repository never rewrites counters wholesale.
type StatsRepository interface {
	FindUserStats(ctx context.Context, userID string) (*entity.UserStats, error)
	FindScriptStats(ctx context.Context, scriptID int64) (*entity.ScriptStats, error)
	ListUserStats(ctx context.Context) ([]entity.UserStats, error)
	EnsureUserStats(ctx context.Context, userID string) error
	EnsureScriptStats(ctx context.Context, scriptID int64) error
}

// NewStatsRepository creates a new GORM-based stats repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

type statsRepository struct {
	db *gorm.DB
}

// FindUserStats retrieves the stats row for one user.
func (r *statsRepository) FindUserStats(ctx context.Context, userID string) (*entity.UserStats, error) {
	var stats entity.UserStats
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrUnknownUser
		}
		return nil, err
	}
	return &stats, nil
}

// FindScriptStats retrieves the stats row for one script.
func (r *statsRepository) FindScriptStats(ctx context.Context, scriptID int64) (*entity.ScriptStats, error) {
	var stats entity.ScriptStats
	if err := r.db.WithContext(ctx).Where("script_id = ?", scriptID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrUnknownScript
		}
		return nil, err
	}
	return &stats, nil
}

// ListUserStats returns every user stats row. The leaderboard tolerates
// a mix of pre- and post-update rows, so no snapshot isolation is
// requested here.
func (r *statsRepository) ListUserStats(ctx context.Context) ([]entity.UserStats, error) {
	var stats []entity.UserStats
	if err := r.db.WithContext(ctx).Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// EnsureUserStats creates the all-zero stats row if it does not exist.
func (r *statsRepository) EnsureUserStats(ctx context.Context, userID string) error {
	return ensureUserStats(r.db.WithContext(ctx), userID)
}

// EnsureScriptStats creates the all-zero stats row if it does not exist.
func (r *statsRepository) EnsureScriptStats(ctx context.Context, scriptID int64) error {
	return ensureScriptStats(r.db.WithContext(ctx), scriptID)
}

func ensureUserStats(tx *gorm.DB, userID string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.UserStats{UserID: userID}).Error
}

func ensureScriptStats(tx *gorm.DB, scriptID int64) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.ScriptStats{ScriptID: scriptID}).Error
}
