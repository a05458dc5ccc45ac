package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/dto"

	"gorm.io/gorm"
)

// PredictionRepository is the prediction ledger: an append-only record
// of every forecast, owning prediction identity and lifecycle.
type PredictionRepository interface {
	Create(ctx context.Context, p *entity.Prediction) error
	FindByID(ctx context.Context, id int64) (*entity.Prediction, error)
	// ListDuePending returns pending predictions whose deadline has
	// passed. Each call re-queries current state; it is not a cursor.
	ListDuePending(ctx context.Context, before time.Time, limit int) ([]entity.Prediction, error)
	// MarkResolved transitions pending -> resolved. A nil outcome
	// records the data-unavailable case (outcome stays NULL).
	MarkResolved(ctx context.Context, id int64, outcome *dto.OutcomeResult) error
	// ApplyScore transitions resolved -> scored and increments the
	// owning user's and script's aggregates in one transaction. It
	// returns false without error when the prediction was not in the
	// resolved state, which callers treat as a lost apply-once race.
	ApplyScore(ctx context.Context, p *entity.Prediction, points float64, correct, countsToward bool) (bool, error)
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]entity.Prediction, error)
}

// NewPredictionRepository creates a new GORM-based prediction ledger.
func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

type predictionRepository struct {
	db *gorm.DB
}

// Create inserts the prediction and bumps the owning user's and
// script's total counters in one transaction, creating the stats rows
// on first use.
func (r *predictionRepository) Create(ctx context.Context, p *entity.Prediction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if err := ensureUserStats(tx, p.UserID); err != nil {
			return err
		}
		if err := ensureScriptStats(tx, p.ScriptID); err != nil {
			return err
		}
		if err := tx.Model(&entity.UserStats{}).
			Where("user_id = ?", p.UserID).
			UpdateColumn("total_predictions", gorm.Expr("total_predictions + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&entity.ScriptStats{}).
			Where("script_id = ?", p.ScriptID).
			UpdateColumn("total_predictions", gorm.Expr("total_predictions + 1")).Error
	})
}

// FindByID retrieves a prediction by its ID.
func (r *predictionRepository) FindByID(ctx context.Context, id int64) (*entity.Prediction, error) {
	var p entity.Prediction
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrPredictionNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListDuePending returns pending predictions due before the given time,
// oldest deadline first.
func (r *predictionRepository) ListDuePending(ctx context.Context, before time.Time, limit int) ([]entity.Prediction, error) {
	var predictions []entity.Prediction
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", entity.StatusPending, before).
		Order("deadline ASC").
		Limit(limit).
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

// MarkResolved transitions a pending prediction to resolved. The update
// is conditional on the current status so concurrent sweep workers
// racing on the same id produce one effective transition.
func (r *predictionRepository) MarkResolved(ctx context.Context, id int64, outcome *dto.OutcomeResult) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      entity.StatusResolved,
		"resolved_at": sql.NullTime{Time: now, Valid: true},
		"updated_at":  now,
	}
	if outcome != nil {
		updates["outcome"] = sql.NullString{String: string(outcome.Direction), Valid: true}
		if data, err := json.Marshal(outcome); err == nil {
			updates["outcome_data"] = data
		}
	}

	res := r.db.WithContext(ctx).Model(&entity.Prediction{}).
		Where("id = ? AND status = ?", id, entity.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&entity.Prediction{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return entity.ErrPredictionNotFound
		}
		return fmt.Errorf("prediction %d: %w", id, entity.ErrInvalidTransition)
	}
	return nil
}

// ApplyScore is the apply-once critical section: the status transition
// and both stats increments are visible together or not at all.
func (r *predictionRepository) ApplyScore(ctx context.Context, p *entity.Prediction, points float64, correct, countsToward bool) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&entity.Prediction{}).
			Where("id = ? AND status = ?", p.ID, entity.StatusResolved).
			Updates(map[string]interface{}{
				"status":     entity.StatusScored,
				"points":     sql.NullFloat64{Float64: points, Valid: true},
				"scored_at":  sql.NullTime{Time: now, Valid: true},
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race or caller skipped a transition; the
			// service re-reads and decides which.
			return nil
		}
		applied = true

		if !countsToward {
			return nil
		}

		correctInc := 0
		if correct {
			correctInc = 1
		}
		if err := tx.Model(&entity.UserStats{}).
			Where("user_id = ?", p.UserID).
			UpdateColumns(map[string]interface{}{
				"resolved_count":   gorm.Expr("resolved_count + 1"),
				"correct_count":    gorm.Expr("correct_count + ?", correctInc),
				"cumulative_score": gorm.Expr("cumulative_score + ?", points),
				"updated_at":       now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&entity.ScriptStats{}).
			Where("script_id = ?", p.ScriptID).
			UpdateColumns(map[string]interface{}{
				"resolved_count":   gorm.Expr("resolved_count + 1"),
				"correct_count":    gorm.Expr("correct_count + ?", correctInc),
				"cumulative_score": gorm.Expr("cumulative_score + ?", points),
				"updated_at":       now,
			}).Error
	})
	return applied, err
}

// ListRecentByUser returns the user's most recent predictions,
// most-recent-first.
func (r *predictionRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]entity.Prediction, error) {
	var predictions []entity.Prediction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}
