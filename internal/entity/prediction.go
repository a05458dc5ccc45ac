package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// Direction is a predicted or realized market movement.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown || d == DirectionFlat
}

// PredictionStatus is the lifecycle state of a prediction. Transitions
// only move forward: pending -> resolved -> scored.
type PredictionStatus string

const (
	StatusPending  PredictionStatus = "pending"
	StatusResolved PredictionStatus = "resolved"
	StatusScored   PredictionStatus = "scored"
)

// Prediction is one forecast emitted by one script. Rows are never
// deleted; only outcome and scoring fields are appended once each.
type Prediction struct {
	ID          int64            `gorm:"primaryKey" json:"id"`
	ScriptID    int64            `gorm:"not null;index" json:"script_id"`
	UserID      string           `gorm:"not null;index" json:"user_id"`
	Symbol      string           `gorm:"not null" json:"symbol"`
	Direction   Direction        `gorm:"not null" json:"direction"`
	Confidence  float64          `gorm:"not null" json:"confidence"`
	Deadline    time.Time        `gorm:"not null;index" json:"deadline"`
	Status      PredictionStatus `gorm:"not null;default:pending;index" json:"status"`
	Outcome     sql.NullString   `json:"outcome"`
	OutcomeData datatypes.JSON   `gorm:"type:jsonb" json:"outcome_data"`
	Points      sql.NullFloat64  `json:"points"`
	ResolvedAt  sql.NullTime     `json:"resolved_at"`
	ScoredAt    sql.NullTime     `json:"scored_at"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}

// OutcomeDirection returns the realized direction, or false when the
// prediction was resolved with no available market data.
func (p *Prediction) OutcomeDirection() (Direction, bool) {
	if !p.Outcome.Valid {
		return "", false
	}
	return Direction(p.Outcome.String), true
}
