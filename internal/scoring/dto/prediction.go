package dto

import "time"

// RecordPredictionRequest is one raw prediction tuple supplied by the
// script-execution layer.
type RecordPredictionRequest struct {
	ScriptID   int64     `json:"script_id"`
	UserID     string    `json:"user_id"`
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	Confidence float64   `json:"confidence"`
	Deadline   time.Time `json:"deadline"`
}

// PredictionResponse is the API view of a ledger row.
type PredictionResponse struct {
	ID         int64      `json:"id"`
	ScriptID   int64      `json:"script_id"`
	UserID     string     `json:"user_id"`
	Symbol     string     `json:"symbol"`
	Direction  string     `json:"direction"`
	Confidence float64    `json:"confidence"`
	Deadline   time.Time  `json:"deadline"`
	Status     string     `json:"status"`
	Outcome    *string    `json:"outcome,omitempty"`
	Points     *float64   `json:"points,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ScoredAt   *time.Time `json:"scored_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ScoreResult is the effect one prediction had on the aggregates.
type ScoreResult struct {
	PredictionID int64   `json:"prediction_id"`
	Points       float64 `json:"points"`
	Correct      bool    `json:"correct"`
	// CountsTowardAccuracy is false for predictions settled without
	// market data; they score zero and stay out of the denominators.
	CountsTowardAccuracy bool `json:"counts_toward_accuracy"`
	// AlreadyScored is true when an earlier call applied this result
	// and this invocation returned the stored values.
	AlreadyScored bool `json:"already_scored"`
}

// StreamDataResolution is the payload published to the resolution
// stream for each due prediction.
type StreamDataResolution struct {
	PredictionID int64 `json:"prediction_id"`
}
