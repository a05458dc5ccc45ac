package dto

import "prediction-scoreboard/internal/entity"

// OutcomeStatus is the tri-state result of an outcome resolution.
// NotYetAvailable and DataUnavailable are routine results, not errors:
// callers branch on them.
type OutcomeStatus string

const (
	// OutcomeOK means the realized direction was computed.
	OutcomeOK OutcomeStatus = "ok"
	// OutcomeNotYetAvailable means the window end is still in the
	// future or inside the settlement lag; retry on a later sweep.
	OutcomeNotYetAvailable OutcomeStatus = "not_yet_available"
	// OutcomeDataUnavailable means no market data exists for the
	// symbol/window; the prediction is settled without an outcome.
	OutcomeDataUnavailable OutcomeStatus = "data_unavailable"
)

// OutcomeResult is the realized market movement for one window.
type OutcomeResult struct {
	Status     OutcomeStatus    `json:"status"`
	Direction  entity.Direction `json:"direction,omitempty"`
	StartPrice float64          `json:"start_price,omitempty"`
	EndPrice   float64          `json:"end_price,omitempty"`
	PriceDelta float64          `json:"price_delta,omitempty"`
}
