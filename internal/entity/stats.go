package entity

import "time"

// UserStats is the running aggregate for one user. Counters only move
// through atomic increments issued by the scoring engine.
type UserStats struct {
	UserID           string    `gorm:"primaryKey" json:"user_id"`
	TotalPredictions int64     `gorm:"not null;default:0" json:"total_predictions"`
	ResolvedCount    int64     `gorm:"not null;default:0" json:"resolved_count"`
	CorrectCount     int64     `gorm:"not null;default:0" json:"correct_count"`
	CumulativeScore  float64   `gorm:"not null;default:0" json:"cumulative_score"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// Accuracy returns correct/resolved, or 0 when nothing has resolved.
func (s *UserStats) Accuracy() float64 {
	if s.ResolvedCount == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.ResolvedCount)
}

// ScriptStats is the running aggregate for one script.
type ScriptStats struct {
	ScriptID         int64     `gorm:"primaryKey" json:"script_id"`
	TotalPredictions int64     `gorm:"not null;default:0" json:"total_predictions"`
	ResolvedCount    int64     `gorm:"not null;default:0" json:"resolved_count"`
	CorrectCount     int64     `gorm:"not null;default:0" json:"correct_count"`
	CumulativeScore  float64   `gorm:"not null;default:0" json:"cumulative_score"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ScriptStats) TableName() string {
	return "script_stats"
}

// Accuracy returns correct/resolved, or 0 when nothing has resolved.
func (s *ScriptStats) Accuracy() float64 {
	if s.ResolvedCount == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.ResolvedCount)
}
