package dto

// DashboardSummary is the per-user dashboard view.
type DashboardSummary struct {
	UserID           string               `json:"user_id"`
	TotalPredictions int64                `json:"total_predictions"`
	ResolvedCount    int64                `json:"resolved_count"`
	Accuracy         float64              `json:"accuracy"`
	CumulativeScore  float64              `json:"cumulative_score"`
	TotalScripts     int64                `json:"total_scripts"`
	ActiveScripts    int64                `json:"active_scripts"`
	Rank             int                  `json:"rank,omitempty"`
	RankDelta        int                  `json:"rank_delta"`
	Recent           []PredictionResponse `json:"recent_predictions"`
}
