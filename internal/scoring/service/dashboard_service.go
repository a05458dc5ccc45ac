package service

import (
	"context"

	"prediction-scoreboard/internal/scoring/config"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/repository"
	"prediction-scoreboard/pkg/logger"
)

// DashboardService composes ledger and stats state into per-user
// summary views. Read-only; it owns no state of its own.
type DashboardService interface {
	Summarize(ctx context.Context, userID string) (*dto.DashboardSummary, error)
}

// NewDashboardService creates a new dashboard summarizer.
func NewDashboardService(
	statsRepo repository.StatsRepository,
	predictionRepo repository.PredictionRepository,
	scriptRepo repository.ScriptRepository,
	leaderboard LeaderboardService,
	cfg *config.Config,
	log *logger.Logger,
) DashboardService {
	return &dashboardService{
		statsRepo:      statsRepo,
		predictionRepo: predictionRepo,
		scriptRepo:     scriptRepo,
		leaderboard:    leaderboard,
		recentCount:    cfg.Dashboard.RecentPredictions,
		log:            log,
	}
}

type dashboardService struct {
	statsRepo      repository.StatsRepository
	predictionRepo repository.PredictionRepository
	scriptRepo     repository.ScriptRepository
	leaderboard    LeaderboardService
	recentCount    int
	log            *logger.Logger
}

// Summarize returns the user's aggregates and recent predictions. A
// missing stats row is an integrity error (ErrUnknownUser); a user with
// zero predictions legitimately gets all-zero counters.
func (s *dashboardService) Summarize(ctx context.Context, userID string) (*dto.DashboardSummary, error) {
	stats, err := s.statsRepo.FindUserStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.predictionRepo.ListRecentByUser(ctx, userID, s.recentCount)
	if err != nil {
		return nil, err
	}

	totalScripts, activeScripts, err := s.scriptRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &dto.DashboardSummary{
		UserID:           userID,
		TotalPredictions: stats.TotalPredictions,
		ResolvedCount:    stats.ResolvedCount,
		Accuracy:         stats.Accuracy(),
		CumulativeScore:  stats.CumulativeScore,
		TotalScripts:     totalScripts,
		ActiveScripts:    activeScripts,
		Recent:           make([]dto.PredictionResponse, 0, len(recent)),
	}
	for i := range recent {
		summary.Recent = append(summary.Recent, *mapPredictionResponse(&recent[i]))
	}

	// Rank movement is best effort; the summary is still valid when
	// the leaderboard cannot be computed.
	if rank, delta, ok, err := s.leaderboard.RankInfo(ctx, userID); err != nil {
		s.log.Warn("Failed to get rank info", logger.ErrorField(err), logger.StringField("user_id", userID))
	} else if ok {
		summary.Rank = rank
		summary.RankDelta = delta
	}

	return summary, nil
}
