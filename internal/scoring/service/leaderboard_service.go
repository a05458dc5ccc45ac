package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/config"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/repository"
	"prediction-scoreboard/pkg/logger"

	gocache "github.com/patrickmn/go-cache"
)

const leaderboardCacheKey = "leaderboard:snapshot"

// LeaderboardService produces ranked snapshots from the stats store.
// It is a pure read projection: ranking is re-derived from whatever
// state is read and nothing is written back.
type LeaderboardService interface {
	// Snapshot returns the ordered ranking page. force bypasses the
	// staleness cache and recomputes from current stats.
	Snapshot(ctx context.Context, limit, offset int, force bool) (*dto.LeaderboardSnapshot, error)
	// RankInfo returns the user's rank in the current snapshot and the
	// delta versus the previous computation (positive = moved up).
	// ok is false when the user does not appear on the board yet.
	RankInfo(ctx context.Context, userID string) (rank, delta int, ok bool, err error)
}

// NewLeaderboardService creates a leaderboard aggregator with the
// configured staleness window.
func NewLeaderboardService(
	statsRepo repository.StatsRepository,
	userRepo repository.UserRepository,
	cfg *config.Config,
	log *logger.Logger,
) LeaderboardService {
	ttl := cfg.Leaderboard.StalenessTTL
	return &leaderboardService{
		statsRepo: statsRepo,
		userRepo:  userRepo,
		log:       log,
		cache:     gocache.New(ttl, 2*ttl),
		prevRanks: make(map[string]int),
	}
}

type leaderboardService struct {
	statsRepo repository.StatsRepository
	userRepo  repository.UserRepository
	log       *logger.Logger

	cache *gocache.Cache

	mu        sync.Mutex
	prevRanks map[string]int
}

type fullSnapshot struct {
	generatedAt time.Time
	entries     []dto.LeaderboardEntry
	rankOf      map[string]int
}

// Snapshot pages over the fully ordered sequence. An offset beyond the
// population returns an empty page, not an error.
func (s *leaderboardService) Snapshot(ctx context.Context, limit, offset int, force bool) (*dto.LeaderboardSnapshot, error) {
	snap, err := s.current(ctx, force)
	if err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = len(snap.entries)
	}

	entries := []dto.LeaderboardEntry{}
	if offset < len(snap.entries) {
		end := offset + limit
		if end > len(snap.entries) {
			end = len(snap.entries)
		}
		entries = append(entries, snap.entries[offset:end]...)
	}

	return &dto.LeaderboardSnapshot{
		GeneratedAt: snap.generatedAt,
		Total:       len(snap.entries),
		Entries:     entries,
	}, nil
}

func (s *leaderboardService) RankInfo(ctx context.Context, userID string) (rank, delta int, ok bool, err error) {
	snap, err := s.current(ctx, false)
	if err != nil {
		return 0, 0, false, err
	}
	rank, ok = snap.rankOf[userID]
	if !ok {
		return 0, 0, false, nil
	}
	s.mu.Lock()
	prev, hadPrev := s.prevRanks[userID]
	s.mu.Unlock()
	if hadPrev {
		delta = prev - rank
	}
	return rank, delta, true, nil
}

func (s *leaderboardService) current(ctx context.Context, force bool) (*fullSnapshot, error) {
	if !force {
		if cached, found := s.cache.Get(leaderboardCacheKey); found {
			return cached.(*fullSnapshot), nil
		}
	}

	snap, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	// Remember where everyone stood at the previous computation so the
	// dashboard can show movement. Best effort; empty after restart.
	s.mu.Lock()
	if cached, found := s.cache.Get(leaderboardCacheKey); found {
		s.prevRanks = cached.(*fullSnapshot).rankOf
	}
	s.mu.Unlock()

	s.cache.Set(leaderboardCacheKey, snap, gocache.DefaultExpiration)
	return snap, nil
}

func (s *leaderboardService) compute(ctx context.Context) (*fullSnapshot, error) {
	stats, err := s.statsRepo.ListUserStats(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(stats, func(i, j int) bool {
		return rankLess(&stats[i], &stats[j])
	})

	ids := make([]string, 0, len(stats))
	for _, row := range stats {
		ids = append(ids, row.UserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntry, 0, len(stats))
	rankOf := make(map[string]int, len(stats))
	for i, row := range stats {
		name := row.UserID
		if u, found := users[row.UserID]; found {
			name = u.Name
		}
		entries = append(entries, dto.LeaderboardEntry{
			Rank:            i + 1,
			UserID:          row.UserID,
			Name:            name,
			CumulativeScore: row.CumulativeScore,
			Accuracy:        row.Accuracy(),
			ResolvedCount:   row.ResolvedCount,
		})
		rankOf[row.UserID] = i + 1
	}

	return &fullSnapshot{
		generatedAt: time.Now(),
		entries:     entries,
		rankOf:      rankOf,
	}, nil
}

// rankLess is the strict total order over users: cumulative score desc,
// accuracy desc, resolved count desc (a more-validated track record
// wins at equal score and accuracy), user id asc. Users with nothing
// resolved sit last as a block ordered by id.
func rankLess(a, b *entity.UserStats) bool {
	aZero := a.ResolvedCount == 0
	bZero := b.ResolvedCount == 0
	if aZero != bZero {
		return bZero
	}
	if aZero {
		return a.UserID < b.UserID
	}
	if a.CumulativeScore != b.CumulativeScore {
		return a.CumulativeScore > b.CumulativeScore
	}
	if aAcc, bAcc := a.Accuracy(), b.Accuracy(); aAcc != bAcc {
		return aAcc > bAcc
	}
	if a.ResolvedCount != b.ResolvedCount {
		return a.ResolvedCount > b.ResolvedCount
	}
	return a.UserID < b.UserID
}
