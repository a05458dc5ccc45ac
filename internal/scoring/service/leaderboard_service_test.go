package service

import (
	"context"
	"testing"
	"time"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaderboard(store *fakeStore, ttl time.Duration) LeaderboardService {
	cfg := testConfig()
	if ttl > 0 {
		cfg.Leaderboard = config.Leaderboard{StalenessTTL: ttl}
	}
	return NewLeaderboardService(store, store.userRepo(), cfg, testLogger())
}

func seedStats(store *fakeStore, userID string, resolved, correct int64, score float64) {
	store.addUser(userID, "User "+userID)
	store.mu.Lock()
	defer store.mu.Unlock()
	store.userStats[userID] = &entity.UserStats{
		UserID:           userID,
		TotalPredictions: resolved,
		ResolvedCount:    resolved,
		CorrectCount:     correct,
		CumulativeScore:  score,
	}
}

func TestLeaderboard_OrderedByScore(t *testing.T) {
	store := newFakeStore()
	seedStats(store, "low", 10, 5, 1.0)
	seedStats(store, "high", 10, 5, 9.0)
	seedStats(store, "mid", 10, 5, 5.0)
	lb := newTestLeaderboard(store, 0)

	snap, err := lb.Snapshot(context.Background(), 0, 0, false)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 3)
	assert.Equal(t, "high", snap.Entries[0].UserID)
	assert.Equal(t, "mid", snap.Entries[1].UserID)
	assert.Equal(t, "low", snap.Entries[2].UserID)
	for i, entry := range snap.Entries {
		assert.Equal(t, i+1, entry.Rank)
	}
}

func TestLeaderboard_TieBreakByAccuracyThenResolved(t *testing.T) {
	store := newFakeStore()
	// Same score; a wins on accuracy.
	seedStats(store, "a", 10, 9, 5.0)
	seedStats(store, "b", 10, 5, 5.0)
	// Same score and accuracy as d; more resolved wins.
	seedStats(store, "c", 20, 16, 3.0)
	seedStats(store, "d", 10, 8, 3.0)
	lb := newTestLeaderboard(store, 0)

	snap, err := lb.Snapshot(context.Background(), 0, 0, false)
	require.NoError(t, err)
	ids := []string{}
	for _, e := range snap.Entries {
		ids = append(ids, e.UserID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestLeaderboard_MoreValidatedTrackRecordWins(t *testing.T) {
	store := newFakeStore()
	// Both cumulative 5.0, both accuracy 0.8; B has 20 resolved to
	// A's 10, so B ranks above A.
	seedStats(store, "userA", 10, 8, 5.0)
	seedStats(store, "userB", 20, 16, 5.0)
	lb := newTestLeaderboard(store, 0)

	snap, err := lb.Snapshot(context.Background(), 0, 0, false)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "userB", snap.Entries[0].UserID)
	assert.Equal(t, "userA", snap.Entries[1].UserID)
}

func TestLeaderboard_ZeroResolvedRankedLast(t *testing.T) {
	store := newFakeStore()
	seedStats(store, "zed", 0, 0, 0)
	seedStats(store, "abe", 0, 0, 0)
	// Negative score still beats the zero-resolved block.
	seedStats(store, "loser", 5, 0, -2.0)
	lb := newTestLeaderboard(store, 0)

	snap, err := lb.Snapshot(context.Background(), 0, 0, false)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 3)
	assert.Equal(t, "loser", snap.Entries[0].UserID)
	assert.Equal(t, "abe", snap.Entries[1].UserID)
	assert.Equal(t, "zed", snap.Entries[2].UserID)
}

func TestLeaderboard_StrictTotalOrder(t *testing.T) {
	// Identical stats rows must still order deterministically, by id.
	rows := []entity.UserStats{
		{UserID: "u1", ResolvedCount: 10, CorrectCount: 5, CumulativeScore: 2},
		{UserID: "u2", ResolvedCount: 10, CorrectCount: 5, CumulativeScore: 2},
		{UserID: "u3", ResolvedCount: 0},
		{UserID: "u4", ResolvedCount: 0},
	}
	for i := range rows {
		for j := range rows {
			if i == j {
				continue
			}
			less := rankLess(&rows[i], &rows[j])
			greater := rankLess(&rows[j], &rows[i])
			assert.NotEqual(t, less, greater, "users %s and %s must compare asymmetrically", rows[i].UserID, rows[j].UserID)
		}
	}
}

func TestLeaderboard_Pagination(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 5; i++ {
		seedStats(store, string(rune('a'+i)), 10, 5, float64(10-i))
	}
	lb := newTestLeaderboard(store, 0)

	page, err := lb.Snapshot(context.Background(), 2, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, 3, page.Entries[0].Rank)
	assert.Equal(t, 4, page.Entries[1].Rank)

	// Offset beyond the population is an empty page, not an error.
	empty, err := lb.Snapshot(context.Background(), 10, 100, false)
	require.NoError(t, err)
	assert.Empty(t, empty.Entries)
	assert.Equal(t, 5, empty.Total)
}

func TestLeaderboard_CacheAndForce(t *testing.T) {
	store := newFakeStore()
	seedStats(store, "u1", 10, 5, 1.0)
	lb := newTestLeaderboard(store, time.Hour)

	first, err := lb.Snapshot(context.Background(), 0, 0, false)
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)

	seedStats(store, "u2", 10, 5, 9.0)

	// Within the staleness window the cached ordering is served.
	cached, err := lb.Snapshot(context.Background(), 0, 0, false)
	require.NoError(t, err)
	assert.Len(t, cached.Entries, 1)
	assert.Equal(t, first.GeneratedAt, cached.GeneratedAt)

	// force recomputes from current stats.
	fresh, err := lb.Snapshot(context.Background(), 0, 0, true)
	require.NoError(t, err)
	require.Len(t, fresh.Entries, 2)
	assert.Equal(t, "u2", fresh.Entries[0].UserID)
}

func TestLeaderboard_RankInfoDelta(t *testing.T) {
	store := newFakeStore()
	seedStats(store, "u1", 10, 5, 5.0)
	seedStats(store, "u2", 10, 5, 3.0)
	lb := newTestLeaderboard(store, time.Hour)

	rank, _, ok, err := lb.RankInfo(context.Background(), "u2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, rank)

	// u2 overtakes u1; after a forced recompute the delta shows the climb.
	seedStats(store, "u2", 12, 7, 8.0)
	_, err = lb.Snapshot(context.Background(), 0, 0, true)
	require.NoError(t, err)

	rank, delta, ok, err := lb.RankInfo(context.Background(), "u2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, rank)
	assert.Equal(t, 1, delta)

	_, _, ok, err = lb.RankInfo(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaderboard_UsesDisplayNames(t *testing.T) {
	store := newFakeStore()
	seedStats(store, "u1", 10, 5, 1.0)
	lb := newTestLeaderboard(store, 0)

	snap, err := lb.Snapshot(context.Background(), 0, 0, false)
	require.NoError(t, err)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "User u1", snap.Entries[0].Name)
	assert.InDelta(t, 0.5, snap.Entries[0].Accuracy, 1e-9)
}
