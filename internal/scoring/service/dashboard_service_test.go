package service

import (
	"context"
	"testing"
	"time"

	"prediction-scoreboard/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboard(store *fakeStore) DashboardService {
	lb := newTestLeaderboard(store, 0)
	return NewDashboardService(store, store, store.scriptRepo(), lb, testConfig(), testLogger())
}

func TestSummarize_UnknownUser(t *testing.T) {
	store := newFakeStore()
	svc := newTestDashboard(store)

	_, err := svc.Summarize(context.Background(), "nobody")
	assert.ErrorIs(t, err, entity.ErrUnknownUser)
}

func TestSummarize_ZeroPredictionsIsNotAnError(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Alice")
	store.addScript(1, "u1", true)
	store.addScript(2, "u1", false)
	require.NoError(t, store.EnsureUserStats(context.Background(), "u1"))
	svc := newTestDashboard(store)

	summary, err := svc.Summarize(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalPredictions)
	assert.Zero(t, summary.Accuracy)
	assert.Zero(t, summary.CumulativeScore)
	assert.Empty(t, summary.Recent)
	assert.Equal(t, int64(2), summary.TotalScripts)
	assert.Equal(t, int64(1), summary.ActiveScripts)
}

func TestSummarize_RecentMostRecentFirst(t *testing.T) {
	store := newFakeStore()
	store.addUser("u1", "Alice")
	store.addScript(1, "u1", true)
	svc := newTestDashboard(store)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		store.seedPrediction(entity.Prediction{
			ScriptID:   1,
			UserID:     "u1",
			Symbol:     "AAPL",
			Direction:  entity.DirectionUp,
			Confidence: 0.5,
			Deadline:   base.Add(time.Duration(i+1) * time.Minute),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	summary, err := svc.Summarize(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), summary.TotalPredictions)
	require.Len(t, summary.Recent, 10)
	for i := 1; i < len(summary.Recent); i++ {
		assert.True(t, summary.Recent[i-1].CreatedAt.After(summary.Recent[i].CreatedAt),
			"recent predictions must be most-recent-first")
	}
}

func TestSummarize_IncludesRank(t *testing.T) {
	store := newFakeStore()
	seedStats(store, "u1", 10, 8, 5.0)
	seedStats(store, "u2", 10, 8, 7.0)
	svc := newTestDashboard(store)

	summary, err := svc.Summarize(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Rank)
	assert.InDelta(t, 0.8, summary.Accuracy, 1e-9)
	assert.InDelta(t, 5.0, summary.CumulativeScore, 1e-9)
}
