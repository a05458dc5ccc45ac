package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/repository"
	"prediction-scoreboard/pkg/logger"
)

// fakeStore is an in-memory implementation of every repository
// interface, mirroring the conditional-update semantics of the real
// GORM repositories so the apply-once behavior is exercised for real.
type fakeStore struct {
	mu          sync.Mutex
	seq         int64
	predictions map[int64]*entity.Prediction
	userStats   map[string]*entity.UserStats
	scriptStats map[int64]*entity.ScriptStats
	users       map[string]entity.User
	scripts     map[int64]entity.UserScript
	ticks       []entity.MarketTick
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		predictions: make(map[int64]*entity.Prediction),
		userStats:   make(map[string]*entity.UserStats),
		scriptStats: make(map[int64]*entity.ScriptStats),
		users:       make(map[string]entity.User),
		scripts:     make(map[int64]entity.UserScript),
	}
}

func (f *fakeStore) addUser(id, name string) {
	f.users[id] = entity.User{ID: id, Email: id + "@example.com", Name: name}
}

func (f *fakeStore) addScript(id int64, userID string, active bool) {
	f.scripts[id] = entity.UserScript{ID: id, UserID: userID, Name: fmt.Sprintf("script-%d", id), Active: active}
}

func (f *fakeStore) addTick(symbol string, price float64, ts time.Time) {
	f.ticks = append(f.ticks, entity.MarketTick{Symbol: symbol, Price: price, Timestamp: ts})
}

// seedPrediction inserts a prediction directly, bypassing boundary
// validation, so tests can construct past-deadline and resolved rows.
func (f *fakeStore) seedPrediction(p entity.Prediction) *entity.Prediction {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = f.seq
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.Status == "" {
		p.Status = entity.StatusPending
	}
	f.predictions[p.ID] = &p
	f.ensureUserStatsLocked(p.UserID)
	f.ensureScriptStatsLocked(p.ScriptID)
	f.userStats[p.UserID].TotalPredictions++
	f.scriptStats[p.ScriptID].TotalPredictions++
	return clonePrediction(&p)
}

func clonePrediction(p *entity.Prediction) *entity.Prediction {
	cp := *p
	return &cp
}

func (f *fakeStore) ensureUserStatsLocked(userID string) {
	if _, ok := f.userStats[userID]; !ok {
		f.userStats[userID] = &entity.UserStats{UserID: userID}
	}
}

func (f *fakeStore) ensureScriptStatsLocked(scriptID int64) {
	if _, ok := f.scriptStats[scriptID]; !ok {
		f.scriptStats[scriptID] = &entity.ScriptStats{ScriptID: scriptID}
	}
}

// PredictionRepository

func (f *fakeStore) Create(ctx context.Context, p *entity.Prediction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = f.seq
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	f.predictions[p.ID] = clonePrediction(p)
	f.ensureUserStatsLocked(p.UserID)
	f.ensureScriptStatsLocked(p.ScriptID)
	f.userStats[p.UserID].TotalPredictions++
	f.scriptStats[p.ScriptID].TotalPredictions++
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id int64) (*entity.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.predictions[id]
	if !ok {
		return nil, entity.ErrPredictionNotFound
	}
	return clonePrediction(p), nil
}

func (f *fakeStore) ListDuePending(ctx context.Context, before time.Time, limit int) ([]entity.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []entity.Prediction
	for _, p := range f.predictions {
		if p.Status == entity.StatusPending && p.Deadline.Before(before) {
			due = append(due, *p)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Deadline.Before(due[j].Deadline) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeStore) MarkResolved(ctx context.Context, id int64, outcome *dto.OutcomeResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.predictions[id]
	if !ok {
		return entity.ErrPredictionNotFound
	}
	if p.Status != entity.StatusPending {
		return fmt.Errorf("prediction %d: %w", id, entity.ErrInvalidTransition)
	}
	p.Status = entity.StatusResolved
	p.ResolvedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if outcome != nil {
		p.Outcome = sql.NullString{String: string(outcome.Direction), Valid: true}
		if data, err := json.Marshal(outcome); err == nil {
			p.OutcomeData = data
		}
	}
	return nil
}

func (f *fakeStore) ApplyScore(ctx context.Context, p *entity.Prediction, points float64, correct, countsToward bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.predictions[p.ID]
	if !ok {
		return false, entity.ErrPredictionNotFound
	}
	if stored.Status != entity.StatusResolved {
		return false, nil
	}
	stored.Status = entity.StatusScored
	stored.Points = sql.NullFloat64{Float64: points, Valid: true}
	stored.ScoredAt = sql.NullTime{Time: time.Now(), Valid: true}

	if countsToward {
		correctInc := int64(0)
		if correct {
			correctInc = 1
		}
		us := f.userStats[stored.UserID]
		us.ResolvedCount++
		us.CorrectCount += correctInc
		us.CumulativeScore += points
		ss := f.scriptStats[stored.ScriptID]
		ss.ResolvedCount++
		ss.CorrectCount += correctInc
		ss.CumulativeScore += points
	}
	return true, nil
}

func (f *fakeStore) ListRecentByUser(ctx context.Context, userID string, limit int) ([]entity.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var recent []entity.Prediction
	for _, p := range f.predictions {
		if p.UserID == userID {
			recent = append(recent, *p)
		}
	}
	sort.Slice(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

// StatsRepository

func (f *fakeStore) FindUserStats(ctx context.Context, userID string) (*entity.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats, ok := f.userStats[userID]
	if !ok {
		return nil, entity.ErrUnknownUser
	}
	cp := *stats
	return &cp, nil
}

func (f *fakeStore) FindScriptStats(ctx context.Context, scriptID int64) (*entity.ScriptStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats, ok := f.scriptStats[scriptID]
	if !ok {
		return nil, entity.ErrUnknownScript
	}
	cp := *stats
	return &cp, nil
}

func (f *fakeStore) ListUserStats(ctx context.Context) ([]entity.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := make([]entity.UserStats, 0, len(f.userStats))
	for _, s := range f.userStats {
		stats = append(stats, *s)
	}
	return stats, nil
}

func (f *fakeStore) EnsureUserStats(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureUserStatsLocked(userID)
	return nil
}

func (f *fakeStore) EnsureScriptStats(ctx context.Context, scriptID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureScriptStatsLocked(scriptID)
	return nil
}

// MarketDataRepository

func (f *fakeStore) PriceAt(ctx context.Context, symbol string, t time.Time, maxStaleness time.Duration) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *entity.MarketTick
	for i := range f.ticks {
		tick := &f.ticks[i]
		if tick.Symbol != symbol || tick.Timestamp.After(t) || !tick.Timestamp.After(t.Add(-maxStaleness)) {
			continue
		}
		if best == nil || tick.Timestamp.After(best.Timestamp) {
			best = tick
		}
	}
	if best == nil {
		return 0, repository.ErrNoPrice
	}
	return best.Price, nil
}

// UserRepository

func (f *fakeStore) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, entity.ErrUnknownUser
	}
	return &u, nil
}

func (f *fakeStore) FindByIDs(ctx context.Context, ids []string) (map[string]entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[string]entity.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			byID[id] = u
		}
	}
	return byID, nil
}

// ScriptRepository

func (f *fakeStore) FindScriptByID(ctx context.Context, id int64) (*entity.UserScript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.scripts[id]
	if !ok {
		return nil, entity.ErrUnknownScript
	}
	return &s, nil
}

func (f *fakeStore) CountByUser(ctx context.Context, userID string) (total, active int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.scripts {
		if s.UserID != userID {
			continue
		}
		total++
		if s.Active {
			active++
		}
	}
	return total, active, nil
}

// Interface adapters: UserRepository and ScriptRepository both declare
// FindByID, so the store exposes them through small views.

type userRepoView struct{ *fakeStore }

func (v userRepoView) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return v.FindUserByID(ctx, id)
}

type scriptRepoView struct{ *fakeStore }

func (v scriptRepoView) FindByID(ctx context.Context, id int64) (*entity.UserScript, error) {
	return v.FindScriptByID(ctx, id)
}

func (f *fakeStore) userRepo() repository.UserRepository     { return userRepoView{f} }
func (f *fakeStore) scriptRepo() repository.ScriptRepository { return scriptRepoView{f} }

func testLogger() *logger.Logger {
	log, err := logger.New("error", "console")
	if err != nil {
		panic(err)
	}
	return log
}

// fakeResolver returns canned outcomes.
type fakeResolver struct {
	result *dto.OutcomeResult
	err    error
}

func (r *fakeResolver) Resolve(ctx context.Context, symbol string, windowStart, windowEnd time.Time) (*dto.OutcomeResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}
