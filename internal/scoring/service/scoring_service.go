package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/repository"
	"prediction-scoreboard/pkg/logger"
)

// ScoringService is the core engine: it accepts raw prediction tuples
// from the script-execution layer and converts resolved predictions
// into per-user and per-script aggregates exactly once each.
type ScoringService interface {
	RecordPrediction(ctx context.Context, req *dto.RecordPredictionRequest) (*dto.PredictionResponse, error)
	// ScoreOne applies the scoring function to a resolved prediction.
	// Calling it again on a scored prediction is a no-op returning the
	// stored result.
	ScoreOne(ctx context.Context, predictionID int64) (*dto.ScoreResult, error)
	// ResolveAndScore drives one prediction through the resolver and,
	// when an outcome is available, through ScoreOne. A nil result
	// with nil error means the outcome is not yet available and the
	// prediction stays pending.
	ResolveAndScore(ctx context.Context, predictionID int64) (*dto.ScoreResult, error)
	GetPrediction(ctx context.Context, predictionID int64) (*dto.PredictionResponse, error)
}

// NewScoringService creates a new scoring service.
func NewScoringService(
	predictionRepo repository.PredictionRepository,
	userRepo repository.UserRepository,
	scriptRepo repository.ScriptRepository,
	resolver OutcomeResolver,
	log *logger.Logger,
) ScoringService {
	return &scoringService{
		predictionRepo: predictionRepo,
		userRepo:       userRepo,
		scriptRepo:     scriptRepo,
		resolver:       resolver,
		log:            log,
	}
}

type scoringService struct {
	predictionRepo repository.PredictionRepository
	userRepo       repository.UserRepository
	scriptRepo     repository.ScriptRepository
	resolver       OutcomeResolver
	log            *logger.Logger
}

// RecordPrediction validates and persists one forecast. Data-shape
// problems are rejected here and never reach the ledger.
func (s *scoringService) RecordPrediction(ctx context.Context, req *dto.RecordPredictionRequest) (*dto.PredictionResponse, error) {
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	p := &entity.Prediction{
		ScriptID:   req.ScriptID,
		UserID:     req.UserID,
		Symbol:     strings.ToUpper(req.Symbol),
		Direction:  entity.Direction(req.Direction),
		Confidence: req.Confidence,
		Deadline:   req.Deadline,
		Status:     entity.StatusPending,
	}
	if err := s.predictionRepo.Create(ctx, p); err != nil {
		s.log.Error("Failed to record prediction", logger.ErrorField(err), logger.StringField("user_id", req.UserID))
		return nil, err
	}
	return mapPredictionResponse(p), nil
}

func (s *scoringService) validate(ctx context.Context, req *dto.RecordPredictionRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", entity.ErrInvalidPrediction)
	}
	if !entity.Direction(req.Direction).Valid() {
		return fmt.Errorf("%w: direction %q", entity.ErrInvalidPrediction, req.Direction)
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of [0,1]", entity.ErrInvalidPrediction, req.Confidence)
	}
	if !req.Deadline.After(time.Now()) {
		return fmt.Errorf("%w: deadline not in the future", entity.ErrInvalidPrediction)
	}
	if _, err := s.userRepo.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, entity.ErrUnknownUser) {
			return fmt.Errorf("%w: user %q", entity.ErrInvalidPrediction, req.UserID)
		}
		return err
	}
	script, err := s.scriptRepo.FindByID(ctx, req.ScriptID)
	if err != nil {
		if errors.Is(err, entity.ErrUnknownScript) {
			return fmt.Errorf("%w: script %d", entity.ErrInvalidPrediction, req.ScriptID)
		}
		return err
	}
	if script.UserID != req.UserID {
		return fmt.Errorf("%w: script %d does not belong to user %q", entity.ErrInvalidPrediction, req.ScriptID, req.UserID)
	}
	return nil
}

// ScoreOne computes points = confidence * (+1 if correct, -1 if not)
// and applies the status transition plus both stats increments as one
// atomic unit. Predictions resolved without an outcome score zero and
// stay out of the accuracy denominators.
func (s *scoringService) ScoreOne(ctx context.Context, predictionID int64) (*dto.ScoreResult, error) {
	p, err := s.predictionRepo.FindByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case entity.StatusScored:
		return storedResult(p), nil
	case entity.StatusPending:
		return nil, fmt.Errorf("prediction %d: %w", predictionID, entity.ErrNotYetResolved)
	}

	points, correct, countsToward := scorePrediction(p)
	applied, err := s.predictionRepo.ApplyScore(ctx, p, points, correct, countsToward)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Another worker scored it between our read and the
		// conditional update; the stored result is authoritative.
		p, err = s.predictionRepo.FindByID(ctx, predictionID)
		if err != nil {
			return nil, err
		}
		if p.Status != entity.StatusScored {
			return nil, fmt.Errorf("prediction %d: %w", predictionID, entity.ErrInvalidTransition)
		}
		return storedResult(p), nil
	}

	return &dto.ScoreResult{
		PredictionID:         p.ID,
		Points:               points,
		Correct:              correct,
		CountsTowardAccuracy: countsToward,
	}, nil
}

// ResolveAndScore resolves the prediction's window and scores it. The
// window runs from creation to deadline.
func (s *scoringService) ResolveAndScore(ctx context.Context, predictionID int64) (*dto.ScoreResult, error) {
	p, err := s.predictionRepo.FindByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	if p.Status == entity.StatusScored {
		return storedResult(p), nil
	}

	if p.Status == entity.StatusPending {
		outcome, err := s.resolver.Resolve(ctx, p.Symbol, p.CreatedAt, p.Deadline)
		if err != nil {
			// Lookup failure, not missing data: leave pending for the
			// next sweep.
			return nil, err
		}
		switch outcome.Status {
		case dto.OutcomeNotYetAvailable:
			return nil, nil
		case dto.OutcomeDataUnavailable:
			if err := s.predictionRepo.MarkResolved(ctx, p.ID, nil); err != nil && !errors.Is(err, entity.ErrInvalidTransition) {
				return nil, err
			}
		default:
			if err := s.predictionRepo.MarkResolved(ctx, p.ID, outcome); err != nil && !errors.Is(err, entity.ErrInvalidTransition) {
				return nil, err
			}
		}
	}

	return s.ScoreOne(ctx, predictionID)
}

// GetPrediction returns the API view of one ledger row.
func (s *scoringService) GetPrediction(ctx context.Context, predictionID int64) (*dto.PredictionResponse, error) {
	p, err := s.predictionRepo.FindByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	return mapPredictionResponse(p), nil
}

// scorePrediction is the pure scoring function. Flat outcomes count as
// correct only for flat predictions; rewarding confidence symmetrically
// penalizes confident wrong calls harder than timid ones.
func scorePrediction(p *entity.Prediction) (points float64, correct, countsToward bool) {
	outcome, ok := p.OutcomeDirection()
	if !ok {
		return 0, false, false
	}
	correct = p.Direction == outcome
	points = p.Confidence
	if !correct {
		points = -points
	}
	return points, correct, true
}

func storedResult(p *entity.Prediction) *dto.ScoreResult {
	points := 0.0
	if p.Points.Valid {
		points = p.Points.Float64
	}
	outcome, hasOutcome := p.OutcomeDirection()
	return &dto.ScoreResult{
		PredictionID:         p.ID,
		Points:               points,
		Correct:              hasOutcome && p.Direction == outcome,
		CountsTowardAccuracy: hasOutcome,
		AlreadyScored:        true,
	}
}

func mapPredictionResponse(p *entity.Prediction) *dto.PredictionResponse {
	resp := &dto.PredictionResponse{
		ID:         p.ID,
		ScriptID:   p.ScriptID,
		UserID:     p.UserID,
		Symbol:     p.Symbol,
		Direction:  string(p.Direction),
		Confidence: p.Confidence,
		Deadline:   p.Deadline,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
	}
	if p.Outcome.Valid {
		outcome := p.Outcome.String
		resp.Outcome = &outcome
	}
	if p.Points.Valid {
		points := p.Points.Float64
		resp.Points = &points
	}
	if p.ResolvedAt.Valid {
		t := p.ResolvedAt.Time
		resp.ResolvedAt = &t
	}
	if p.ScoredAt.Valid {
		t := p.ScoredAt.Time
		resp.ScoredAt = &t
	}
	return resp
}
