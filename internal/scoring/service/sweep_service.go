package service

import (
	"context"
	"encoding/json"
	"time"

	"prediction-scoreboard/internal/scoring/config"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/repository"
	"prediction-scoreboard/pkg/common"
	"prediction-scoreboard/pkg/logger"
	"prediction-scoreboard/pkg/telegram"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// SweepService periodically scans the ledger for pending predictions
// whose deadline has passed and publishes them to the resolution
// stream. At-least-once publication is fine: scoring is apply-once.
type SweepService interface {
	Start(ctx context.Context)
	// ProcessSweep runs one sweep and returns how many predictions
	// were published.
	ProcessSweep(ctx context.Context) (int, error)
}

// NewSweepService creates a new sweep service.
func NewSweepService(
	predictionRepo repository.PredictionRepository,
	redisClient *redis.Client,
	notifier telegram.Notifier,
	cfg *config.Config,
	log *logger.Logger,
) SweepService {
	return &sweepService{
		predictionRepo: predictionRepo,
		redisClient:    redisClient,
		notifier:       notifier,
		cfg:            cfg,
		log:            log,
		cronParser:     cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

type sweepService struct {
	predictionRepo repository.PredictionRepository
	redisClient    *redis.Client
	notifier       telegram.Notifier
	cfg            *config.Config
	log            *logger.Logger
	cronParser     cron.Parser
}

// Start runs sweeps on the configured cron expression, or on a plain
// interval ticker when no expression is set.
func (s *sweepService) Start(ctx context.Context) {
	if s.cfg.Sweep.Cron != "" {
		schedule, err := s.cronParser.Parse(s.cfg.Sweep.Cron)
		if err != nil {
			s.log.Error("Invalid sweep cron expression, falling back to interval",
				logger.ErrorField(err), logger.StringField("cron", s.cfg.Sweep.Cron))
		} else {
			s.runCron(ctx, schedule)
			return
		}
	}
	s.runInterval(ctx)
}

func (s *sweepService) runCron(ctx context.Context, schedule cron.Schedule) {
	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Sweep service stopping")
			return
		case <-timer.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *sweepService) runInterval(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Sweep.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Sweep service stopping")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *sweepService) sweepOnce(ctx context.Context) {
	if _, err := s.ProcessSweep(ctx); err != nil {
		s.log.Error("Sweep failed", logger.ErrorField(err))
	}
}

// ProcessSweep lists due pending predictions and enqueues each id for
// the resolution consumer.
func (s *sweepService) ProcessSweep(ctx context.Context) (int, error) {
	now := time.Now()
	due, err := s.predictionRepo.ListDuePending(ctx, now, s.cfg.Sweep.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	published := 0
	for _, p := range due {
		payload, err := json.Marshal(dto.StreamDataResolution{PredictionID: p.ID})
		if err != nil {
			s.log.Error("Failed to marshal resolution task", logger.ErrorField(err), logger.Field("prediction_id", p.ID))
			continue
		}
		if err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: common.RedisStreamPredictionResolution,
			Values: map[string]interface{}{"payload": payload},
			MaxLen: s.cfg.Redis.StreamMaxLen,
		}).Err(); err != nil {
			s.log.Error("Failed to enqueue resolution task", logger.ErrorField(err), logger.Field("prediction_id", p.ID))
			continue
		}
		published++
	}

	s.log.Info("Sweep completed",
		logger.IntField("due", len(due)),
		logger.IntField("published", published))

	if err := s.notifier.SendMessage(telegram.FormatSweepSummary(now, len(due), published)); err != nil {
		s.log.Warn("Failed to send sweep summary", logger.ErrorField(err))
	}

	return published, nil
}
