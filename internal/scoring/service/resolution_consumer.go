package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/config"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/pkg/common"
	"prediction-scoreboard/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ResolutionConsumerService drains the resolution stream and drives
// each prediction through resolve-and-score. Messages are acked on
// success and on terminal lifecycle errors; transient failures stay
// pending so the retry reclaimer can pick them up.
type ResolutionConsumerService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
}

// NewResolutionConsumerService creates a new resolution consumer.
func NewResolutionConsumerService(
	cfg *config.Config,
	redisClient *redis.Client,
	scoringSvc ScoringService,
	log *logger.Logger,
) ResolutionConsumerService {
	return &resolutionConsumerService{
		cfg:         cfg,
		redisClient: redisClient,
		scoringSvc:  scoringSvc,
		log:         log,
	}
}

type resolutionConsumerService struct {
	cfg         *config.Config
	redisClient *redis.Client
	scoringSvc  ScoringService
	log         *logger.Logger
}

// ProcessTask reads and handles one message from the resolution stream.
func (s *resolutionConsumerService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamPredictionResolution, ">"},
		Count:    1,
		Block:    2 * time.Second, // short block so shutdown stays responsive
	}).Result()
	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from resolution stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	s.handleMessage(ctx, streams[0].Messages[0])
}

func (s *resolutionConsumerService) handleMessage(ctx context.Context, message redis.XMessage) {
	payload, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		s.ackNDel(ctx, message.ID)
		return
	}

	var task dto.StreamDataResolution
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		s.log.Error("Failed to unmarshal resolution task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		s.ackNDel(ctx, message.ID)
		return
	}

	result, err := s.scoringSvc.ResolveAndScore(ctx, task.PredictionID)
	if err != nil {
		// Lifecycle and integrity errors are caller bugs or stale
		// messages: log and skip rather than retry forever.
		if errors.Is(err, entity.ErrInvalidTransition) ||
			errors.Is(err, entity.ErrNotYetResolved) ||
			errors.Is(err, entity.ErrPredictionNotFound) {
			s.log.Error("Skipping unprocessable resolution task",
				logger.ErrorField(err), logger.Field("prediction_id", task.PredictionID))
			s.ackNDel(ctx, message.ID)
			return
		}
		// Transient failure: leave unacked for the retry reclaimer.
		s.log.Error("Failed to resolve and score prediction",
			logger.ErrorField(err), logger.Field("prediction_id", task.PredictionID))
		return
	}

	if result == nil {
		// Outcome not yet available; the prediction stays pending and
		// a later sweep re-publishes it.
		s.log.Debug("Outcome not yet available", logger.Field("prediction_id", task.PredictionID))
	} else if !result.AlreadyScored {
		s.log.Info("Prediction scored",
			logger.Field("prediction_id", task.PredictionID),
			logger.Field("points", result.Points),
			logger.Field("correct", result.Correct))
	}

	s.ackNDel(ctx, message.ID)
}

// ProcessRetries reclaims messages another consumer left idle too long
// and runs them through the normal handler.
func (s *resolutionConsumerService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamPredictionResolution,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Sweep.RetryMaxIdle,
		Start:    "0",
		Count:    10,
	}).Result()
	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to claim idle resolution tasks", logger.ErrorField(err))
		return
	}

	for _, msg := range msgs {
		s.handleMessage(ctx, msg)
	}
}

func (s *resolutionConsumerService) ackNDel(ctx context.Context, messageID string) {
	if err := s.redisClient.XAck(ctx, common.RedisStreamPredictionResolution, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to ack resolution task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return
	}
	if err := s.redisClient.XDel(ctx, common.RedisStreamPredictionResolution, messageID).Err(); err != nil {
		s.log.Error("Failed to delete resolution task", logger.ErrorField(err), logger.Field("message_id", messageID))
	}
}
