package consumer

import (
	"context"
	"sync"
	"time"

	"prediction-scoreboard/internal/scoring/config"
	"prediction-scoreboard/internal/scoring/service"
	"prediction-scoreboard/pkg/common"
	"prediction-scoreboard/pkg/logger"
	"prediction-scoreboard/pkg/utils"
)

// RedisConsumer runs the resolution stream handlers until shutdown.
type RedisConsumer struct {
	cfg           *config.Config
	resolutionSvc service.ResolutionConsumerService
	logger        *logger.Logger
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	resolutionSvc service.ResolutionConsumerService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:           cfg,
		resolutionSvc: resolutionSvc,
		logger:        log,
		stopChan:      make(chan struct{}),
	}
}

// Start launches the stream handler and the idle-message reclaimer.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.registerStreamHandler(ctx, c.resolutionSvc.ProcessTask, common.RedisStreamPredictionResolution, c.cfg.Sweep.StreamReadTimeout)
	c.registerTickerHandler(ctx, c.resolutionSvc.ProcessRetries, c.cfg.Sweep.RetryInterval, c.cfg.Sweep.StreamReadTimeout, common.RedisStreamPredictionResolution+"-retry")
}

func (c *RedisConsumer) registerStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.StringField("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stream handler stopping due to context cancellation", logger.StringField("stream", streamName))
				return
			case <-c.stopChan:
				c.logger.Info("Stream handler stopping", logger.StringField("stream", streamName))
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

func (c *RedisConsumer) registerTickerHandler(ctx context.Context, fn func(ctx context.Context), interval, timeout time.Duration, name string) {
	c.logger.Info("Registering ticker handler",
		logger.StringField("name", name),
		logger.Field("interval", interval))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			case <-ctx.Done():
				c.logger.Info("Ticker handler stopping due to context cancellation", logger.StringField("name", name))
				return
			case <-c.stopChan:
				c.logger.Info("Ticker handler stopping", logger.StringField("name", name))
				return
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
