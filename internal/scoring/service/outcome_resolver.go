package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/config"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/repository"

	"golang.org/x/time/rate"
)

// OutcomeResolver determines the realized price movement for a
// symbol/window. It is a pure function of historical market data:
// identical inputs always produce identical results, so re-invocation
// is safe.
type OutcomeResolver interface {
	Resolve(ctx context.Context, symbol string, windowStart, windowEnd time.Time) (*dto.OutcomeResult, error)
}

// NewOutcomeResolver creates a resolver with the configured settlement
// lag and flat band. The rate limiter bounds market-data reads across
// concurrent sweep workers.
func NewOutcomeResolver(cfg *config.Config, marketData repository.MarketDataRepository) OutcomeResolver {
	return &outcomeResolver{
		cfg:        cfg,
		marketData: marketData,
		limiter:    rate.NewLimiter(rate.Limit(cfg.Resolver.MaxLookupsPerSecond), 1),
		now:        time.Now,
	}
}

type outcomeResolver struct {
	cfg        *config.Config
	marketData repository.MarketDataRepository
	limiter    *rate.Limiter
	now        func() time.Time
}

// Resolve classifies the window. NotYetAvailable and DataUnavailable
// are returned as values; the error return carries only lookup
// failures (timeouts, connection errors), which callers must not
// conflate with missing data.
func (r *outcomeResolver) Resolve(ctx context.Context, symbol string, windowStart, windowEnd time.Time) (*dto.OutcomeResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("resolve: empty symbol")
	}
	if !windowEnd.After(windowStart) {
		return nil, fmt.Errorf("resolve: window end %v not after start %v", windowEnd, windowStart)
	}

	if r.now().Before(windowEnd.Add(r.cfg.Resolver.SettlementLag)) {
		return &dto.OutcomeResult{Status: dto.OutcomeNotYetAvailable}, nil
	}

	startPrice, err := r.priceAt(ctx, symbol, windowStart)
	if err != nil {
		if errors.Is(err, repository.ErrNoPrice) {
			return &dto.OutcomeResult{Status: dto.OutcomeDataUnavailable}, nil
		}
		return nil, fmt.Errorf("resolve %s at window start: %w", symbol, err)
	}
	endPrice, err := r.priceAt(ctx, symbol, windowEnd)
	if err != nil {
		if errors.Is(err, repository.ErrNoPrice) {
			return &dto.OutcomeResult{Status: dto.OutcomeDataUnavailable}, nil
		}
		return nil, fmt.Errorf("resolve %s at window end: %w", symbol, err)
	}

	delta := endPrice - startPrice
	direction := entity.DirectionFlat
	if startPrice != 0 {
		move := delta / startPrice
		if move >= r.cfg.Resolver.FlatBand {
			direction = entity.DirectionUp
		} else if move <= -r.cfg.Resolver.FlatBand {
			direction = entity.DirectionDown
		}
	}

	return &dto.OutcomeResult{
		Status:     dto.OutcomeOK,
		Direction:  direction,
		StartPrice: startPrice,
		EndPrice:   endPrice,
		PriceDelta: delta,
	}, nil
}

func (r *outcomeResolver) priceAt(ctx context.Context, symbol string, t time.Time) (float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	lookupCtx, cancel := context.WithTimeout(ctx, r.cfg.Resolver.LookupTimeout)
	defer cancel()
	return r.marketData.PriceAt(lookupCtx, symbol, t, r.cfg.Resolver.MaxPriceStaleness)
}
