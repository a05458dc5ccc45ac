package repository

import (
	"context"
	"errors"
	"time"

	"prediction-scoreboard/internal/entity"

	"gorm.io/gorm"
)

// ErrNoPrice means no tick exists for the symbol inside the lookback
// window. The resolver maps this to its data-unavailable outcome.
var ErrNoPrice = errors.New("no price data")

// MarketDataRepository supplies price-at-time lookups. Ticks are
// written by the ingestion pipeline outside this service.
type MarketDataRepository interface {
	// PriceAt returns the latest tick at or before t, no older than
	// t minus maxStaleness.
	PriceAt(ctx context.Context, symbol string, t time.Time, maxStaleness time.Duration) (float64, error)
}

// NewMarketDataRepository creates a new GORM-based market data reader.
func NewMarketDataRepository(db *gorm.DB) MarketDataRepository {
	return &marketDataRepository{db: db}
}

type marketDataRepository struct {
	db *gorm.DB
}

func (r *marketDataRepository) PriceAt(ctx context.Context, symbol string, t time.Time, maxStaleness time.Duration) (float64, error) {
	var tick entity.MarketTick
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND timestamp <= ? AND timestamp > ?", symbol, t, t.Add(-maxStaleness)).
		Order("timestamp DESC").
		First(&tick).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoPrice
		}
		return 0, err
	}
	return tick.Price, nil
}
