package entity

import "time"

// MarketTick is one recorded price observation. Rows are written by the
// market-data ingestion pipeline outside this service; the outcome
// resolver only reads them.
type MarketTick struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Symbol    string    `gorm:"not null;index:idx_market_ticks_symbol_ts" json:"symbol"`
	Price     float64   `gorm:"not null" json:"price"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `gorm:"not null;index:idx_market_ticks_symbol_ts" json:"timestamp"`
}

func (MarketTick) TableName() string {
	return "market_ticks"
}
