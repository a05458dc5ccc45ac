package config

import (
	"time"

	"prediction-scoreboard/pkg/config"
)

// Resolver holds outcome-resolver tuning.
type Resolver struct {
	// SettlementLag is the minimum delay after a window end before an
	// outcome may be resolved.
	SettlementLag time.Duration `mapstructure:"settlement_lag"`
	// FlatBand is the fractional price move below which the realized
	// direction counts as flat (|delta| / start < FlatBand).
	FlatBand float64 `mapstructure:"flat_band"`
	// MaxPriceStaleness bounds how far back a price lookup may reach
	// for the nearest tick at or before the requested instant.
	MaxPriceStaleness time.Duration `mapstructure:"max_price_staleness"`
	LookupTimeout     time.Duration `mapstructure:"lookup_timeout"`
	// MaxLookupsPerSecond rate-limits market-data reads during sweeps.
	MaxLookupsPerSecond float64 `mapstructure:"max_lookups_per_second"`
}

// Sweep holds resolution-sweep scheduling.
type Sweep struct {
	// Cron takes precedence over Interval when non-empty.
	Cron      string        `mapstructure:"cron"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
	// StreamReadTimeout bounds one consumer read iteration.
	StreamReadTimeout time.Duration `mapstructure:"stream_read_timeout"`
	// RetryMaxIdle is how long a claimed stream message may sit
	// unacknowledged before the retry reclaimer picks it up.
	RetryMaxIdle  time.Duration `mapstructure:"retry_max_idle"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// Leaderboard holds snapshot caching policy.
type Leaderboard struct {
	// StalenessTTL is how long a cached snapshot may be served before
	// it is recomputed from current stats.
	StalenessTTL time.Duration `mapstructure:"staleness_ttl"`
}

// Dashboard holds summary-view tuning.
type Dashboard struct {
	RecentPredictions int `mapstructure:"recent_predictions"`
}

// Telegram holds configuration for the sweep-summary notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the scoring service.
type Config struct {
	App         config.App      `mapstructure:"app"`
	Logger      config.Logger   `mapstructure:"logger"`
	Database    config.Database `mapstructure:"database"`
	Redis       config.Redis    `mapstructure:"redis"`
	API         config.API      `mapstructure:"api"`
	Resolver    Resolver        `mapstructure:"resolver"`
	Sweep       Sweep           `mapstructure:"sweep"`
	Leaderboard Leaderboard     `mapstructure:"leaderboard"`
	Dashboard   Dashboard       `mapstructure:"dashboard"`
	Telegram    Telegram        `mapstructure:"telegram"`
}

// Load loads the scoring service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Resolver.SettlementLag == 0 {
		c.Resolver.SettlementLag = 5 * time.Minute
	}
	if c.Resolver.FlatBand == 0 {
		c.Resolver.FlatBand = 0.001
	}
	if c.Resolver.MaxPriceStaleness == 0 {
		c.Resolver.MaxPriceStaleness = 15 * time.Minute
	}
	if c.Resolver.LookupTimeout == 0 {
		c.Resolver.LookupTimeout = 5 * time.Second
	}
	if c.Resolver.MaxLookupsPerSecond == 0 {
		c.Resolver.MaxLookupsPerSecond = 50
	}
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = time.Minute
	}
	if c.Sweep.BatchSize == 0 {
		c.Sweep.BatchSize = 500
	}
	if c.Sweep.StreamReadTimeout == 0 {
		c.Sweep.StreamReadTimeout = 30 * time.Second
	}
	if c.Sweep.RetryMaxIdle == 0 {
		c.Sweep.RetryMaxIdle = 2 * time.Minute
	}
	if c.Sweep.RetryInterval == 0 {
		c.Sweep.RetryInterval = time.Minute
	}
	if c.Leaderboard.StalenessTTL == 0 {
		c.Leaderboard.StalenessTTL = 30 * time.Second
	}
	if c.Dashboard.RecentPredictions == 0 {
		c.Dashboard.RecentPredictions = 10
	}
}
