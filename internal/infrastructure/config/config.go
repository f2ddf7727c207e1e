package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"pulsefeed/internal/application"
)

type Config struct {
	App struct {
		Asset            string `toml:"asset"`
		PrintEverySec    int    `toml:"print_every_sec"`
		SnapshotEveryMin int    `toml:"snapshot_every_min"`
	} `toml:"app"`

	Feed struct {
		Venues []string `toml:"venues"`
	} `toml:"feed"`

	Aggregator struct {
		MaxStalenessMs        int64   `toml:"max_staleness_ms"`
		MaxDeviationPct       float64 `toml:"max_deviation_pct"`
		MinSources            int     `toml:"min_sources"`
		TightSpreadPct        float64 `toml:"tight_spread_pct"`
		DivergenceWarningPct  float64 `toml:"divergence_warning_pct"`
		DivergenceCriticalPct float64 `toml:"divergence_critical_pct"`
	} `toml:"aggregator"`

	Connection struct {
		ConnectTimeoutSec    float64 `toml:"connect_timeout_sec"`
		PingIntervalSec      float64 `toml:"ping_interval_sec"`
		PongTimeoutSec       float64 `toml:"pong_timeout_sec"`
		ReconnectDelaySec    float64 `toml:"reconnect_delay_sec"`
		MaxReconnectDelaySec float64 `toml:"max_reconnect_delay_sec"`
		ReconnectBackoff     float64 `toml:"reconnect_backoff"`
	} `toml:"connection"`

	Oracle struct {
		Enabled         bool    `toml:"enabled"`
		Testnet         bool    `toml:"testnet"`
		StreamID        string  `toml:"stream_id"`
		PollIntervalSec float64 `toml:"poll_interval_sec"`
	} `toml:"oracle"`

	Storage struct {
		SQLitePath  string `toml:"sqlite_path"`
		PostgresDSN string `toml:"postgres_dsn"`
		RedisAddr   string `toml:"redis_addr"`
		RedisPrefix string `toml:"redis_prefix"`
		RedisTTLSec int    `toml:"redis_ttl_sec"`
	} `toml:"storage"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.App.Asset = strings.ToUpper(strings.TrimSpace(cfg.App.Asset))
	if cfg.App.Asset == "" {
		cfg.App.Asset = application.AssetBTC
	}
	if cfg.App.PrintEverySec <= 0 {
		cfg.App.PrintEverySec = 1
	}
	if cfg.App.SnapshotEveryMin <= 0 {
		cfg.App.SnapshotEveryMin = 5
	}

	if len(cfg.Feed.Venues) == 0 {
		cfg.Feed.Venues = append(cfg.Feed.Venues, application.AllVenues...)
	}

	if cfg.Aggregator.MaxStalenessMs == 0 {
		cfg.Aggregator.MaxStalenessMs = 2000
	}
	if cfg.Aggregator.MaxDeviationPct == 0 {
		cfg.Aggregator.MaxDeviationPct = 1.0
	}
	if cfg.Aggregator.MinSources == 0 {
		cfg.Aggregator.MinSources = 2
	}
	if cfg.Aggregator.TightSpreadPct == 0 {
		cfg.Aggregator.TightSpreadPct = 0.1
	}
	if cfg.Aggregator.DivergenceWarningPct == 0 {
		cfg.Aggregator.DivergenceWarningPct = 0.3
	}
	if cfg.Aggregator.DivergenceCriticalPct == 0 {
		cfg.Aggregator.DivergenceCriticalPct = 0.5
	}

	if cfg.Connection.ConnectTimeoutSec == 0 {
		cfg.Connection.ConnectTimeoutSec = 5
	}
	if cfg.Connection.PingIntervalSec == 0 {
		cfg.Connection.PingIntervalSec = 20
	}
	if cfg.Connection.PongTimeoutSec == 0 {
		cfg.Connection.PongTimeoutSec = 10
	}
	if cfg.Connection.ReconnectDelaySec == 0 {
		cfg.Connection.ReconnectDelaySec = 1.0
	}
	if cfg.Connection.MaxReconnectDelaySec == 0 {
		cfg.Connection.MaxReconnectDelaySec = 30.0
	}
	if cfg.Connection.ReconnectBackoff == 0 {
		cfg.Connection.ReconnectBackoff = 1.5
	}

	if cfg.Oracle.PollIntervalSec == 0 {
		cfg.Oracle.PollIntervalSec = 1.0
	}
	if strings.TrimSpace(cfg.Storage.RedisPrefix) == "" {
		cfg.Storage.RedisPrefix = "pulsefeed"
	}
}

func validate(cfg *Config) error {
	if !application.KnownAsset(cfg.App.Asset) {
		return fmt.Errorf("app.asset %q not supported", cfg.App.Asset)
	}

	cfg.Feed.Venues = normalizeVenues(cfg.Feed.Venues)
	if len(cfg.Feed.Venues) == 0 {
		return errors.New("feed.venues is empty")
	}
	for _, v := range cfg.Feed.Venues {
		if !application.KnownVenue(v) {
			return fmt.Errorf("feed.venues: unknown venue tag %q", v)
		}
	}

	a := &cfg.Aggregator
	if a.MaxStalenessMs < 0 || a.MaxDeviationPct < 0 || a.MinSources < 1 ||
		a.TightSpreadPct < 0 || a.DivergenceWarningPct < 0 || a.DivergenceCriticalPct < 0 {
		return errors.New("aggregator thresholds must be non-negative")
	}
	if a.TightSpreadPct >= a.DivergenceCriticalPct {
		return errors.New("aggregator.tight_spread_pct must be below divergence_critical_pct")
	}

	c := &cfg.Connection
	if c.ConnectTimeoutSec <= 0 || c.PingIntervalSec <= 0 || c.PongTimeoutSec <= 0 ||
		c.ReconnectDelaySec <= 0 || c.MaxReconnectDelaySec <= 0 {
		return errors.New("connection timeouts must be positive")
	}
	if c.ReconnectBackoff <= 1 {
		return errors.New("connection.reconnect_backoff must be above 1")
	}
	return nil
}

func normalizeVenues(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, v := range in {
		l := strings.ToLower(strings.TrimSpace(v))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
