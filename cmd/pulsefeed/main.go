package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulsefeed/internal/application/port"
	feedusecase "pulsefeed/internal/application/usecase/feed"
	"pulsefeed/internal/application/usecase/monitor"
	"pulsefeed/internal/domain/service"
	"pulsefeed/internal/infrastructure/config"
	"pulsefeed/internal/infrastructure/exchange"
	feedinfra "pulsefeed/internal/infrastructure/feed"
	"pulsefeed/internal/infrastructure/logger"
	"pulsefeed/internal/infrastructure/oracle"
	"pulsefeed/internal/infrastructure/storage/composite"
	"pulsefeed/internal/infrastructure/storage/postgres"
	redisrepo "pulsefeed/internal/infrastructure/storage/redis"
	"pulsefeed/internal/infrastructure/storage/sqlite"
	"pulsefeed/internal/interfaces/console"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	// venue adapters self-register via init()
	_ "pulsefeed/internal/infrastructure/exchange/binance"
	_ "pulsefeed/internal/infrastructure/exchange/bybit"
	_ "pulsefeed/internal/infrastructure/exchange/coinbase"
	_ "pulsefeed/internal/infrastructure/exchange/gateio"
	_ "pulsefeed/internal/infrastructure/exchange/gemini"
	_ "pulsefeed/internal/infrastructure/exchange/kraken"
	_ "pulsefeed/internal/infrastructure/exchange/kucoin"
	_ "pulsefeed/internal/infrastructure/exchange/okx"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	logLevel := flag.String("log-level", "info", "zerolog level")
	flag.Parse()

	logger.Setup(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// venue adapters (infrastructure -> application ports)
	adapters := make([]port.VenueAdapter, 0, len(cfg.Feed.Venues))
	for _, tag := range cfg.Feed.Venues {
		factory, ok := exchange.Get(tag)
		if !ok {
			log.Fatal().Str("venue", tag).Msg("unknown venue tag")
		}
		adapters = append(adapters, factory())
	}

	runnerCfg := feedinfra.Config{
		ConnectTimeout:    secs(cfg.Connection.ConnectTimeoutSec),
		PingInterval:      secs(cfg.Connection.PingIntervalSec),
		PongTimeout:       secs(cfg.Connection.PongTimeoutSec),
		ReconnectDelay:    secs(cfg.Connection.ReconnectDelaySec),
		MaxReconnectDelay: secs(cfg.Connection.MaxReconnectDelaySec),
		ReconnectBackoff:  cfg.Connection.ReconnectBackoff,
	}

	registry, err := feedinfra.NewRegistry(cfg.App.Asset, adapters, runnerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build feed registry failed")
	}

	repo := buildRepo(cfg)
	if repo != nil {
		defer repo.Close()
	}

	var probe port.OracleProbe
	if cfg.Oracle.Enabled {
		probe = oracle.New(oracle.Config{
			Asset:        cfg.App.Asset,
			APIKey:       os.Getenv("CHAINLINK_API_KEY"),
			APISecret:    os.Getenv("CHAINLINK_API_SECRET"),
			Testnet:      cfg.Oracle.Testnet,
			StreamID:     cfg.Oracle.StreamID,
			PollInterval: secs(cfg.Oracle.PollIntervalSec),
		})
	}

	svc, err := feedusecase.New(feedusecase.ServiceDeps{
		Asset: cfg.App.Asset,
		Feeds: registry,
		Thresholds: service.Thresholds{
			MaxStalenessMs:        cfg.Aggregator.MaxStalenessMs,
			MaxDeviationPct:       cfg.Aggregator.MaxDeviationPct,
			MinSources:            cfg.Aggregator.MinSources,
			TightSpreadPct:        cfg.Aggregator.TightSpreadPct,
			DivergenceWarningPct:  cfg.Aggregator.DivergenceWarningPct,
			DivergenceCriticalPct: cfg.Aggregator.DivergenceCriticalPct,
		},
		Repo:   repo,
		Oracle: probe,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build feed failed")
	}

	if err := svc.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("start feed failed")
	}
	defer svc.Stop()

	log.Info().
		Str("config", *configPath).
		Str("asset", cfg.App.Asset).
		Strs("venues", cfg.Feed.Venues).
		Bool("oracle", cfg.Oracle.Enabled).
		Msg("pulsefeed started")

	mon := monitor.NewService(monitor.ServiceDeps{
		Source:        svc,
		Sink:          console.NewSink(),
		PrintEvery:    time.Duration(cfg.App.PrintEverySec) * time.Second,
		SnapshotEvery: time.Duration(cfg.App.SnapshotEveryMin) * time.Minute,
		WarningPct:    cfg.Aggregator.DivergenceWarningPct,
		CriticalPct:   cfg.Aggregator.DivergenceCriticalPct,
	})

	if err := mon.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("monitor exited")
	}
}

// buildRepo assembles the persistence stack from config. Every backend
// is optional; none configured means no persistence at all.
func buildRepo(cfg *config.Config) port.Repository {
	var repos []port.Repository

	if cfg.Storage.SQLitePath != "" {
		r, err := sqlite.New(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Storage.SQLitePath).Msg("open sqlite failed")
		}
		repos = append(repos, r)
	}
	if cfg.Storage.PostgresDSN != "" {
		r, err := postgres.New(cfg.Storage.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres failed")
		}
		repos = append(repos, r)
	}
	if cfg.Storage.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Storage.RedisAddr})
		ttl := time.Duration(cfg.Storage.RedisTTLSec) * time.Second
		repos = append(repos, redisrepo.New(rdb, cfg.Storage.RedisPrefix, ttl))
	}

	switch len(repos) {
	case 0:
		return nil
	case 1:
		return repos[0]
	default:
		return composite.New(repos...)
	}
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
