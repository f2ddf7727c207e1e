package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

type Repo struct {
	rdb          *redis.Client
	prefix       string
	ttl          time.Duration
	keyLatest    string // prefix + ":latest"
	signalStream string
	signalChan   string
}

type latestReport struct {
	Asset         string   `json:"asset"`
	Price         float64  `json:"price"`
	Sources       []string `json:"sources"`
	SourceCount   int      `json:"source_count"`
	DivergencePct float64  `json:"divergence_pct"`
	Confidence    float64  `json:"confidence"`
	PremiumPct    float64  `json:"premium_pct"`
	Ts            int64    `json:"ts"`
	Hash          string   `json:"hash"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "pulsefeed"
	}
	return &Repo{
		rdb:          rdb,
		prefix:       prefix,
		ttl:          ttl,
		keyLatest:    prefix + ":latest",
		signalStream: prefix + ":signals",
		signalChan:   prefix + ":signals:pub",
	}
}

func (r *Repo) UpsertLatestReport(ctx context.Context, rep *model.PriceReport) error {
	lr := latestReport{
		Asset:         rep.Asset,
		Price:         rep.Price,
		Sources:       rep.SourcesUsed,
		SourceCount:   rep.SourceCount,
		DivergencePct: rep.DivergencePct,
		Confidence:    rep.Confidence,
		PremiumPct:    rep.UsdtPremiumPct,
		Ts:            rep.GeneratedAtMs,
		Hash:          rep.IntegrityHash,
	}
	b, _ := json.Marshal(lr)

	// Hash: field = "BTC" -> json
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, rep.Asset, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertReport(ctx context.Context, rep *model.PriceReport) error {
	// report history lives in sqlite/postgres; redis keeps latest only
	return nil
}

func (r *Repo) InsertSignal(ctx context.Context, tsMs int64, asset string, divergenceBps float64, payload string) error {
	// 1) Stream: XADD <stream> * ts asset bps payload
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.signalStream,
		Values: map[string]any{
			"ts_ms":   tsMs,
			"asset":   asset,
			"bps":     divergenceBps,
			"payload": payload,
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json for live consumers
	msg, _ := json.Marshal(map[string]any{
		"ts_ms":   tsMs,
		"asset":   asset,
		"bps":     divergenceBps,
		"payload": payload,
	})
	return r.rdb.Publish(ctx, r.signalChan, string(msg)).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Repository = (*Repo)(nil)
