package postgres

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS latest_reports (
  asset TEXT PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  sources TEXT NOT NULL,
  source_count INT NOT NULL,
  divergence_pct DOUBLE PRECISION NOT NULL,
  confidence DOUBLE PRECISION NOT NULL,
  premium_pct DOUBLE PRECISION NOT NULL,
  hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
  id BIGSERIAL PRIMARY KEY,
  asset TEXT NOT NULL,
  ts_ms BIGINT NOT NULL,
  price DOUBLE PRECISION NOT NULL,
  sources TEXT NOT NULL,
  source_count INT NOT NULL,
  divergence_pct DOUBLE PRECISION NOT NULL,
  confidence DOUBLE PRECISION NOT NULL,
  premium_pct DOUBLE PRECISION NOT NULL,
  hash TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_asset_ts ON reports(asset, ts_ms);
CREATE TABLE IF NOT EXISTS signals (
  id BIGSERIAL PRIMARY KEY,
  ts_ms BIGINT NOT NULL,
  asset TEXT NOT NULL,
  divergence_bps DOUBLE PRECISION NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts_ms);
`)
	return err
}

func (r *Repo) UpsertLatestReport(ctx context.Context, rep *model.PriceReport) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO latest_reports(asset, ts_ms, price, sources, source_count, divergence_pct, confidence, premium_pct, hash)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT(asset) DO UPDATE SET
  ts_ms=EXCLUDED.ts_ms, price=EXCLUDED.price, sources=EXCLUDED.sources,
  source_count=EXCLUDED.source_count, divergence_pct=EXCLUDED.divergence_pct,
  confidence=EXCLUDED.confidence, premium_pct=EXCLUDED.premium_pct, hash=EXCLUDED.hash`,
		rep.Asset, rep.GeneratedAtMs, rep.Price, strings.Join(rep.SourcesUsed, ","),
		rep.SourceCount, rep.DivergencePct, rep.Confidence, rep.UsdtPremiumPct, rep.IntegrityHash)
	return err
}

func (r *Repo) InsertReport(ctx context.Context, rep *model.PriceReport) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reports(asset, ts_ms, price, sources, source_count, divergence_pct, confidence, premium_pct, hash)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rep.Asset, rep.GeneratedAtMs, rep.Price, strings.Join(rep.SourcesUsed, ","),
		rep.SourceCount, rep.DivergencePct, rep.Confidence, rep.UsdtPremiumPct, rep.IntegrityHash)
	return err
}

func (r *Repo) InsertSignal(ctx context.Context, tsMs int64, asset string, divergenceBps float64, payload string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO signals(ts_ms, asset, divergence_bps, payload) VALUES($1, $2, $3, $4)`,
		tsMs, asset, divergenceBps, payload)
	return err
}

var _ port.Repository = (*Repo)(nil)
