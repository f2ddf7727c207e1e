package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

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
  ts_ms INTEGER NOT NULL,
  price REAL NOT NULL,
  sources TEXT NOT NULL,
  source_count INTEGER NOT NULL,
  divergence_pct REAL NOT NULL,
  confidence REAL NOT NULL,
  premium_pct REAL NOT NULL,
  hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  asset TEXT NOT NULL,
  ts_ms INTEGER NOT NULL,
  price REAL NOT NULL,
  sources TEXT NOT NULL,
  source_count INTEGER NOT NULL,
  divergence_pct REAL NOT NULL,
  confidence REAL NOT NULL,
  premium_pct REAL NOT NULL,
  hash TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_asset_ts ON reports(asset, ts_ms);
CREATE TABLE IF NOT EXISTS signals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  asset TEXT NOT NULL,
  divergence_bps REAL NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts_ms);
`)
	return err
}

func (r *Repo) UpsertLatestReport(ctx context.Context, rep *model.PriceReport) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO latest_reports(asset, ts_ms, price, sources, source_count, divergence_pct, confidence, premium_pct, hash)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(asset) DO UPDATE SET
  ts_ms=excluded.ts_ms, price=excluded.price, sources=excluded.sources,
  source_count=excluded.source_count, divergence_pct=excluded.divergence_pct,
  confidence=excluded.confidence, premium_pct=excluded.premium_pct, hash=excluded.hash`,
		rep.Asset, rep.GeneratedAtMs, rep.Price, strings.Join(rep.SourcesUsed, ","),
		rep.SourceCount, rep.DivergencePct, rep.Confidence, rep.UsdtPremiumPct, rep.IntegrityHash)
	return err
}

func (r *Repo) InsertReport(ctx context.Context, rep *model.PriceReport) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reports(asset, ts_ms, price, sources, source_count, divergence_pct, confidence, premium_pct, hash)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.Asset, rep.GeneratedAtMs, rep.Price, strings.Join(rep.SourcesUsed, ","),
		rep.SourceCount, rep.DivergencePct, rep.Confidence, rep.UsdtPremiumPct, rep.IntegrityHash)
	return err
}

func (r *Repo) InsertSignal(ctx context.Context, tsMs int64, asset string, divergenceBps float64, payload string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO signals(ts_ms, asset, divergence_bps, payload) VALUES(?, ?, ?, ?)`,
		tsMs, asset, divergenceBps, payload)
	return err
}

var _ port.Repository = (*Repo)(nil)
