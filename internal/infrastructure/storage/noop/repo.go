package noop

import (
	"context"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
)

type Repo struct{}

func New() *Repo { return &Repo{} }

func (*Repo) UpsertLatestReport(ctx context.Context, rep *model.PriceReport) error { return nil }
func (*Repo) InsertReport(ctx context.Context, rep *model.PriceReport) error       { return nil }
func (*Repo) InsertSignal(ctx context.Context, tsMs int64, asset string, divergenceBps float64, payload string) error {
	return nil
}
func (*Repo) Close() error { return nil }

var _ port.Repository = (*Repo)(nil)
