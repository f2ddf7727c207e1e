package composite

import (
	"context"

	"pulsefeed/internal/application/port"
	"pulsefeed/internal/domain/model"
)

type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) UpsertLatestReport(ctx context.Context, rep *model.PriceReport) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestReport(ctx, rep); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertReport(ctx context.Context, rep *model.PriceReport) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertReport(ctx, rep); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertSignal(ctx context.Context, tsMs int64, asset string, divergenceBps float64, payload string) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertSignal(ctx, tsMs, asset, divergenceBps, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) Close() error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ port.Repository = (*Repo)(nil)
