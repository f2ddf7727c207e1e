package port

import (
	"context"

	"pulsefeed/internal/domain/model"
)

type Repository interface {
	// Report operations
	UpsertLatestReport(ctx context.Context, r *model.PriceReport) error
	InsertReport(ctx context.Context, r *model.PriceReport) error

	// Signal operations
	InsertSignal(ctx context.Context, tsMs int64, asset string, divergenceBps float64, payload string) error

	// Connection management
	Close() error
}
