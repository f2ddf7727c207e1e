package port

import (
	"context"

	"pulsefeed/internal/domain/model"
)

// FeedSet is the aggregator's view of the running venue feeds: start
// and stop them as a group, drain their snapshots, and read per-venue
// state without ever calling back into a runner.
type FeedSet interface {
	StartAll(ctx context.Context)
	StopAll()

	// Events is the bounded fanout channel; every emitted snapshot
	// lands here (latest-wins under backpressure).
	Events() <-chan model.Snapshot

	// Latest returns the most recent snapshot per venue.
	Latest() []model.Snapshot

	// Stats returns per-venue health counters.
	Stats() []model.FeedStats
}
